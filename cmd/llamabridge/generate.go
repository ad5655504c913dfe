package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"llamabridge/internal/bridge"
	"llamabridge/internal/common/fsutil"
	"llamabridge/internal/session"
)

type generateFlags struct {
	sampler     session.SamplerParams
	grammarFile string
	media       []string
	quiet       bool
}

func newGenerateCmd(o *options) *cobra.Command {
	var gf generateFlags
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate a completion and stream it to stdout",
		Long:  "Generate a completion for prompt. With no argument or \"-\" the prompt is read from stdin.",
		Example: "  llamabridge generate -m model.gguf \"User: Write a haiku.\\nAssistant:\"\n" +
			"  llamabridge generate -m vl.gguf --mmproj mmproj.gguf --media cat.png \"User: what is this?\"",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.generate(ctx, cmd.OutOrStdout(), prompt, gf)
		},
	}
	addModelFlags(cmd, o)
	f := cmd.Flags()
	f.Int32VarP(&o.flags.NPredict, "n-predict", "n", 0, "Maximum tokens to generate (default 128)")
	f.Float32Var(&gf.sampler.Temperature, "temperature", 0.8, "Sampling temperature (<= 0 is greedy)")
	f.Int32Var(&gf.sampler.TopK, "top-k", 40, "Top-K")
	f.Float32Var(&gf.sampler.TopP, "top-p", 0.95, "Nucleus sampling probability")
	f.Float32Var(&gf.sampler.RepeatPenalty, "repeat-penalty", 1.1, "Repeat penalty over the last 64 tokens")
	f.Uint32Var(&gf.sampler.Seed, "seed", 0, "Sampler seed (0 = random)")
	f.StringVar(&gf.grammarFile, "grammar-file", "", "GBNF grammar constraining the output")
	f.StringSliceVar(&gf.media, "media", nil, "Image or audio files passed with the prompt (requires --mmproj)")
	f.BoolVarP(&gf.quiet, "quiet", "q", false, "Do not print a trailing newline")
	return cmd
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func (o *options) generate(ctx context.Context, out io.Writer, prompt string, gf generateFlags) error {
	if gf.grammarFile != "" {
		g, err := os.ReadFile(gf.grammarFile)
		if err != nil {
			return fmt.Errorf("grammar: %w", err)
		}
		gf.sampler.Grammar = string(g)
	}
	b, err := o.newBridge()
	if err != nil {
		return err
	}
	defer b.Shutdown()
	if err := o.loadConfigured(b); err != nil {
		return err
	}
	for _, m := range gf.media {
		p, err := fsutil.ResolveFile(m)
		if err != nil {
			return fmt.Errorf("media: %w", err)
		}
		if rc := b.AddMediaFile(p); rc != bridge.OK {
			return callError("add media "+m, rc, b)
		}
	}

	rc := b.GenerateStream(ctx, prompt, o.cfg.NPredict, gf.sampler, func(frag string) error {
		_, err := io.WriteString(out, frag)
		return err
	})
	if rc != bridge.OK {
		return callError("generate", rc, b)
	}
	if !gf.quiet {
		fmt.Fprintln(out)
	}
	return nil
}
