package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"llamabridge/internal/bridge"
	"llamabridge/internal/registry"
)

func newTokenizeCmd(o *options) *cobra.Command {
	var addSpecial bool
	cmd := &cobra.Command{
		Use:   "tokenize [text]",
		Short: "Print the token ids of text as a JSON array",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readPrompt(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return o.withModel(func(b *bridge.Bridge) error {
				if rc := b.Tokenize(text, addSpecial); rc < 0 {
					return callError("tokenize", rc, b)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), b.LastTokensJSON())
				return err
			})
		},
	}
	addModelFlags(cmd, o)
	cmd.Flags().BoolVar(&addSpecial, "add-special", true, "Add BOS/EOS per the model configuration")
	return cmd
}

func newDetokenizeCmd(o *options) *cobra.Command {
	var special bool
	cmd := &cobra.Command{
		Use:     "detokenize [tokens]",
		Short:   "Print the text of a token list",
		Example: "  llamabridge detokenize -m model.gguf \"[1, 15043, 3186]\"",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := readPrompt(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return o.withModel(func(b *bridge.Bridge) error {
				if rc := b.Detokenize(list, special); rc < 0 {
					return callError("detokenize", rc, b)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), b.LastDetokenized())
				return err
			})
		},
	}
	addModelFlags(cmd, o)
	cmd.Flags().BoolVar(&special, "special", false, "Render control tokens")
	return cmd
}

func newMetadataCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Print the GGUF metadata of a model as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withModel(func(b *bridge.Bridge) error {
				return printIndented(cmd.OutOrStdout(), b.ModelMetadataJSON())
			})
		},
	}
	addModelFlags(cmd, o)
	return cmd
}

func newProbeCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "List compute backends and report whether an accelerator is present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := o.newBridge()
			if err != nil {
				return err
			}
			defer b.Shutdown()
			acc := b.Init() == 1
			var labels []string
			if err := json.Unmarshal([]byte(b.BackendLabelsJSON()), &labels); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]any{"backends": labels, "accelerated": acc})
			}
			for _, l := range labels {
				fmt.Fprintln(out, l)
			}
			fmt.Fprintf(out, "accelerated: %t\n", acc)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&o.flags.AcceleratorIDs, "accelerator-ids", nil, "Backend label substrings counted as accelerators")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newModelsCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List GGUF files in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.cfg.ModelsDir == "" {
				return fmt.Errorf("no models directory: pass --models-dir or set models_dir in the config file")
			}
			models, err := registry.Scan(o.cfg.ModelsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(models)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSIZE\tKIND")
			for _, m := range models {
				kind := "model"
				if m.Projector {
					kind = "mmproj"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, humanBytes(m.SizeBytes), kind)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&o.flags.ModelsDir, "models-dir", "", "Directory to scan for *.gguf files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// withModel builds a bridge, loads the configured model and runs fn.
func (o *options) withModel(fn func(b *bridge.Bridge) error) error {
	b, err := o.newBridge()
	if err != nil {
		return err
	}
	defer b.Shutdown()
	if err := o.loadConfigured(b); err != nil {
		return err
	}
	return fn(b)
}

func printIndented(w io.Writer, raw string) error {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
