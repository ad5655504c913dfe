package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamabridge/internal/bridge"
	"llamabridge/internal/common/fsutil"
	"llamabridge/internal/config"
	"llamabridge/internal/engine"
	"llamabridge/internal/engine/llamacpp"
	"llamabridge/internal/httpapi"
	"llamabridge/internal/session"
)

// newEngine is replaced in tests.
var newEngine = llamacpp.New

// options collects persistent state shared by subcommands.
type options struct {
	configPath string
	flags      config.Config // only values set on the command line are non-zero
	cfg        config.Config // defaults, then config file, then flags
	log        zerolog.Logger
}

func defaults() config.Config {
	return config.Config{
		Addr:      defaultAddr(),
		NPredict:  session.DefaultPredict,
		LogLevel:  "info",
		LogFormat: "console",

		// comma separated, e.g. "cuda,metal"
		AcceleratorIDs: splitCSV(os.Getenv("LLAMABRIDGE_ACCELERATOR_IDS")),
	}
}

func defaultAddr() string {
	if v := os.Getenv("LLAMABRIDGE_ADDR"); v != "" {
		return v
	}
	return ":8080"
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "llamabridge",
		Short:         "Run llama.cpp models in-process: HTTP server and one-shot tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve(cmd.ErrOrStderr())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", os.Getenv("LLAMABRIDGE_CONFIG"), "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&o.flags.LogLevel, "log-level", "", "Log level: debug|info|warn|error (default info)")
	pf.StringVar(&o.flags.LogFormat, "log-format", "", "Log format: console|json (default console)")

	root.AddCommand(
		newServeCmd(o),
		newGenerateCmd(o),
		newTokenizeCmd(o),
		newDetokenizeCmd(o),
		newProbeCmd(o),
		newMetadataCmd(o),
		newModelsCmd(o),
	)
	return root
}

// addModelFlags registers the flags that select and configure a model.
func addModelFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVarP(&o.flags.Model, "model", "m", "", "Path to a GGUF model")
	f.StringVar(&o.flags.MMProj, "mmproj", "", "Path to a multimodal projector")
	f.Int32Var(&o.flags.NCtx, "n-ctx", 0, "Context window (0 = model default)")
	f.Int32VarP(&o.flags.Threads, "threads", "t", 0, "CPU threads (0 = engine default)")
	f.Int32Var(&o.flags.GPULayers, "gpu-layers", 0, "Layers offloaded to an accelerator")
	f.StringSliceVar(&o.flags.AcceleratorIDs, "accelerator-ids", nil, "Backend label substrings counted as accelerators")
}

func (o *options) resolve(stderr io.Writer) error {
	cfg := defaults()
	if o.configPath != "" {
		fc, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		cfg.Merge(fc)
	}
	cfg.Merge(o.flags)
	o.cfg = cfg

	l, err := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	o.log = l
	session.SetLogger(l)
	httpapi.SetLogger(l)
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// newBridge builds a runtime over the configured engine.
func (o *options) newBridge() (*bridge.Bridge, error) {
	eng, err := newEngine()
	if err != nil {
		return nil, err
	}
	return bridge.New(o.newRuntime(eng)), nil
}

func (o *options) newRuntime(eng engine.Engine) *session.Runtime {
	opts := []session.Option{
		session.WithMaxImageSide(o.cfg.MaxImageSide),
		session.WithMaxImagePixels(o.cfg.MaxImagePixels),
	}
	if len(o.cfg.AcceleratorIDs) > 0 {
		opts = append(opts, session.WithAcceleratorIDs(o.cfg.AcceleratorIDs...))
	}
	return session.New(eng, opts...)
}

// loadConfigured loads the configured model and, when set, its projector.
func (o *options) loadConfigured(b *bridge.Bridge) error {
	if o.cfg.Model == "" {
		return fmt.Errorf("no model configured: pass --model or set model in the config file")
	}
	path, err := fsutil.ResolveFile(o.cfg.Model)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if rc := b.LoadModel(path, o.cfg.NCtx, o.cfg.Threads, o.cfg.GPULayers); rc != bridge.OK {
		return callError("load model", rc, b)
	}
	if o.cfg.MMProj == "" {
		return nil
	}
	pj, err := fsutil.ResolveFile(o.cfg.MMProj)
	if err != nil {
		return fmt.Errorf("mmproj: %w", err)
	}
	if rc := b.LoadProjector(pj); rc != bridge.OK {
		return callError("load projector", rc, b)
	}
	return nil
}

func callError(op string, rc int32, b *bridge.Bridge) error {
	return fmt.Errorf("%s: %s (%s)", op, b.LastError(), bridge.CodeName(rc))
}
