package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llamabridge/internal/bridge"
	"llamabridge/internal/engine"
	"llamabridge/internal/httpapi"
)

func newServeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Example: "  llamabridge serve --addr :8080 --model ~/models/qwen2.5-0.5b-instruct-q4_k_m.gguf\n" +
			"  llamabridge serve --config llamabridge.yaml",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return o.serve(ctx)
		},
	}
	addModelFlags(cmd, o)
	f := cmd.Flags()
	f.StringVar(&o.flags.Addr, "addr", "", "HTTP listen address (default :8080 or LLAMABRIDGE_ADDR)")
	f.StringVar(&o.flags.ModelsDir, "models-dir", "", "Directory of GGUF files exposed by GET /v1/models")
	f.Int32Var(&o.flags.NPredict, "n-predict", 0, "Default token budget for /v1/generate")
	f.Int64Var(&o.flags.MaxBodyBytes, "max-body-bytes", 0, "Maximum request body size")
	f.Int64Var(&o.flags.GenerateTimeoutSec, "generate-timeout", 0, "Seconds before /v1/generate is canceled (0 = none)")
	f.StringVar(&o.flags.RequestLogLevel, "request-log", "", "Per-request logging: off|error|info|debug")
	f.BoolVar(&o.flags.CORSEnabled, "cors", false, "Enable CORS")
	f.StringSliceVar(&o.flags.CORSAllowedOrigins, "cors-origins", nil, "Allowed CORS origins")
	return cmd
}

func (o *options) serve(ctx context.Context) error {
	cfg := o.cfg
	b, err := o.newBridge()
	if err != nil {
		if !engine.IsDependencyUnavailable(err) {
			return err
		}
		// keep serving health and metrics; engine calls report the reason
		o.log.Warn().Err(err).Msg("engine unavailable")
		b = bridge.Unavailable(err)
	}
	defer b.Shutdown()

	if b.Runtime() != nil {
		acc := b.Init()
		o.log.Info().Str("backends", b.BackendLabelsJSON()).Bool("accelerated", acc == 1).Msg("backends")
		if cfg.Model != "" {
			if err := o.loadConfigured(b); err != nil {
				return err
			}
		}
	}

	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetGenerateTimeoutSeconds(cfg.GenerateTimeoutSec)
	httpapi.SetDefaultNPredict(cfg.NPredict)
	httpapi.SetModelsDir(cfg.ModelsDir)
	httpapi.SetRequestLogLevel(cfg.RequestLogLevel)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(b),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		o.log.Info().Str("addr", cfg.Addr).Str("model", cfg.Model).Msg("llamabridge listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	o.log.Info().Msg("shutting down")
	// stop running generations before draining connections
	b.RequestCancel()
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		o.log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
