// Package httpapi serves a bridge over HTTP. Engine-touching handlers are
// serialized by one mutex so a status code and its last-error message always
// belong to the same call; cancellation bypasses it.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llamabridge/internal/bridge"
	"llamabridge/internal/session"
	"llamabridge/pkg/types"
)

// Backend is the bridge surface used by the HTTP layer.
type Backend interface {
	LastError() string
	LoadModel(path string, nCtx, nThreads, nGPULayers int32) int32
	UnloadModel()
	LoadProjector(path string) int32
	UnloadProjector()
	SupportsVision() int32
	SupportsAudio() int32
	AddMediaFile(path string) int32
	AddMediaEncoded(data []byte) int32
	AddMediaRGB(width, height uint32, rgb []byte) int32
	AddMediaAudio(samples []float32) int32
	ClearPendingMedia()
	PendingMedia() int32
	Tokenize(text string, addSpecial bool) int32
	LastTokensJSON() string
	Detokenize(tokenText string, special bool) int32
	LastDetokenized() string
	BeginGeneration(prompt string, p session.SamplerParams) int32
	NextToken() int32
	RequestCancel()
	EndGeneration()
	LastFragment() string
	AccumulatedOutput() string
	GenerateStream(ctx context.Context, prompt string, nPredict int32, p session.SamplerParams, onToken func(string) error) int32
	ContextSize() int32
	Accelerated() int32
	Probe() int32
	BackendLabelsJSON() string
	ModelMetadataJSON() string
}

var _ Backend = (*bridge.Bridge)(nil)

type server struct {
	b  Backend
	mu sync.Mutex
}

// locked runs fn while holding the engine lock.
func (s *server) locked(fn func()) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	engineWaitSeconds.Observe(time.Since(start).Seconds())
	fn()
}

// result reads the outcome of a call that returned code. Callers hold the lock.
func (s *server) result(code int32) types.Result {
	if code > 0 {
		code = bridge.OK
	}
	res := types.Result{Code: code, Status: bridge.CodeName(code)}
	if code < 0 {
		res.Error = s.b.LastError()
	}
	bridgeResultsTotal.WithLabelValues(res.Status).Inc()
	return res
}

// NewMux returns the HTTP handler serving b.
func NewMux(b Backend) http.Handler {
	s := &server{b: b}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/model", s.handleLoadModel)
		r.Delete("/model", s.handleUnloadModel)
		r.Post("/mmproj", s.handleLoadProjector)
		r.Delete("/mmproj", s.handleUnloadProjector)

		r.Post("/media/file", s.handleMediaFile)
		r.Post("/media/encoded", s.handleMediaEncoded)
		r.Post("/media/rgb", s.handleMediaRGB)
		r.Post("/media/audio", s.handleMediaAudio)
		r.Delete("/media", s.handleClearMedia)

		r.Post("/tokenize", s.handleTokenize)
		r.Post("/detokenize", s.handleDetokenize)

		r.Post("/generation", s.handleBegin)
		r.Get("/generation", s.handleGenerationState)
		r.Delete("/generation", s.handleEnd)
		r.Post("/generation/next", s.handleNext)
		r.Post("/generation/cancel", s.handleCancel)
		r.Post("/generate", s.handleGenerate)

		r.Get("/info", s.handleInfo)
		r.Get("/backends", s.handleBackends)
		r.Get("/metadata", s.handleMetadata)
		r.Get("/last-error", s.handleLastError)
		r.Get("/models", handleModels)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.b.ContextSize() > 0 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("no model"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/openapi.json", handleOpenAPI)
	MountSwagger(r)

	return r
}

// decodeJSON enforces the content type and body limit and decodes into v.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, res types.Result, v any) {
	writeJSON(w, httpStatus(res.Code), v)
}
