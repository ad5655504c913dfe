package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"llamabridge/internal/bridge"
	"llamabridge/internal/session"
	"llamabridge/pkg/types"
)

func samplerParams(req types.GenerateRequest) session.SamplerParams {
	return session.SamplerParams{
		Temperature:   req.Temperature,
		TopK:          req.TopK,
		TopP:          req.TopP,
		RepeatPenalty: req.RepeatPenalty,
		Grammar:       req.Grammar,
		Seed:          req.Seed,
	}
}

// handleBegin godoc
// @Summary  Begin a stepwise generation
// @Tags     generation
// @Accept   json
// @Produce  json
// @Param    body  body      types.GenerateRequest  true  "prompt and sampler settings"
// @Success  200   {object}  types.Result
// @Failure  400   {object}  types.Result
// @Failure  409   {object}  types.Result
// @Router   /v1/generation [post]
func (s *server) handleBegin(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var res types.Result
	s.locked(func() { res = s.result(s.b.BeginGeneration(req.Prompt, samplerParams(req))) })
	writeResult(w, res, res)
}

// handleNext godoc
// @Summary  Produce the next fragment of the active generation
// @Tags     generation
// @Produce  json
// @Success  200  {object}  types.StepResponse
// @Failure  409  {object}  types.StepResponse
// @Router   /v1/generation/next [post]
func (s *server) handleNext(w http.ResponseWriter, r *http.Request) {
	var resp types.StepResponse
	s.locked(func() {
		rc := s.b.NextToken()
		resp.Result = s.result(rc)
		switch rc {
		case bridge.TokenProduced:
			resp.Fragment = s.b.LastFragment()
		case bridge.TokenEnded:
			resp.Done = true
		}
	})
	writeResult(w, resp.Result, resp)
}

// handleCancel godoc
// @Summary  Request cancellation of the running generation
// @Description Does not wait for the engine lock; the next step or the running
// @Description fused generation observes the request.
// @Tags     generation
// @Produce  json
// @Success  200  {object}  types.Result
// @Router   /v1/generation/cancel [post]
func (s *server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.b.RequestCancel()
	writeJSON(w, http.StatusOK, types.Result{Code: bridge.OK, Status: bridge.CodeName(bridge.OK)})
}

// handleEnd godoc
// @Summary  End the generation and free its sampler
// @Tags     generation
// @Produce  json
// @Success  200  {object}  types.Result
// @Router   /v1/generation [delete]
func (s *server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var res types.Result
	s.locked(func() {
		s.b.EndGeneration()
		res = s.result(0)
	})
	writeResult(w, res, res)
}

// handleGenerationState godoc
// @Summary  Accumulated output and last fragment
// @Tags     generation
// @Produce  json
// @Success  200  {object}  types.GenerationState
// @Router   /v1/generation [get]
func (s *server) handleGenerationState(w http.ResponseWriter, r *http.Request) {
	var st types.GenerationState
	s.locked(func() {
		st.Output = s.b.AccumulatedOutput()
		st.LastFragment = s.b.LastFragment()
	})
	writeJSON(w, http.StatusOK, st)
}

// handleGenerate godoc
// @Summary  Run a generation to completion
// @Description With stream=true the response is NDJSON: one {"delta"} line per
// @Description fragment and a final {"done":true} line with result and output.
// @Tags     generation
// @Accept   json
// @Produce  json
// @Produce  application/x-ndjson
// @Param    body  body      types.GenerateRequest  true  "prompt and sampler settings"
// @Success  200   {object}  types.GenerateResponse
// @Failure  409   {object}  types.GenerateResponse
// @Router   /v1/generate [post]
func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n := req.NPredict
	if n <= 0 {
		n = defaultNPredict
	}

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if generateTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, time.Duration(generateTimeout)*time.Second)
		defer tcancel()
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	if lvl >= LevelInfo {
		logger.Info().Str("request_id", middleware.GetReqID(r.Context())).Bool("stream", req.Stream).Int32("n_predict", n).Msg("generate start")
	}

	var (
		resp    types.GenerateResponse
		onToken func(string) error
		enc     *json.Encoder
		started bool
	)
	if req.Stream {
		writer := io.Writer(w)
		if lvl >= LevelDebug {
			writer = io.MultiWriter(w, &loggingLineWriter{})
		}
		enc = json.NewEncoder(writer)
		flusher, _ := w.(http.Flusher)
		onToken = func(frag string) error {
			if !started {
				w.Header().Set("Content-Type", "application/x-ndjson")
				w.WriteHeader(http.StatusOK)
				started = true
			}
			if err := enc.Encode(types.StreamChunk{Delta: frag}); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		}
	}

	s.locked(func() {
		resp.Result = s.result(s.b.GenerateStream(ctx, req.Prompt, n, samplerParams(req), onToken))
		resp.Output = s.b.AccumulatedOutput()
	})

	if resp.Code < 0 && lvl >= LevelError {
		logger.Error().Str("request_id", middleware.GetReqID(r.Context())).Str("status", resp.Status).Str("error", resp.Error).Dur("dur", time.Since(start)).Msg("generate end")
	} else if lvl >= LevelInfo {
		logger.Info().Str("request_id", middleware.GetReqID(r.Context())).Str("status", resp.Status).Dur("dur", time.Since(start)).Msg("generate end")
	}
	if r.Context().Err() != nil {
		return
	}
	if req.Stream && (started || resp.Code >= 0) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
		}
		_ = enc.Encode(types.StreamChunk{Done: true, Output: resp.Output, Result: &resp.Result})
		return
	}
	writeResult(w, resp.Result, resp)
}
