package session

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"llamabridge/internal/engine"
)

// DefaultPredict is the token budget Run uses when none is given.
const DefaultPredict = 128

// StepResult is the outcome of a successful Step.
type StepResult int

const (
	// StepEnded means the session finished (end of generation or cancel).
	StepEnded StepResult = iota
	// StepProduced means one fragment was appended; see LastFragment.
	StepProduced
)

// GenerateParams describes one generation request.
type GenerateParams struct {
	Prompt string
	SamplerParams
}

// Generation is the step-wise generation session of a Runtime. It is Idle
// until Begin succeeds and Active until it ends.
type Generation struct {
	rt *Runtime

	cancel  atomic.Bool
	sampler engine.Sampler
	active  bool
	id      string
	started time.Time
	steps   int

	output strings.Builder
	last   string
}

// Active reports whether a session is in progress.
func (g *Generation) Active() bool { return g.active && g.sampler != nil }

// ID returns the identifier of the current or last session.
func (g *Generation) ID() string { return g.id }

// Output returns everything produced since the last Begin.
func (g *Generation) Output() string { return g.output.String() }

// LastFragment returns the text of the most recent produced token.
func (g *Generation) LastFragment() string { return g.last }

// Cancel asks the active session to stop. Safe from any goroutine.
func (g *Generation) Cancel() { g.cancel.Store(true) }

// End releases the sampler and returns to Idle. Accumulated output stays
// readable until the next Begin.
func (g *Generation) End() {
	if g.sampler != nil {
		g.sampler.Free()
		g.sampler = nil
	}
	g.active = false
	g.last = ""
	g.cancel.Store(false)
}

func (g *Generation) finish(result string) {
	if g.active {
		generationsTotal.WithLabelValues(result).Inc()
		logger.Debug().
			Str("session", g.id).
			Str("result", result).
			Int("steps", g.steps).
			Dur("elapsed", time.Since(g.started)).
			Msg("generation finished")
	}
	g.End()
}

// Begin ingests p.Prompt into a cleared context and builds the sampler chain.
// Any stale session is ended first. On failure the session stays Idle.
func (g *Generation) Begin(p GenerateParams) error {
	r := g.rt
	g.output.Reset()
	g.last = ""
	if err := r.requireLoaded(); err != nil {
		return err
	}
	if p.Prompt == "" {
		return newError(KindEmptyInput, "prompt is empty")
	}
	sp := p.SamplerParams.clamped()

	g.End()
	r.ctx.ClearMemory()

	if err := r.ingest(p.Prompt); err != nil {
		generationsTotal.WithLabelValues(resultBeginErr).Inc()
		logger.Warn().Err(err).Msg("prompt ingestion failed")
		return err
	}
	chain, err := r.buildChain(sp)
	if err != nil {
		generationsTotal.WithLabelValues(resultBeginErr).Inc()
		logger.Warn().Err(err).Msg("sampler init failed")
		return err
	}

	g.sampler = chain
	g.active = true
	g.id = uuid.NewString()
	g.started = time.Now()
	g.steps = 0
	logger.Debug().
		Str("session", g.id).
		Float32("temp", sp.Temperature).
		Int32("top_k", sp.TopK).
		Float32("top_p", sp.TopP).
		Float32("repeat_penalty", sp.RepeatPenalty).
		Bool("grammar", sp.Grammar != "").
		Msg("generation started")
	return nil
}

// Step samples and decodes one token.
func (g *Generation) Step() (StepResult, error) {
	r := g.rt
	// Unload ends the session, so an active session implies a loaded model.
	if !g.Active() {
		return StepEnded, newError(KindSessionNotActive, "generation is not active")
	}
	if err := r.requireLoaded(); err != nil {
		return StepEnded, err
	}
	if g.cancel.Load() {
		g.finish(resultCancelled)
		return StepEnded, nil
	}
	start := time.Now()
	defer func() { stepDuration.Observe(time.Since(start).Seconds()) }()

	tok := g.sampler.Sample(r.ctx, -1)
	if tok == engine.TokenNull {
		g.finish(resultError)
		return StepEnded, newError(KindSampling, "sampler returned the null token")
	}
	if r.vocab.IsEOG(tok) {
		g.finish(resultEOG)
		return StepEnded, nil
	}

	piece, ok := r.piece(tok, true)
	if !ok {
		logger.Debug().Int32("token", int32(tok)).Msg("token has no text")
		piece = ""
	}
	g.last = piece
	g.output.WriteString(piece)
	g.steps++
	tokensGeneratedTotal.Inc()

	if rc := r.ctx.Decode([]engine.Token{tok}); rc != 0 {
		if g.cancel.Load() {
			g.finish(resultCancelled)
			return StepEnded, nil
		}
		g.finish(resultError)
		return StepEnded, newError(KindDecode, "decode failed while generating tokens (rc=%d)", rc)
	}
	return StepProduced, nil
}

// Run drives Begin and up to nPredict steps, then End. onToken, when non-nil,
// sees each fragment; a non-nil return stops the run with that error. Context
// cancellation is a normal stop and Run returns nil for it.
func (g *Generation) Run(ctx context.Context, p GenerateParams, nPredict int, onToken func(fragment string) error) error {
	if nPredict <= 0 {
		nPredict = DefaultPredict
	}
	if err := g.Begin(p); err != nil {
		return err
	}
	defer g.End()

	stop := context.AfterFunc(ctx, g.Cancel)
	defer stop()
	if ctx.Err() != nil {
		g.Cancel()
	}

	for i := 0; i < nPredict; i++ {
		res, err := g.Step()
		if err != nil {
			return err
		}
		if res == StepEnded {
			return nil
		}
		if onToken != nil {
			if err := onToken(g.last); err != nil {
				g.finish(resultCancelled)
				return err
			}
		}
	}
	g.finish(resultLength)
	return nil
}
