package session

import (
	"llamabridge/internal/engine"
	"llamabridge/internal/prompt"
)

// Batch sizing ceilings applied when the engine default does not fit the context.
const (
	maxBatch      = 1024
	maxMicroBatch = 512
)

// LoadParams configures LoadModel. Non-positive values select engine defaults.
type LoadParams struct {
	Path        string
	ContextSize int32
	Threads     int32
	GPULayers   int32
}

// Runtime owns the model, context, projector and pending media of one engine.
//
// Invariants: ctx and vocab are non-nil iff model is non-nil; projector is
// non-nil only while model is; pending is non-empty only while projector is.
type Runtime struct {
	eng       engine.Engine
	model     engine.Model
	ctx       engine.Context
	vocab     engine.Vocab // borrowed from model
	projector engine.Projector
	pending   []engine.Bitmap

	backendInit bool
	accelerated bool
	labels      []string
	metadata    map[string]string

	accelIDs     []string
	normalizer   *prompt.Normalizer
	maxImageSide   int
	maxImagePixels int

	gen *Generation
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithAcceleratorIDs replaces the substrings that mark a backend label as
// accelerated.
func WithAcceleratorIDs(ids ...string) Option {
	return func(r *Runtime) {
		if len(ids) > 0 {
			r.accelIDs = append([]string(nil), ids...)
		}
	}
}

// WithNormalizer replaces the prompt normalizer used for multimodal prompts.
func WithNormalizer(n *prompt.Normalizer) Option {
	return func(r *Runtime) {
		if n != nil {
			r.normalizer = n
		}
	}
}

// WithMaxImageSide bounds the longest side of images decoded on the Go side.
// Zero keeps the original size.
func WithMaxImageSide(px int) Option {
	return func(r *Runtime) { r.maxImageSide = px }
}

// WithMaxImagePixels rejects Go-side decodes whose header declares more than n
// pixels. Zero selects media.DefaultMaxPixels.
func WithMaxImagePixels(n int) Option {
	return func(r *Runtime) { r.maxImagePixels = n }
}

// New returns an empty Runtime over eng.
func New(eng engine.Engine, opts ...Option) *Runtime {
	r := &Runtime{
		eng:        eng,
		accelIDs:   DefaultAcceleratorIDs,
		normalizer: prompt.New(),
	}
	r.gen = &Generation{rt: r}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Generation returns the runtime's single generation session.
func (r *Runtime) Generation() *Generation { return r.gen }

// Loaded reports whether model, context and vocabulary are all present.
func (r *Runtime) Loaded() bool {
	return r.model != nil && r.ctx != nil && r.vocab != nil
}

func (r *Runtime) requireLoaded() error {
	if !r.Loaded() {
		return newError(KindNotLoaded, "model is not loaded")
	}
	return nil
}

// ContextSize returns the context window of the loaded model, 0 when unloaded.
func (r *Runtime) ContextSize() int {
	if r.ctx == nil {
		return 0
	}
	return int(r.ctx.NCtx())
}

// LoadModel replaces any loaded runtime with the model at p.Path. An empty
// path fails before anything is torn down.
func (r *Runtime) LoadModel(p LoadParams) error {
	if p.Path == "" {
		return newError(KindEmptyInput, "model path is empty")
	}
	r.Unload()
	r.ensureBackend()
	r.refreshBackends()

	m, err := r.eng.LoadModel(p.Path, engine.ModelParams{GPULayers: p.GPULayers})
	if err != nil {
		modelLoadsTotal.WithLabelValues("model_error").Inc()
		logger.Error().Err(err).Str("path", p.Path).Msg("model load failed")
		return newError(KindModelLoad, "model load failed: %v", err)
	}
	r.model = m

	c, err := m.NewContext(contextParams(m.DefaultContextParams(), p))
	if err != nil {
		r.Unload()
		modelLoadsTotal.WithLabelValues("context_error").Inc()
		logger.Error().Err(err).Str("path", p.Path).Msg("context init failed")
		return newError(KindContextInit, "context init failed: %v", err)
	}
	r.ctx = c
	r.vocab = m.Vocab()
	c.SetAbortCallback(r.gen.cancel.Load)
	r.metadata = r.readMetadata()

	modelLoadsTotal.WithLabelValues("ok").Inc()
	logger.Info().
		Str("path", p.Path).
		Uint32("n_ctx", c.NCtx()).
		Uint32("n_batch", c.NBatch()).
		Int32("gpu_layers", p.GPULayers).
		Int("meta_keys", len(r.metadata)).
		Msg("model loaded")
	return nil
}

// contextParams applies caller overrides and batch clamping to engine defaults.
func contextParams(cp engine.ContextParams, p LoadParams) engine.ContextParams {
	if p.ContextSize > 0 {
		cp.NCtx = uint32(p.ContextSize)
	}
	if p.Threads > 0 {
		cp.NThreads = p.Threads
		cp.NThreadsBatch = p.Threads
	}
	limit := cp.NCtx
	if limit == 0 {
		limit = maxBatch
	}
	if cp.NBatch == 0 || cp.NBatch > limit {
		cp.NBatch = min(limit, maxBatch)
	}
	if cp.NUBatch == 0 || cp.NUBatch > cp.NBatch {
		cp.NUBatch = min(cp.NBatch, maxMicroBatch)
	}
	gpu := p.GPULayers > 0
	cp.OffloadKQV = gpu
	cp.OpOffload = gpu
	cp.NoPerf = true
	return cp
}

// Unload releases sampler, pending media, projector, context and model in that
// order and resets derived caches. Calling it on an empty runtime is a no-op.
func (r *Runtime) Unload() {
	r.gen.End()
	r.ClearMedia()
	if r.projector != nil {
		r.projector.Free()
		r.projector = nil
	}
	if r.ctx != nil {
		r.ctx.Free()
		r.ctx = nil
	}
	wasLoaded := r.model != nil
	if r.model != nil {
		r.model.Free()
		r.model = nil
	}
	r.vocab = nil
	r.gen.output.Reset()
	r.metadata = nil
	r.labels = nil
	r.accelerated = false
	if wasLoaded {
		logger.Info().Msg("model unloaded")
	}
}

// Shutdown unloads and releases global backend state.
func (r *Runtime) Shutdown() {
	r.Unload()
	if r.backendInit {
		r.eng.BackendFree()
		r.backendInit = false
	}
}
