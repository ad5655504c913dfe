// Package engine defines the capability contract the session layer needs from
// an inference library: model loading, tokenization, batched decode, sampler
// construction, multimodal chunk evaluation and backend enumeration.
//
// The contract deliberately keeps the library's buffer conventions: calls that
// fill caller-provided buffers return the number of elements written, or a
// negative value when the buffer is too small. See package varlen for the
// retry wrapper used on top of them.
//
// Implementations are not safe for concurrent use. Only Context.SetAbortCallback's
// callback may be invoked from a different goroutine than the one driving the
// engine.
package engine

// Token is a vocabulary id.
type Token int32

// TokenNull is returned by samplers that failed to select a token.
const TokenNull Token = -1

// DefaultMarker is the canonical media marker used when a projector does not
// report one.
const DefaultMarker = "<__media__>"

// Engine is the process-level entry point of an inference library.
type Engine interface {
	// BackendInit initializes global backend state. Safe to call once per process
	// lifetime before any model is loaded; BackendFree undoes it.
	BackendInit()
	BackendFree()
	// LoadAllBackends loads dynamically discoverable backend implementations.
	LoadAllBackends()
	// Devices lists engine-visible compute devices.
	Devices() []Device

	LoadModel(path string, p ModelParams) (Model, error)
	LoadProjector(path string, m Model, p ProjectorParams) (Projector, error)

	// NewSamplerChain returns an empty chain. Stages are built with the
	// constructors below and appended with Sampler.Add; the chain owns them.
	NewSamplerChain() (Sampler, error)
	PenaltiesSampler(lastN int32, repeat, freq, present float32) Sampler
	TopKSampler(k int32) Sampler
	TopPSampler(p float32, minKeep int) Sampler
	GrammarSampler(v Vocab, grammar, root string) (Sampler, error)
	TempSampler(t float32) Sampler
	DistSampler(seed uint32) Sampler
}

// Device describes one compute device. Registry is empty when the device has
// no owning backend registry.
type Device struct {
	Name     string
	Registry string
}

// ModelParams mirrors the subset of model loading options the session sets.
type ModelParams struct {
	GPULayers int32
	UseMmap   bool
	UseMlock  bool
	VocabOnly bool
}

// ContextParams mirrors the subset of context options the session sets.
// Zero values are replaced by engine defaults in DefaultContextParams.
type ContextParams struct {
	NCtx          uint32
	NBatch        uint32
	NUBatch       uint32
	NThreads      int32
	NThreadsBatch int32
	OffloadKQV    bool
	OpOffload     bool
	NoPerf        bool
}

// ProjectorParams configures a multimodal projector.
type ProjectorParams struct {
	UseGPU       bool
	PrintTimings bool
	NThreads     int32
}

// Model is a loaded set of weights.
type Model interface {
	// Vocab is borrowed from the model and valid until Free.
	Vocab() Vocab
	DefaultContextParams() ContextParams
	NewContext(p ContextParams) (Context, error)

	MetaCount() int32
	// MetaKeyByIndex and MetaValueByIndex write a NUL-terminated string into buf
	// and return its full length, or a negative value on failure.
	MetaKeyByIndex(i int32, buf []byte) int32
	MetaValueByIndex(i int32, buf []byte) int32

	Free()
}

// Vocab converts between text and tokens.
type Vocab interface {
	// Tokenize writes tokens into out and returns the count, or -required when
	// out is too small.
	Tokenize(text string, out []Token, addSpecial, parseSpecial bool) int32
	// TokenToPiece writes the token's text into buf and returns the byte count,
	// or -required when buf is too small.
	TokenToPiece(tok Token, buf []byte, lstrip int32, special bool) int32
	IsEOG(tok Token) bool
	BOS() Token
	EOS() Token
}

// Context holds the decoder state (KV memory) for one model.
type Context interface {
	NCtx() uint32
	NBatch() uint32
	NThreads() int32
	// Decode evaluates tokens at the current position; 0 means success.
	Decode(tokens []Token) int32
	// ClearMemory fully resets the KV memory.
	ClearMemory()
	// SetAbortCallback registers a poll consulted during long decodes. The
	// callback may run on an engine-internal thread.
	SetAbortCallback(fn func() bool)
	Free()
}

// Sampler is a token selection stage or a chain of stages.
type Sampler interface {
	// Add appends a stage to a chain; the chain takes ownership.
	Add(s Sampler)
	// Sample selects a token from the logits at idx (-1 = last).
	Sample(ctx Context, idx int32) Token
	Free()
}

// InputText is a prompt handed to the projector tokenizer.
type InputText struct {
	Text         string
	AddSpecial   bool
	ParseSpecial bool
}

// Projector is a multimodal encoder bound to a model.
type Projector interface {
	DefaultMarker() string
	SupportsVision() bool
	SupportsAudio() bool

	BitmapFromFile(path string) (Bitmap, error)
	BitmapFromBuffer(b []byte) (Bitmap, error)
	BitmapFromRGB(width, height uint32, rgb []byte) (Bitmap, error)
	BitmapFromAudio(samples []float32) (Bitmap, error)

	// Tokenize splits text and media into chunks. Return codes: 0 ok,
	// 1 marker count does not match media count, 2 media preprocessing failed.
	Tokenize(text InputText, media []Bitmap) (Chunks, int32)
	// EvalChunks decodes all chunks into ctx and returns the new position.
	EvalChunks(ctx Context, chunks Chunks, nPast int32, seq int32, nBatch int32, logitsLast bool) (int32, int32)

	Free()
}

// Bitmap is decoded media (image pixels or audio samples).
type Bitmap interface {
	Free()
}

// Chunks is a tokenized multimodal prompt.
type Chunks interface {
	Free()
}
