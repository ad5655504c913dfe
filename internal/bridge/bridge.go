// Package bridge exposes a session.Runtime through primitive-typed calls: every
// fallible operation returns an int32 status code and records a human readable
// message in a last-error slot, and text results are parked in string slots
// that stay valid until the next call that writes them.
//
// Calls are serialized by an internal mutex. RequestCancel and LastError do not
// take it and may be used from any goroutine while another call is running.
package bridge

import (
	"context"
	"sync"

	"llamabridge/internal/session"
)

// Bridge adapts one runtime to the status-code protocol.
type Bridge struct {
	mu      sync.Mutex
	rt      *session.Runtime
	initErr error

	errs errorSlot

	tokensJSON   string
	detokenized  string
	backendsJSON string
	metadataJSON string
}

// New returns a Bridge over rt.
func New(rt *session.Runtime) *Bridge {
	return &Bridge{rt: rt, tokensJSON: "[]", backendsJSON: "[]", metadataJSON: "{}"}
}

// Unavailable returns a Bridge whose every call fails with NotLoaded and
// reports err, for processes where no engine could be constructed.
func Unavailable(err error) *Bridge {
	b := New(nil)
	b.initErr = err
	return b
}

// Runtime returns the wrapped runtime, nil for an unavailable bridge.
func (b *Bridge) Runtime() *session.Runtime { return b.rt }

func (b *Bridge) call(fn func(rt *session.Runtime) error) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callLocked(fn)
}

func (b *Bridge) callLocked(fn func(rt *session.Runtime) error) int32 {
	b.errs.clear()
	if b.rt == nil {
		msg := "runtime is not initialized"
		if b.initErr != nil {
			msg = b.initErr.Error()
		}
		b.errs.set(msg)
		return CodeNotLoaded
	}
	if err := fn(b.rt); err != nil {
		b.errs.set(err.Error())
		return Code(err)
	}
	return OK
}

// read runs fn under the lock when a runtime exists; used by accessors that
// cannot fail.
func (b *Bridge) read(fn func(rt *session.Runtime)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rt != nil {
		fn(b.rt)
	}
}

func boolCode(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

// LastError returns the message of the most recent failure, empty after a
// successful call.
func (b *Bridge) LastError() string { return b.errs.get() }

// Init initializes engine backends and returns 1 when an accelerator was found.
func (b *Bridge) Init() int32 { return b.Probe() }

// Shutdown releases every runtime resource and backend state.
func (b *Bridge) Shutdown() {
	b.read(func(rt *session.Runtime) { rt.Shutdown() })
	b.mu.Lock()
	b.backendsJSON, b.metadataJSON = "[]", "{}"
	b.mu.Unlock()
}

// LoadModel loads the model at path; non-positive numbers select defaults.
func (b *Bridge) LoadModel(path string, nCtx, nThreads, nGPULayers int32) int32 {
	return b.call(func(rt *session.Runtime) error {
		err := rt.LoadModel(session.LoadParams{Path: path, ContextSize: nCtx, Threads: nThreads, GPULayers: nGPULayers})
		if !session.IsEmptyInput(err) {
			b.metadataJSON = marshal(rt.Metadata(), "{}")
			b.backendsJSON = marshal(nonNil(rt.Backends()), "[]")
		}
		return err
	})
}

// UnloadModel releases the model and everything that depends on it.
func (b *Bridge) UnloadModel() {
	b.read(func(rt *session.Runtime) {
		rt.Unload()
		b.metadataJSON, b.backendsJSON = "{}", "[]"
	})
}

// LoadProjector loads a multimodal projector for the current model.
func (b *Bridge) LoadProjector(path string) int32 {
	return b.call(func(rt *session.Runtime) error { return rt.LoadProjector(path) })
}

// UnloadProjector frees the projector and any pending media.
func (b *Bridge) UnloadProjector() {
	b.read(func(rt *session.Runtime) { rt.UnloadProjector() })
}

// SupportsVision returns 1 when the projector accepts images.
func (b *Bridge) SupportsVision() int32 {
	var v bool
	b.read(func(rt *session.Runtime) { v = rt.SupportsVision() })
	return boolCode(v)
}

// SupportsAudio returns 1 when the projector accepts audio.
func (b *Bridge) SupportsAudio() int32 {
	var v bool
	b.read(func(rt *session.Runtime) { v = rt.SupportsAudio() })
	return boolCode(v)
}

func (b *Bridge) AddMediaFile(path string) int32 {
	return b.call(func(rt *session.Runtime) error { return rt.AddMediaFile(path) })
}

func (b *Bridge) AddMediaEncoded(data []byte) int32 {
	return b.call(func(rt *session.Runtime) error { return rt.AddMediaEncoded(data) })
}

func (b *Bridge) AddMediaRGB(width, height uint32, rgb []byte) int32 {
	return b.call(func(rt *session.Runtime) error { return rt.AddMediaRGB(width, height, rgb) })
}

func (b *Bridge) AddMediaAudio(samples []float32) int32 {
	return b.call(func(rt *session.Runtime) error { return rt.AddMediaAudio(samples) })
}

// ClearPendingMedia drops staged media.
func (b *Bridge) ClearPendingMedia() {
	b.errs.clear()
	b.read(func(rt *session.Runtime) { rt.ClearMedia() })
}

// PendingMedia returns the number of staged media items.
func (b *Bridge) PendingMedia() int32 {
	var n int
	b.read(func(rt *session.Runtime) { n = rt.PendingMedia() })
	return int32(n)
}

// Tokenize stores the tokens of text in LastTokensJSON and returns their count.
func (b *Bridge) Tokenize(text string, addSpecial bool) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokensJSON = "[]"
	var n int
	rc := b.callLocked(func(rt *session.Runtime) error {
		toks, err := rt.Tokenize(text, addSpecial)
		if err != nil {
			return err
		}
		b.tokensJSON = FormatTokenList(toks)
		n = len(toks)
		return nil
	})
	if rc != OK {
		return rc
	}
	return int32(n)
}

// LastTokensJSON returns the result of the last Tokenize call.
func (b *Bridge) LastTokensJSON() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokensJSON
}

// Detokenize parses a token list (see ParseTokenList), stores its text in
// LastDetokenized and returns the byte length.
func (b *Bridge) Detokenize(tokenText string, special bool) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detokenized = ""
	rc := b.callLocked(func(rt *session.Runtime) error {
		text, err := rt.Detokenize(ParseTokenList(tokenText), special)
		if err != nil {
			return err
		}
		b.detokenized = text
		return nil
	})
	if rc != OK {
		return rc
	}
	return int32(len(b.detokenized))
}

// LastDetokenized returns the result of the last Detokenize call.
func (b *Bridge) LastDetokenized() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detokenized
}

// BeginGeneration ingests prompt and starts a step-wise session.
func (b *Bridge) BeginGeneration(prompt string, p session.SamplerParams) int32 {
	return b.call(func(rt *session.Runtime) error {
		return rt.Generation().Begin(session.GenerateParams{Prompt: prompt, SamplerParams: p})
	})
}

// NextToken returns TokenProduced, TokenEnded or a negative status code.
func (b *Bridge) NextToken() int32 {
	var res session.StepResult
	rc := b.call(func(rt *session.Runtime) error {
		var err error
		res, err = rt.Generation().Step()
		return err
	})
	if rc != OK {
		return rc
	}
	if res == session.StepProduced {
		return TokenProduced
	}
	return TokenEnded
}

// RequestCancel asks the active generation to stop. It does not wait for the
// bridge lock.
func (b *Bridge) RequestCancel() {
	if b.rt != nil {
		b.rt.Generation().Cancel()
	}
}

// EndGeneration ends the session; safe in any state.
func (b *Bridge) EndGeneration() {
	b.read(func(rt *session.Runtime) { rt.Generation().End() })
}

// LastFragment returns the text of the most recent produced token.
func (b *Bridge) LastFragment() string {
	var s string
	b.read(func(rt *session.Runtime) { s = rt.Generation().LastFragment() })
	return s
}

// AccumulatedOutput returns the text produced since the last begin.
func (b *Bridge) AccumulatedOutput() string {
	var s string
	b.read(func(rt *session.Runtime) { s = rt.Generation().Output() })
	return s
}

// Generate runs begin, up to nPredict steps and end in one call.
func (b *Bridge) Generate(prompt string, nPredict int32, p session.SamplerParams) int32 {
	return b.GenerateStream(context.Background(), prompt, nPredict, p, nil)
}

// GenerateStream is Generate with a per-fragment callback; ctx cancellation
// stops the run gracefully.
func (b *Bridge) GenerateStream(ctx context.Context, prompt string, nPredict int32, p session.SamplerParams, onToken func(string) error) int32 {
	return b.call(func(rt *session.Runtime) error {
		return rt.Generation().Run(ctx, session.GenerateParams{Prompt: prompt, SamplerParams: p}, int(nPredict), onToken)
	})
}

// ContextSize returns the loaded context window, 0 when unloaded.
func (b *Bridge) ContextSize() int32 {
	var n int
	b.read(func(rt *session.Runtime) { n = rt.ContextSize() })
	return int32(n)
}

// Probe refreshes backend enumeration and returns 1 when an accelerator is
// present.
func (b *Bridge) Probe() int32 {
	var acc bool
	b.read(func(rt *session.Runtime) {
		b.backendsJSON = marshal(nonNil(rt.ProbeBackends()), "[]")
		acc = rt.Accelerated()
	})
	return boolCode(acc)
}

// Accelerated returns the result of the last probe without refreshing it.
func (b *Bridge) Accelerated() int32 {
	var acc bool
	b.read(func(rt *session.Runtime) { acc = rt.Accelerated() })
	return boolCode(acc)
}

// BackendLabelsJSON returns the labels recorded by the last Init, Probe or
// LoadModel as a JSON array; "[]" after UnloadModel and Shutdown.
func (b *Bridge) BackendLabelsJSON() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backendsJSON
}

// ModelMetadataJSON returns the loaded model's metadata as a JSON object with
// sorted keys.
func (b *Bridge) ModelMetadataJSON() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rt == nil || !b.rt.Loaded() {
		return "{}"
	}
	return b.metadataJSON
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
