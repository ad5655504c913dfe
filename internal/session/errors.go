package session

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Each kind maps to exactly one boundary status code.
type Kind int

const (
	KindNone Kind = iota
	KindNotLoaded
	KindEmptyInput
	KindSizeMismatch
	KindModelLoad
	KindContextInit
	KindProjectorLoad
	KindProjectorNotLoaded
	KindTokenize
	KindDecode
	KindSamplerInit
	KindSampling
	KindConversion
	KindMediaDecode
	KindSessionNotActive
)

var kindNames = map[Kind]string{
	KindNone:               "none",
	KindNotLoaded:          "not_loaded",
	KindEmptyInput:         "empty_input",
	KindSizeMismatch:       "size_mismatch",
	KindModelLoad:          "model_load",
	KindContextInit:        "context_init",
	KindProjectorLoad:      "projector_load",
	KindProjectorNotLoaded: "projector_not_loaded",
	KindTokenize:           "tokenize",
	KindDecode:             "decode",
	KindSamplerInit:        "sampler_init",
	KindSampling:           "sampling",
	KindConversion:         "conversion",
	KindMediaDecode:        "media_decode",
	KindSessionNotActive:   "session_not_active",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the only error type returned by Runtime and Generation methods.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind carried by err, KindNone for nil or foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// IsNotLoaded reports whether err indicates a missing model or context.
func IsNotLoaded(err error) bool { return KindOf(err) == KindNotLoaded }

// IsEmptyInput reports whether err indicates an empty path, prompt or buffer.
func IsEmptyInput(err error) bool { return KindOf(err) == KindEmptyInput }

// IsSessionNotActive reports whether err indicates a step without Begin.
func IsSessionNotActive(err error) bool { return KindOf(err) == KindSessionNotActive }

// IsLoadFailure reports whether the engine rejected a model or projector file.
func IsLoadFailure(err error) bool {
	k := KindOf(err)
	return k == KindModelLoad || k == KindProjectorLoad || k == KindContextInit
}
