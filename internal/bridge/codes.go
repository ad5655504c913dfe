package bridge

import "llamabridge/internal/session"

// Status codes returned across the boundary. Zero or a positive count means
// success; each negative value names exactly one failure kind.
const (
	OK                       int32 = 0
	CodeNotLoaded            int32 = -1
	CodeEmptyInput           int32 = -2
	CodeSizeMismatch         int32 = -3
	CodeModelLoadFailure     int32 = -4
	CodeContextInitFailure   int32 = -5
	CodeProjectorLoadFailure int32 = -6
	CodeProjectorNotLoaded   int32 = -7
	CodeTokenizeFailure      int32 = -8
	CodeDecodeFailure        int32 = -9
	CodeSamplerInitFailure   int32 = -10
	CodeSamplingFailure      int32 = -11
	CodeConversionFailure    int32 = -12
	CodeMediaDecodeFailure   int32 = -13
	CodeSessionNotActive     int32 = -14
)

// NextToken results.
const (
	TokenEnded    int32 = 0
	TokenProduced int32 = 1
)

// Code maps err to its status code. A nil error is OK; errors that carry no
// session kind are reported as NotLoaded, the only failure that can happen
// before a runtime exists.
func Code(err error) int32 {
	if err == nil {
		return OK
	}
	switch session.KindOf(err) {
	case session.KindEmptyInput:
		return CodeEmptyInput
	case session.KindSizeMismatch:
		return CodeSizeMismatch
	case session.KindModelLoad:
		return CodeModelLoadFailure
	case session.KindContextInit:
		return CodeContextInitFailure
	case session.KindProjectorLoad:
		return CodeProjectorLoadFailure
	case session.KindProjectorNotLoaded:
		return CodeProjectorNotLoaded
	case session.KindTokenize:
		return CodeTokenizeFailure
	case session.KindDecode:
		return CodeDecodeFailure
	case session.KindSamplerInit:
		return CodeSamplerInitFailure
	case session.KindSampling:
		return CodeSamplingFailure
	case session.KindConversion:
		return CodeConversionFailure
	case session.KindMediaDecode:
		return CodeMediaDecodeFailure
	case session.KindSessionNotActive:
		return CodeSessionNotActive
	default:
		return CodeNotLoaded
	}
}

var codeNames = map[int32]string{
	OK:                       "ok",
	CodeNotLoaded:            "not_loaded",
	CodeEmptyInput:           "empty_input",
	CodeSizeMismatch:         "size_mismatch",
	CodeModelLoadFailure:     "model_load_failure",
	CodeContextInitFailure:   "context_init_failure",
	CodeProjectorLoadFailure: "projector_load_failure",
	CodeProjectorNotLoaded:   "projector_not_loaded",
	CodeTokenizeFailure:      "tokenize_failure",
	CodeDecodeFailure:        "decode_failure",
	CodeSamplerInitFailure:   "sampler_init_failure",
	CodeSamplingFailure:      "sampling_failure",
	CodeConversionFailure:    "conversion_failure",
	CodeMediaDecodeFailure:   "media_decode_failure",
	CodeSessionNotActive:     "session_not_active",
}

// CodeName returns a stable identifier for code. Positive counts are "ok".
func CodeName(code int32) string {
	if code > 0 {
		return "ok"
	}
	if s, ok := codeNames[code]; ok {
		return s
	}
	return "unknown"
}
