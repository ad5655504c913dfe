//go:build cgo

package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"

	"llamabridge/internal/bridge"
	"llamabridge/internal/engine/llamacpp"
	"llamabridge/internal/session"
)

func init() {
	if lvl, err := zerolog.ParseLevel(os.Getenv("LLAMABRIDGE_LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		session.SetLogger(zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger())
	}
	eng, err := llamacpp.New()
	if err != nil {
		bridge.SetDefault(bridge.Unavailable(err))
		return
	}
	bridge.SetDefault(bridge.New(session.New(eng)))
}

// C copies of string results, one per kind; replacing one frees the previous.
var (
	slotMu sync.Mutex
	slots  = map[string]*C.char{}
)

func cslot(kind, s string) *C.char {
	slotMu.Lock()
	defer slotMu.Unlock()
	if old := slots[kind]; old != nil {
		C.free(unsafe.Pointer(old))
	}
	p := C.CString(s)
	slots[kind] = p
	return p
}

func gostr(p *C.char) string {
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

func gobytes(data *C.uint8_t, n C.size_t) []byte {
	return copyBytes(unsafe.Pointer(data), uint64(n))
}

func sampler(temp C.float, topK C.int32_t, topP, repeat C.float, grammar *C.char, seed C.uint32_t) session.SamplerParams {
	return session.SamplerParams{
		Temperature:   float32(temp),
		TopK:          int32(topK),
		TopP:          float32(topP),
		RepeatPenalty: float32(repeat),
		Grammar:       gostr(grammar),
		Seed:          uint32(seed),
	}
}

//export lb_init
func lb_init() C.int32_t { return C.int32_t(bridge.Default().Init()) }

//export lb_shutdown
func lb_shutdown() { bridge.Default().Shutdown() }

//export lb_last_error
func lb_last_error() *C.char { return cslot("error", bridge.Default().LastError()) }

//export lb_load_model
func lb_load_model(path *C.char, nCtx, nThreads, nGPULayers C.int32_t) C.int32_t {
	return C.int32_t(bridge.Default().LoadModel(gostr(path), int32(nCtx), int32(nThreads), int32(nGPULayers)))
}

//export lb_unload_model
func lb_unload_model() { bridge.Default().UnloadModel() }

//export lb_load_mmproj
func lb_load_mmproj(path *C.char) C.int32_t {
	return C.int32_t(bridge.Default().LoadProjector(gostr(path)))
}

//export lb_unload_mmproj
func lb_unload_mmproj() { bridge.Default().UnloadProjector() }

//export lb_supports_vision
func lb_supports_vision() C.int32_t { return C.int32_t(bridge.Default().SupportsVision()) }

//export lb_supports_audio
func lb_supports_audio() C.int32_t { return C.int32_t(bridge.Default().SupportsAudio()) }

//export lb_add_media_file
func lb_add_media_file(path *C.char) C.int32_t {
	return C.int32_t(bridge.Default().AddMediaFile(gostr(path)))
}

//export lb_add_media_encoded
func lb_add_media_encoded(data *C.uint8_t, n C.size_t) C.int32_t {
	return C.int32_t(bridge.Default().AddMediaEncoded(gobytes(data, n)))
}

//export lb_add_media_rgb
func lb_add_media_rgb(width, height C.uint32_t, data *C.uint8_t, n C.size_t) C.int32_t {
	return C.int32_t(bridge.Default().AddMediaRGB(uint32(width), uint32(height), gobytes(data, n)))
}

//export lb_add_media_audio
func lb_add_media_audio(samples *C.float, n C.size_t) C.int32_t {
	return C.int32_t(bridge.Default().AddMediaAudio(copyFloats(unsafe.Pointer(samples), uint64(n))))
}

//export lb_clear_media
func lb_clear_media() { bridge.Default().ClearPendingMedia() }

//export lb_pending_media
func lb_pending_media() C.int32_t { return C.int32_t(bridge.Default().PendingMedia()) }

//export lb_tokenize
func lb_tokenize(text *C.char, addSpecial C.int32_t) C.int32_t {
	return C.int32_t(bridge.Default().Tokenize(gostr(text), addSpecial != 0))
}

//export lb_last_tokens_json
func lb_last_tokens_json() *C.char { return cslot("tokens", bridge.Default().LastTokensJSON()) }

//export lb_detokenize
func lb_detokenize(tokens *C.char, special C.int32_t) C.int32_t {
	return C.int32_t(bridge.Default().Detokenize(gostr(tokens), special != 0))
}

//export lb_last_detokenized
func lb_last_detokenized() *C.char { return cslot("detokenized", bridge.Default().LastDetokenized()) }

//export lb_begin
func lb_begin(prompt *C.char, temp C.float, topK C.int32_t, topP, repeat C.float, grammar *C.char, seed C.uint32_t) C.int32_t {
	return C.int32_t(bridge.Default().BeginGeneration(gostr(prompt), sampler(temp, topK, topP, repeat, grammar, seed)))
}

//export lb_next_token
func lb_next_token() C.int32_t { return C.int32_t(bridge.Default().NextToken()) }

//export lb_request_cancel
func lb_request_cancel() { bridge.Default().RequestCancel() }

//export lb_end
func lb_end() { bridge.Default().EndGeneration() }

//export lb_last_fragment
func lb_last_fragment() *C.char { return cslot("fragment", bridge.Default().LastFragment()) }

//export lb_accumulated_output
func lb_accumulated_output() *C.char { return cslot("output", bridge.Default().AccumulatedOutput()) }

//export lb_generate
func lb_generate(prompt *C.char, nPredict C.int32_t, temp C.float, topK C.int32_t, topP, repeat C.float, grammar *C.char, seed C.uint32_t) C.int32_t {
	return C.int32_t(bridge.Default().Generate(gostr(prompt), int32(nPredict), sampler(temp, topK, topP, repeat, grammar, seed)))
}

//export lb_context_size
func lb_context_size() C.int32_t { return C.int32_t(bridge.Default().ContextSize()) }

//export lb_probe
func lb_probe() C.int32_t { return C.int32_t(bridge.Default().Probe()) }

//export lb_backend_labels_json
func lb_backend_labels_json() *C.char { return cslot("backends", bridge.Default().BackendLabelsJSON()) }

//export lb_model_metadata_json
func lb_model_metadata_json() *C.char { return cslot("metadata", bridge.Default().ModelMetadataJSON()) }
