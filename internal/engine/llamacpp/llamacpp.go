//go:build llama

package llamacpp

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include "llama.h"
#include "ggml-backend.h"
#include "mtmd.h"
#include "mtmd-helper.h"

extern bool llamabridge_abort(void * data);

static int32_t lb_decode(struct llama_context * ctx, llama_token * tokens, int32_t n) {
	return llama_decode(ctx, llama_batch_get_one(tokens, n));
}
*/
import "C"

import (
	"errors"
	"runtime/cgo"
	"unsafe"

	"llamabridge/internal/engine"
)

// Available reports whether this binary links llama.cpp.
const Available = true

type llamaEngine struct{}

// New returns the llama.cpp engine. Backend state is initialized lazily by
// BackendInit.
func New() (engine.Engine, error) { return &llamaEngine{}, nil }

func (e *llamaEngine) BackendInit()     { C.llama_backend_init() }
func (e *llamaEngine) BackendFree()     { C.llama_backend_free() }
func (e *llamaEngine) LoadAllBackends() { C.ggml_backend_load_all() }

func (e *llamaEngine) Devices() []engine.Device {
	n := int(C.ggml_backend_dev_count())
	out := make([]engine.Device, 0, n)
	for i := 0; i < n; i++ {
		dev := C.ggml_backend_dev_get(C.size_t(i))
		if dev == nil {
			continue
		}
		d := engine.Device{Name: C.GoString(C.ggml_backend_dev_name(dev))}
		if reg := C.ggml_backend_dev_backend_reg(dev); reg != nil {
			d.Registry = C.GoString(C.ggml_backend_reg_name(reg))
		}
		out = append(out, d)
	}
	return out
}

func (e *llamaEngine) LoadModel(path string, p engine.ModelParams) (engine.Model, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	mp := C.llama_model_default_params()
	mp.n_gpu_layers = C.int32_t(p.GPULayers)
	mp.use_mmap = C.bool(p.UseMmap)
	mp.use_mlock = C.bool(p.UseMlock)
	mp.vocab_only = C.bool(p.VocabOnly)
	m := C.llama_model_load_from_file(cpath, mp)
	if m == nil {
		return nil, errors.New("llama_model_load_from_file failed")
	}
	return &model{m: m}, nil
}

func (e *llamaEngine) LoadProjector(path string, m engine.Model, p engine.ProjectorParams) (engine.Projector, error) {
	lm, ok := m.(*model)
	if !ok || lm.m == nil {
		return nil, errors.New("projector requires a llama.cpp model")
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	mp := C.mtmd_context_params_default()
	mp.use_gpu = C.bool(p.UseGPU)
	mp.print_timings = C.bool(p.PrintTimings)
	mp.n_threads = C.int(p.NThreads)
	c := C.mtmd_init_from_file(cpath, lm.m, mp)
	if c == nil {
		return nil, errors.New("mtmd_init_from_file failed")
	}
	return &projector{c: c}, nil
}

func (e *llamaEngine) NewSamplerChain() (engine.Sampler, error) {
	s := C.llama_sampler_chain_init(C.llama_sampler_chain_default_params())
	if s == nil {
		return nil, errors.New("llama_sampler_chain_init failed")
	}
	return &sampler{s: s}, nil
}

func (e *llamaEngine) PenaltiesSampler(lastN int32, repeat, freq, present float32) engine.Sampler {
	return &sampler{s: C.llama_sampler_init_penalties(C.int32_t(lastN), C.float(repeat), C.float(freq), C.float(present))}
}

func (e *llamaEngine) TopKSampler(k int32) engine.Sampler {
	return &sampler{s: C.llama_sampler_init_top_k(C.int32_t(k))}
}

func (e *llamaEngine) TopPSampler(p float32, minKeep int) engine.Sampler {
	return &sampler{s: C.llama_sampler_init_top_p(C.float(p), C.size_t(minKeep))}
}

func (e *llamaEngine) TempSampler(t float32) engine.Sampler {
	return &sampler{s: C.llama_sampler_init_temp(C.float(t))}
}

func (e *llamaEngine) DistSampler(seed uint32) engine.Sampler {
	return &sampler{s: C.llama_sampler_init_dist(C.uint32_t(seed))}
}

func (e *llamaEngine) GrammarSampler(v engine.Vocab, grammar, root string) (engine.Sampler, error) {
	lv, ok := v.(vocab)
	if !ok {
		return nil, errors.New("grammar requires a llama.cpp vocabulary")
	}
	cg := C.CString(grammar)
	defer C.free(unsafe.Pointer(cg))
	cr := C.CString(root)
	defer C.free(unsafe.Pointer(cr))
	s := C.llama_sampler_init_grammar(lv.v, cg, cr)
	if s == nil {
		return nil, errors.New("llama_sampler_init_grammar rejected the grammar")
	}
	return &sampler{s: s}, nil
}

type model struct {
	m *C.struct_llama_model
}

func (m *model) Vocab() engine.Vocab { return vocab{v: C.llama_model_get_vocab(m.m)} }

func (m *model) DefaultContextParams() engine.ContextParams {
	cp := C.llama_context_default_params()
	return engine.ContextParams{
		NCtx:          uint32(cp.n_ctx),
		NBatch:        uint32(cp.n_batch),
		NUBatch:       uint32(cp.n_ubatch),
		NThreads:      int32(cp.n_threads),
		NThreadsBatch: int32(cp.n_threads_batch),
		OffloadKQV:    bool(cp.offload_kqv),
		OpOffload:     bool(cp.op_offload),
		NoPerf:        bool(cp.no_perf),
	}
}

func (m *model) NewContext(p engine.ContextParams) (engine.Context, error) {
	cp := C.llama_context_default_params()
	cp.n_ctx = C.uint32_t(p.NCtx)
	cp.n_batch = C.uint32_t(p.NBatch)
	cp.n_ubatch = C.uint32_t(p.NUBatch)
	cp.n_threads = C.int32_t(p.NThreads)
	cp.n_threads_batch = C.int32_t(p.NThreadsBatch)
	cp.offload_kqv = C.bool(p.OffloadKQV)
	cp.op_offload = C.bool(p.OpOffload)
	cp.no_perf = C.bool(p.NoPerf)
	c := C.llama_init_from_model(m.m, cp)
	if c == nil {
		return nil, errors.New("llama_init_from_model failed")
	}
	return &ctxHandle{c: c}, nil
}

func (m *model) MetaCount() int32 { return int32(C.llama_model_meta_count(m.m)) }

func (m *model) MetaKeyByIndex(i int32, buf []byte) int32 {
	if len(buf) == 0 {
		return -1
	}
	return int32(C.llama_model_meta_key_by_index(m.m, C.int32_t(i), (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf))))
}

func (m *model) MetaValueByIndex(i int32, buf []byte) int32 {
	if len(buf) == 0 {
		return -1
	}
	return int32(C.llama_model_meta_val_str_by_index(m.m, C.int32_t(i), (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf))))
}

func (m *model) Free() {
	if m.m != nil {
		C.llama_model_free(m.m)
		m.m = nil
	}
}

type vocab struct {
	v *C.struct_llama_vocab
}

func (v vocab) Tokenize(text string, out []engine.Token, addSpecial, parseSpecial bool) int32 {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	var ptr *C.llama_token
	if len(out) > 0 {
		ptr = (*C.llama_token)(unsafe.Pointer(&out[0]))
	}
	return int32(C.llama_tokenize(v.v, ctext, C.int32_t(len(text)), ptr, C.int32_t(len(out)), C.bool(addSpecial), C.bool(parseSpecial)))
}

func (v vocab) TokenToPiece(tok engine.Token, buf []byte, lstrip int32, special bool) int32 {
	var ptr *C.char
	if len(buf) > 0 {
		ptr = (*C.char)(unsafe.Pointer(&buf[0]))
	}
	return int32(C.llama_token_to_piece(v.v, C.llama_token(tok), ptr, C.int32_t(len(buf)), C.int32_t(lstrip), C.bool(special)))
}

func (v vocab) IsEOG(tok engine.Token) bool { return bool(C.llama_vocab_is_eog(v.v, C.llama_token(tok))) }
func (v vocab) BOS() engine.Token           { return engine.Token(C.llama_vocab_bos(v.v)) }
func (v vocab) EOS() engine.Token           { return engine.Token(C.llama_vocab_eos(v.v)) }

type ctxHandle struct {
	c *C.struct_llama_context
	// abortData is C memory holding the cgo.Handle of the abort poll.
	abortData unsafe.Pointer
	abort     cgo.Handle
}

func (c *ctxHandle) NCtx() uint32    { return uint32(C.llama_n_ctx(c.c)) }
func (c *ctxHandle) NBatch() uint32  { return uint32(C.llama_n_batch(c.c)) }
func (c *ctxHandle) NThreads() int32 { return int32(C.llama_n_threads(c.c)) }

func (c *ctxHandle) Decode(tokens []engine.Token) int32 {
	if len(tokens) == 0 {
		return -1
	}
	return int32(C.lb_decode(c.c, (*C.llama_token)(unsafe.Pointer(&tokens[0])), C.int32_t(len(tokens))))
}

func (c *ctxHandle) ClearMemory() { C.llama_memory_clear(C.llama_get_memory(c.c), false) }

func (c *ctxHandle) SetAbortCallback(fn func() bool) {
	c.releaseAbort()
	if fn == nil {
		C.llama_set_abort_callback(c.c, nil, nil)
		return
	}
	c.abort = cgo.NewHandle(fn)
	c.abortData = C.malloc(C.size_t(unsafe.Sizeof(C.uintptr_t(0))))
	*(*C.uintptr_t)(c.abortData) = C.uintptr_t(c.abort)
	C.llama_set_abort_callback(c.c, C.ggml_abort_callback(C.llamabridge_abort), c.abortData)
}

func (c *ctxHandle) releaseAbort() {
	if c.abortData != nil {
		C.free(c.abortData)
		c.abortData = nil
		c.abort.Delete()
	}
}

func (c *ctxHandle) Free() {
	if c.c != nil {
		C.llama_free(c.c)
		c.c = nil
	}
	c.releaseAbort()
}

type sampler struct {
	s *C.struct_llama_sampler
	// owned stages are freed by their chain
	owned bool
}

func (s *sampler) Add(child engine.Sampler) {
	cs, ok := child.(*sampler)
	if !ok || cs.s == nil {
		return
	}
	C.llama_sampler_chain_add(s.s, cs.s)
	cs.owned = true
}

func (s *sampler) Sample(ctx engine.Context, idx int32) engine.Token {
	c, ok := ctx.(*ctxHandle)
	if !ok || c.c == nil || s.s == nil {
		return engine.TokenNull
	}
	return engine.Token(C.llama_sampler_sample(s.s, c.c, C.int32_t(idx)))
}

func (s *sampler) Free() {
	if s.s != nil && !s.owned {
		C.llama_sampler_free(s.s)
	}
	s.s = nil
}

type projector struct {
	c *C.mtmd_context
}

func (p *projector) DefaultMarker() string { return C.GoString(C.mtmd_default_marker()) }
func (p *projector) SupportsVision() bool  { return bool(C.mtmd_support_vision(p.c)) }
func (p *projector) SupportsAudio() bool   { return bool(C.mtmd_support_audio(p.c)) }

func wrapBitmap(b *C.mtmd_bitmap, what string) (engine.Bitmap, error) {
	if b == nil {
		return nil, errors.New(what + " failed")
	}
	return &bitmap{b: b}, nil
}

func (p *projector) BitmapFromFile(path string) (engine.Bitmap, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return wrapBitmap(C.mtmd_helper_bitmap_init_from_file(p.c, cpath), "mtmd_helper_bitmap_init_from_file")
}

func (p *projector) BitmapFromBuffer(b []byte) (engine.Bitmap, error) {
	if len(b) == 0 {
		return nil, errors.New("empty media buffer")
	}
	return wrapBitmap(C.mtmd_helper_bitmap_init_from_buf(p.c, (*C.uchar)(unsafe.Pointer(&b[0])), C.size_t(len(b))), "mtmd_helper_bitmap_init_from_buf")
}

func (p *projector) BitmapFromRGB(width, height uint32, rgb []byte) (engine.Bitmap, error) {
	if len(rgb) == 0 {
		return nil, errors.New("empty rgb payload")
	}
	return wrapBitmap(C.mtmd_bitmap_init(C.uint32_t(width), C.uint32_t(height), (*C.uchar)(unsafe.Pointer(&rgb[0]))), "mtmd_bitmap_init")
}

func (p *projector) BitmapFromAudio(samples []float32) (engine.Bitmap, error) {
	if len(samples) == 0 {
		return nil, errors.New("empty audio payload")
	}
	return wrapBitmap(C.mtmd_bitmap_init_from_audio(C.size_t(len(samples)), (*C.float)(unsafe.Pointer(&samples[0]))), "mtmd_bitmap_init_from_audio")
}

func (p *projector) Tokenize(text engine.InputText, media []engine.Bitmap) (engine.Chunks, int32) {
	ch := C.mtmd_input_chunks_init()
	if ch == nil {
		return nil, -1
	}
	ctext := C.CString(text.Text)
	defer C.free(unsafe.Pointer(ctext))
	in := C.mtmd_input_text{
		text:          ctext,
		add_special:   C.bool(text.AddSpecial),
		parse_special: C.bool(text.ParseSpecial),
	}
	bms := make([]*C.mtmd_bitmap, 0, len(media))
	for _, m := range media {
		if b, ok := m.(*bitmap); ok && b.b != nil {
			bms = append(bms, b.b)
		}
	}
	var bp **C.mtmd_bitmap
	if len(bms) > 0 {
		bp = &bms[0]
	}
	rc := int32(C.mtmd_tokenize(p.c, ch, &in, bp, C.size_t(len(bms))))
	if rc != 0 {
		C.mtmd_input_chunks_free(ch)
		return nil, rc
	}
	return &chunks{c: ch}, 0
}

func (p *projector) EvalChunks(ctx engine.Context, ch engine.Chunks, nPast, seq, nBatch int32, logitsLast bool) (int32, int32) {
	c, ok := ctx.(*ctxHandle)
	cc, ok2 := ch.(*chunks)
	if !ok || !ok2 || c.c == nil || cc.c == nil {
		return nPast, -1
	}
	var newPast C.llama_pos
	rc := C.mtmd_helper_eval_chunks(p.c, c.c, cc.c, C.llama_pos(nPast), C.llama_seq_id(seq), C.int32_t(nBatch), C.bool(logitsLast), &newPast)
	return int32(newPast), int32(rc)
}

func (p *projector) Free() {
	if p.c != nil {
		C.mtmd_free(p.c)
		p.c = nil
	}
}

type bitmap struct {
	b *C.mtmd_bitmap
}

func (b *bitmap) Free() {
	if b.b != nil {
		C.mtmd_bitmap_free(b.b)
		b.b = nil
	}
}

type chunks struct {
	c *C.mtmd_input_chunks
}

func (c *chunks) Free() {
	if c.c != nil {
		C.mtmd_input_chunks_free(c.c)
		c.c = nil
	}
}

var _ engine.Engine = (*llamaEngine)(nil)
