// Package enginetest provides a scriptable in-memory engine for tests.
//
// The vocabulary is byte level: every byte b maps to token ByteOffset+b, plus a
// handful of special ids. Sampling replays Script and yields EOS once the script
// is exhausted. Every allocation and release is appended to Calls so tests can
// assert on ordering.
package enginetest

import (
	"errors"
	"os"
	"strings"

	"llamabridge/internal/engine"
)

// Special token ids.
const (
	BOS       engine.Token = 1
	EOS       engine.Token = 2
	EOT       engine.Token = 3
	LongPiece engine.Token = 4
	// ByteOffset is added to a byte value to form its token.
	ByteOffset engine.Token = 16
)

// LongPieceText is the text of LongPiece; longer than the initial piece buffer.
var LongPieceText = strings.Repeat("~", 300)

// FakeImagePrefix marks buffers BitmapFromBuffer accepts.
const FakeImagePrefix = "FAKEIMG"

// Pieces returns the byte tokens spelling s.
func Pieces(s string) []engine.Token {
	out := make([]engine.Token, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, ByteOffset+engine.Token(s[i]))
	}
	return out
}

// Engine implements engine.Engine.
type Engine struct {
	// Failure injection.
	FailModelLoad    bool
	FailContext      bool
	FailProjector    bool
	FailSamplerChain bool
	RejectGrammar    bool
	FailTokenize     bool
	// DecodeFailAt fails the n-th Decode call (1-based); 0 never fails.
	DecodeFailAt int
	// ProjectorEvalRC is returned by EvalChunks.
	ProjectorEvalRC int32

	// Behaviour.
	Script        []engine.Token
	DeviceList    []engine.Device
	Meta          [][2]string
	DefaultNCtx   uint32
	DefaultNBatch uint32
	Marker        string
	Vision        bool
	Audio         bool
	// OnDecode runs at the start of every Decode call.
	OnDecode func(n int)

	// Observations.
	Calls             []string
	Decoded           [][]engine.Token
	Stages            []string
	ModelPath         string
	ModelParams       engine.ModelParams
	ContextParams     engine.ContextParams
	ProjectorParams   engine.ProjectorParams
	MultimodalText    engine.InputText
	MultimodalMedia   int
	MemoryClears      int
	decodes           int
	sampled           int
	abort             func() bool
	liveModels        int
	liveContexts      int
	liveBitmaps       int
	liveSamplerChains int
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine with a 4096-token default context and WebGPU-like
// devices.
func New() *Engine {
	return &Engine{
		DefaultNCtx:   4096,
		DefaultNBatch: 2048,
		Marker:        engine.DefaultMarker,
		Vision:        true,
		DeviceList: []engine.Device{
			{Name: "CPU", Registry: "CPU"},
			{Name: "WebGPU Adapter", Registry: "WebGPU"},
		},
		Meta: [][2]string{
			{"general.architecture", "llama"},
			{"general.name", "tiny"},
		},
	}
}

func (e *Engine) log(s string) { e.Calls = append(e.Calls, s) }

// Live reports allocated handles that have not been freed.
func (e *Engine) Live() (models, contexts, bitmaps, samplers int) {
	return e.liveModels, e.liveContexts, e.liveBitmaps, e.liveSamplerChains
}

// Aborting reports what the registered abort callback currently returns.
func (e *Engine) Aborting() bool { return e.abort != nil && e.abort() }

func (e *Engine) BackendInit()     { e.log("backend:init") }
func (e *Engine) BackendFree()     { e.log("backend:free") }
func (e *Engine) LoadAllBackends() { e.log("backend:load_all") }

func (e *Engine) Devices() []engine.Device {
	return append([]engine.Device(nil), e.DeviceList...)
}

func (e *Engine) LoadModel(path string, p engine.ModelParams) (engine.Model, error) {
	e.ModelPath, e.ModelParams = path, p
	if e.FailModelLoad {
		return nil, errors.New("fake: model rejected")
	}
	e.log("load:model")
	e.liveModels++
	return &model{e: e}, nil
}

func (e *Engine) LoadProjector(path string, m engine.Model, p engine.ProjectorParams) (engine.Projector, error) {
	e.ProjectorParams = p
	if e.FailProjector {
		return nil, errors.New("fake: projector rejected")
	}
	e.log("load:projector")
	return &projector{e: e}, nil
}

func (e *Engine) NewSamplerChain() (engine.Sampler, error) {
	if e.FailSamplerChain {
		return nil, errors.New("fake: chain init failed")
	}
	e.Stages = nil
	e.liveSamplerChains++
	return &chain{e: e}, nil
}

func (e *Engine) PenaltiesSampler(lastN int32, repeat, freq, present float32) engine.Sampler {
	return stage("penalties")
}
func (e *Engine) TopKSampler(k int32) engine.Sampler              { return stage("top_k") }
func (e *Engine) TopPSampler(p float32, minKeep int) engine.Sampler { return stage("top_p") }
func (e *Engine) TempSampler(t float32) engine.Sampler             { return stage("temp") }
func (e *Engine) DistSampler(seed uint32) engine.Sampler           { return stage("dist") }

func (e *Engine) GrammarSampler(v engine.Vocab, grammar, root string) (engine.Sampler, error) {
	if e.RejectGrammar {
		return nil, errors.New("fake: grammar rejected")
	}
	return stage("grammar"), nil
}

type stage string

func (s stage) Add(engine.Sampler)                      {}
func (s stage) Sample(engine.Context, int32) engine.Token { return engine.TokenNull }
func (s stage) Free()                                   {}

type chain struct {
	e     *Engine
	freed bool
}

func (c *chain) Add(s engine.Sampler) {
	if st, ok := s.(stage); ok {
		c.e.Stages = append(c.e.Stages, string(st))
	}
}

func (c *chain) Sample(ctx engine.Context, idx int32) engine.Token {
	e := c.e
	if e.sampled >= len(e.Script) {
		return EOS
	}
	t := e.Script[e.sampled]
	e.sampled++
	return t
}

func (c *chain) Free() {
	if c.freed {
		return
	}
	c.freed = true
	c.e.liveSamplerChains--
	c.e.log("free:sampler")
}

type model struct {
	e *Engine
}

func (m *model) Vocab() engine.Vocab { return vocab{e: m.e} }

func (m *model) DefaultContextParams() engine.ContextParams {
	return engine.ContextParams{NCtx: m.e.DefaultNCtx, NBatch: m.e.DefaultNBatch, NUBatch: 512, NThreads: 4, NThreadsBatch: 4}
}

func (m *model) NewContext(p engine.ContextParams) (engine.Context, error) {
	m.e.ContextParams = p
	if m.e.FailContext {
		return nil, errors.New("fake: context init failed")
	}
	m.e.log("new:context")
	m.e.liveContexts++
	return &ctxHandle{e: m.e, p: p}, nil
}

func (m *model) MetaCount() int32 { return int32(len(m.e.Meta)) }

func (m *model) MetaKeyByIndex(i int32, buf []byte) int32 {
	if i < 0 || int(i) >= len(m.e.Meta) {
		return -1
	}
	return snprintf(buf, m.e.Meta[i][0])
}

func (m *model) MetaValueByIndex(i int32, buf []byte) int32 {
	if i < 0 || int(i) >= len(m.e.Meta) {
		return -1
	}
	return snprintf(buf, m.e.Meta[i][1])
}

func (m *model) Free() {
	m.e.liveModels--
	m.e.log("free:model")
}

// snprintf copies what fits plus a NUL and returns the full length.
func snprintf(buf []byte, s string) int32 {
	if len(buf) == 0 {
		return int32(len(s))
	}
	n := copy(buf[:len(buf)-1], s)
	buf[n] = 0
	return int32(len(s))
}

type vocab struct{ e *Engine }

func (v vocab) Tokenize(text string, out []engine.Token, addSpecial, parseSpecial bool) int32 {
	if v.e.FailTokenize {
		return -1
	}
	toks := Pieces(text)
	if addSpecial {
		toks = append([]engine.Token{BOS}, toks...)
	}
	if len(out) < len(toks) {
		return -int32(len(toks))
	}
	return int32(copy(out, toks))
}

func (v vocab) TokenToPiece(tok engine.Token, buf []byte, lstrip int32, special bool) int32 {
	var s string
	switch {
	case tok >= ByteOffset && tok < ByteOffset+256:
		s = string([]byte{byte(tok - ByteOffset)})
	case tok == LongPiece:
		s = LongPieceText
	case tok == BOS && special:
		s = "<s>"
	case (tok == EOS || tok == EOT) && special:
		s = "</s>"
	}
	if len(buf) < len(s) {
		return -int32(len(s))
	}
	return int32(copy(buf, s))
}

func (v vocab) IsEOG(tok engine.Token) bool { return tok == EOS || tok == EOT }
func (v vocab) BOS() engine.Token           { return BOS }
func (v vocab) EOS() engine.Token           { return EOS }

type ctxHandle struct {
	e *Engine
	p engine.ContextParams
}

func (c *ctxHandle) NCtx() uint32    { return c.p.NCtx }
func (c *ctxHandle) NBatch() uint32  { return c.p.NBatch }
func (c *ctxHandle) NThreads() int32 { return c.p.NThreads }

func (c *ctxHandle) Decode(tokens []engine.Token) int32 {
	e := c.e
	e.decodes++
	if e.OnDecode != nil {
		e.OnDecode(e.decodes)
	}
	if e.abort != nil && e.abort() {
		return 2
	}
	if e.DecodeFailAt > 0 && e.decodes == e.DecodeFailAt {
		return -1
	}
	e.Decoded = append(e.Decoded, append([]engine.Token(nil), tokens...))
	return 0
}

func (c *ctxHandle) ClearMemory()                   { c.e.MemoryClears++ }
func (c *ctxHandle) SetAbortCallback(fn func() bool) { c.e.abort = fn }

func (c *ctxHandle) Free() {
	c.e.liveContexts--
	c.e.abort = nil
	c.e.log("free:context")
}

type projector struct{ e *Engine }

func (p *projector) DefaultMarker() string { return p.e.Marker }
func (p *projector) SupportsVision() bool  { return p.e.Vision }
func (p *projector) SupportsAudio() bool   { return p.e.Audio }

func (p *projector) newBitmap() engine.Bitmap {
	p.e.liveBitmaps++
	return &bitmap{e: p.e}
}

func (p *projector) BitmapFromFile(path string) (engine.Bitmap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.BitmapFromBuffer(b)
}

func (p *projector) BitmapFromBuffer(b []byte) (engine.Bitmap, error) {
	if !strings.HasPrefix(string(b), FakeImagePrefix) {
		return nil, errors.New("fake: unsupported media format")
	}
	return p.newBitmap(), nil
}

func (p *projector) BitmapFromRGB(width, height uint32, rgb []byte) (engine.Bitmap, error) {
	if int(width)*int(height)*3 != len(rgb) {
		return nil, errors.New("fake: bad rgb payload")
	}
	return p.newBitmap(), nil
}

func (p *projector) BitmapFromAudio(samples []float32) (engine.Bitmap, error) {
	if !p.e.Audio {
		return nil, errors.New("fake: audio unsupported")
	}
	return p.newBitmap(), nil
}

func (p *projector) Tokenize(text engine.InputText, media []engine.Bitmap) (engine.Chunks, int32) {
	p.e.MultimodalText = text
	p.e.MultimodalMedia = len(media)
	if strings.Count(text.Text, p.e.Marker) != len(media) {
		return nil, 1
	}
	return chunks{}, 0
}

func (p *projector) EvalChunks(ctx engine.Context, ch engine.Chunks, nPast, seq, nBatch int32, logitsLast bool) (int32, int32) {
	if p.e.ProjectorEvalRC != 0 {
		return nPast, p.e.ProjectorEvalRC
	}
	return nPast + int32(len(p.e.MultimodalText.Text)), 0
}

func (p *projector) Free() { p.e.log("free:projector") }

type bitmap struct {
	e     *Engine
	freed bool
}

func (b *bitmap) Free() {
	if b.freed {
		return
	}
	b.freed = true
	b.e.liveBitmaps--
	b.e.log("free:bitmap")
}

type chunks struct{}

func (chunks) Free() {}
