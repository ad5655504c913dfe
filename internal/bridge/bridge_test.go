package bridge

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"llamabridge/internal/engine"
	"llamabridge/internal/engine/enginetest"
	"llamabridge/internal/session"
)

func newBridge(t *testing.T) (*Bridge, *enginetest.Engine) {
	t.Helper()
	eng := enginetest.New()
	return New(session.New(eng)), eng
}

func loadedBridge(t *testing.T) (*Bridge, *enginetest.Engine) {
	t.Helper()
	b, eng := newBridge(t)
	if rc := b.LoadModel("tiny.gguf", 0, 0, 0); rc != OK {
		t.Fatalf("load: rc=%d err=%s", rc, b.LastError())
	}
	return b, eng
}

func TestLoadModelEmptyPath(t *testing.T) {
	b, _ := loadedBridge(t)
	if rc := b.LoadModel("", 0, 0, 0); rc != CodeEmptyInput {
		t.Fatalf("rc=%d", rc)
	}
	if b.LastError() == "" {
		t.Fatalf("error slot empty")
	}
	if b.ContextSize() != 4096 {
		t.Fatalf("existing model lost: n_ctx=%d", b.ContextSize())
	}
	if b.ModelMetadataJSON() == "{}" {
		t.Fatalf("metadata lost")
	}
}

func TestLastErrorPersistsUntilNextCall(t *testing.T) {
	b, _ := newBridge(t)
	if rc := b.LoadProjector("p"); rc != CodeNotLoaded {
		t.Fatalf("rc=%d", rc)
	}
	first := b.LastError()
	if first == "" || b.LastError() != first {
		t.Fatalf("reading must not clear: %q", b.LastError())
	}
	if rc := b.LoadModel("m", 0, 0, 0); rc != OK {
		t.Fatalf("load: %d", rc)
	}
	if b.LastError() != "" {
		t.Fatalf("success must clear slot: %q", b.LastError())
	}
}

func TestLoadFailureCodes(t *testing.T) {
	b, eng := newBridge(t)
	eng.FailModelLoad = true
	if rc := b.LoadModel("m", 0, 0, 0); rc != CodeModelLoadFailure {
		t.Fatalf("rc=%d", rc)
	}
	eng.FailModelLoad, eng.FailContext = false, true
	if rc := b.LoadModel("m", 0, 0, 0); rc != CodeContextInitFailure {
		t.Fatalf("rc=%d", rc)
	}
	if b.ContextSize() != 0 || b.ModelMetadataJSON() != "{}" {
		t.Fatalf("partial state after context failure")
	}
}

func TestTokenizeDetokenize(t *testing.T) {
	b, _ := loadedBridge(t)
	n := b.Tokenize("hey", false)
	if n != 3 {
		t.Fatalf("n=%d err=%s", n, b.LastError())
	}
	js := b.LastTokensJSON()
	want := FormatTokenList(enginetest.Pieces("hey"))
	if js != want {
		t.Fatalf("json=%s want %s", js, want)
	}
	if got := b.Detokenize(js, false); got != 3 || b.LastDetokenized() != "hey" {
		t.Fatalf("detok=%d %q", got, b.LastDetokenized())
	}
	if b.Tokenize(b.LastDetokenized(), false) != 3 || b.LastTokensJSON() != js {
		t.Fatalf("token round trip changed: %s", b.LastTokensJSON())
	}
	if got := b.Detokenize("no tokens here", false); got != 0 || b.LastDetokenized() != "" {
		t.Fatalf("empty list: %d %q", got, b.LastDetokenized())
	}
}

func TestTokenizeNotLoaded(t *testing.T) {
	b, _ := newBridge(t)
	if rc := b.Tokenize("x", true); rc != CodeNotLoaded || b.LastTokensJSON() != "[]" {
		t.Fatalf("rc=%d json=%s", rc, b.LastTokensJSON())
	}
	if rc := b.Detokenize("[1]", false); rc != CodeNotLoaded {
		t.Fatalf("rc=%d", rc)
	}
}

func TestNextTokenWithoutBegin(t *testing.T) {
	b, eng := loadedBridge(t)
	eng.Script = enginetest.Pieces("a")
	if rc := b.BeginGeneration("x", session.SamplerParams{}); rc != OK {
		t.Fatalf("begin: %d", rc)
	}
	if rc := b.NextToken(); rc != TokenProduced {
		t.Fatalf("rc=%d", rc)
	}
	b.EndGeneration()
	if rc := b.NextToken(); rc != CodeSessionNotActive {
		t.Fatalf("rc=%d", rc)
	}
	if b.AccumulatedOutput() != "a" {
		t.Fatalf("output=%q", b.AccumulatedOutput())
	}
}

func TestNextTokenWithoutModel(t *testing.T) {
	b, _ := newBridge(t)
	if rc := b.NextToken(); rc != CodeSessionNotActive {
		t.Fatalf("rc=%d", rc)
	}
	if b.LastError() == "" {
		t.Fatalf("expected last error")
	}
}

func TestCancelThenNext(t *testing.T) {
	b, eng := loadedBridge(t)
	eng.Script = enginetest.Pieces("abc")
	if rc := b.BeginGeneration("x", session.SamplerParams{}); rc != OK {
		t.Fatalf("begin: %d", rc)
	}
	if rc := b.NextToken(); rc != TokenProduced || b.LastFragment() != "a" {
		t.Fatalf("rc=%d frag=%q", rc, b.LastFragment())
	}
	b.RequestCancel()
	if rc := b.NextToken(); rc != TokenEnded {
		t.Fatalf("after cancel rc=%d", rc)
	}
	if rc := b.NextToken(); rc != CodeSessionNotActive {
		t.Fatalf("after end rc=%d", rc)
	}
}

func TestGenerationErrorCodes(t *testing.T) {
	b, eng := loadedBridge(t)
	if rc := b.BeginGeneration("", session.SamplerParams{}); rc != CodeEmptyInput {
		t.Fatalf("rc=%d", rc)
	}
	eng.RejectGrammar = true
	if rc := b.BeginGeneration("x", session.SamplerParams{Grammar: "bad"}); rc != CodeSamplerInitFailure {
		t.Fatalf("rc=%d", rc)
	}
	eng.RejectGrammar = false
	eng.Script = []engine.Token{engine.TokenNull}
	if rc := b.BeginGeneration("x", session.SamplerParams{}); rc != OK {
		t.Fatalf("begin: %d", rc)
	}
	if rc := b.NextToken(); rc != CodeSamplingFailure {
		t.Fatalf("rc=%d", rc)
	}
}

func TestGenerate(t *testing.T) {
	b, eng := loadedBridge(t)
	eng.Script = enginetest.Pieces("hello world")
	if rc := b.Generate("x", 5, session.SamplerParams{Temperature: 0.8}); rc != OK {
		t.Fatalf("rc=%d err=%s", rc, b.LastError())
	}
	if b.AccumulatedOutput() != "hello" {
		t.Fatalf("output=%q", b.AccumulatedOutput())
	}
	if rc := b.NextToken(); rc != CodeSessionNotActive {
		t.Fatalf("generate must end the session, rc=%d", rc)
	}
}

func TestRGBSizeMismatch(t *testing.T) {
	b, _ := loadedBridge(t)
	if rc := b.AddMediaRGB(2, 2, make([]byte, 12)); rc != CodeProjectorNotLoaded {
		t.Fatalf("rc=%d", rc)
	}
	if rc := b.LoadProjector("mmproj"); rc != OK {
		t.Fatalf("projector: %d", rc)
	}
	if rc := b.AddMediaRGB(2, 2, make([]byte, 11)); rc != CodeSizeMismatch {
		t.Fatalf("rc=%d", rc)
	}
	if b.PendingMedia() != 0 {
		t.Fatalf("pending=%d", b.PendingMedia())
	}
	if rc := b.AddMediaRGB(0, 2, make([]byte, 6)); rc != CodeEmptyInput {
		t.Fatalf("rc=%d", rc)
	}
}

func TestMultimodalThroughBridge(t *testing.T) {
	b, eng := loadedBridge(t)
	if rc := b.LoadProjector("mmproj"); rc != OK {
		t.Fatalf("projector: %d", rc)
	}
	if b.SupportsVision() != 1 || b.SupportsAudio() != 0 {
		t.Fatalf("capabilities")
	}
	p := filepath.Join(t.TempDir(), "x.img")
	if err := os.WriteFile(p, []byte(enginetest.FakeImagePrefix), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 2; i++ {
		if rc := b.AddMediaFile(p); rc != OK {
			t.Fatalf("add: %d %s", rc, b.LastError())
		}
	}
	if rc := b.AddMediaEncoded([]byte("junk")); rc != CodeMediaDecodeFailure {
		t.Fatalf("rc=%d", rc)
	}
	if rc := b.BeginGeneration("User: describe", session.SamplerParams{}); rc != OK {
		t.Fatalf("begin: %d %s", rc, b.LastError())
	}
	if eng.MultimodalText.Text != "User: <__media__> <__media__>  describe" {
		t.Fatalf("text=%q", eng.MultimodalText.Text)
	}
	b.UnloadProjector()
	if b.SupportsVision() != 0 {
		t.Fatalf("projector still reported")
	}
}

func TestProbeAndJSONSlots(t *testing.T) {
	b, eng := newBridge(t)
	if b.ModelMetadataJSON() != "{}" {
		t.Fatalf("metadata before load: %s", b.ModelMetadataJSON())
	}
	if b.Init() != 1 {
		t.Fatalf("expected accelerator")
	}
	if got := b.BackendLabelsJSON(); got != `["CPU","WebGPU (WebGPU Adapter)"]` {
		t.Fatalf("labels=%s", got)
	}
	eng.Meta = append(eng.Meta, [2]string{"tokenizer.chat_template", "<|user|>{{m}}"})
	if rc := b.LoadModel("m", 0, 0, 0); rc != OK {
		t.Fatalf("load: %d", rc)
	}
	want := `{"general.architecture":"llama","general.name":"tiny","tokenizer.chat_template":"<|user|>{{m}}"}`
	if got := b.ModelMetadataJSON(); got != want {
		t.Fatalf("meta=%s", got)
	}
	if got := b.BackendLabelsJSON(); got != `["CPU","WebGPU (WebGPU Adapter)"]` {
		t.Fatalf("labels after load=%s", got)
	}
	b.UnloadModel()
	if b.ModelMetadataJSON() != "{}" || b.ContextSize() != 0 || b.BackendLabelsJSON() != "[]" {
		t.Fatalf("unload did not reset: labels=%s", b.BackendLabelsJSON())
	}
	eng.DeviceList = nil
	if b.Probe() != 0 || b.BackendLabelsJSON() != "[]" {
		t.Fatalf("empty device list: %s", b.BackendLabelsJSON())
	}
	b.Shutdown()
	if !slices.Contains(eng.Calls, "backend:free") {
		t.Fatalf("shutdown did not free backend")
	}
}

func TestIntrospectionAfterShutdownWithDevices(t *testing.T) {
	b, eng := newBridge(t)
	if b.Init() != 1 {
		t.Fatalf("expected accelerator")
	}
	if rc := b.LoadModel("m", 0, 0, 0); rc != OK {
		t.Fatalf("load: %d", rc)
	}
	b.Shutdown()
	if got := b.BackendLabelsJSON(); got != "[]" {
		t.Fatalf("labels after shutdown=%s", got)
	}
	if b.ModelMetadataJSON() != "{}" || b.ContextSize() != 0 {
		t.Fatalf("shutdown did not reset introspection")
	}
	inits := 0
	for _, c := range eng.Calls {
		if c == "backend:init" {
			inits++
		}
	}
	if inits != 1 || eng.Calls[len(eng.Calls)-1] != "backend:free" {
		t.Fatalf("backend re-initialized after shutdown: %v", eng.Calls)
	}
}

func TestUnavailableBridge(t *testing.T) {
	b := Unavailable(engine.ErrDependencyUnavailable("built without llama"))
	if rc := b.LoadModel("m", 0, 0, 0); rc != CodeNotLoaded {
		t.Fatalf("rc=%d", rc)
	}
	if b.LastError() != "built without llama" {
		t.Fatalf("err=%q", b.LastError())
	}
	if b.ContextSize() != 0 || b.BackendLabelsJSON() != "[]" || b.ModelMetadataJSON() != "{}" {
		t.Fatalf("accessors must stay safe")
	}
	b.RequestCancel()
	b.Shutdown()
}

func TestDefault(t *testing.T) {
	t.Cleanup(func() { SetDefault(nil) })
	SetDefault(nil)
	if rc := Default().NextToken(); rc != CodeNotLoaded {
		t.Fatalf("rc=%d", rc)
	}
	b, _ := newBridge(t)
	SetDefault(b)
	if Default() != b {
		t.Fatalf("SetDefault ignored")
	}
}
