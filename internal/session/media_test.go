package session

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"llamabridge/internal/engine/enginetest"
)

func TestLoadProjectorParams(t *testing.T) {
	rt, eng := loadedRuntime(t)
	wantKind(t, rt.LoadProjector(""), KindEmptyInput)
	if err := rt.LoadProjector("mmproj.gguf"); err != nil {
		t.Fatalf("load projector: %v", err)
	}
	// fake devices include a WebGPU adapter
	if !eng.ProjectorParams.UseGPU || eng.ProjectorParams.NThreads != 4 {
		t.Fatalf("params=%+v", eng.ProjectorParams)
	}
	if !rt.SupportsVision() || rt.SupportsAudio() {
		t.Fatalf("capabilities wrong")
	}
}

func TestLoadProjectorFailure(t *testing.T) {
	rt, eng := loadedRuntime(t)
	eng.FailProjector = true
	wantKind(t, rt.LoadProjector("bad"), KindProjectorLoad)
	if rt.SupportsVision() {
		t.Fatalf("no projector expected")
	}
}

func TestReplacingProjectorDropsMedia(t *testing.T) {
	rt, eng := withProjector(t)
	if err := rt.AddMediaRGB(1, 1, rgb(1, 1)); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := rt.LoadProjector("again.gguf"); err != nil {
		t.Fatalf("reload projector: %v", err)
	}
	if rt.PendingMedia() != 0 {
		t.Fatalf("pending=%d", rt.PendingMedia())
	}
	if _, _, bitmaps, _ := eng.Live(); bitmaps != 0 {
		t.Fatalf("bitmaps leaked: %d", bitmaps)
	}
	rt.UnloadProjector()
	wantKind(t, rt.AddMediaRGB(1, 1, rgb(1, 1)), KindProjectorNotLoaded)
}

func TestAddMediaRGBChecks(t *testing.T) {
	rt := New(enginetest.New())
	wantKind(t, rt.AddMediaRGB(1, 1, rgb(1, 1)), KindNotLoaded)

	rt, _ = loadedRuntime(t)
	wantKind(t, rt.AddMediaRGB(1, 1, rgb(1, 1)), KindProjectorNotLoaded)

	rt, _ = withProjector(t)
	wantKind(t, rt.AddMediaRGB(0, 4, rgb(1, 4)), KindEmptyInput)
	wantKind(t, rt.AddMediaRGB(4, 0, rgb(4, 1)), KindEmptyInput)
	wantKind(t, rt.AddMediaRGB(4, 4, nil), KindEmptyInput)
	wantKind(t, rt.AddMediaRGB(4, 4, rgb(4, 3)), KindSizeMismatch)
	if rt.PendingMedia() != 0 {
		t.Fatalf("failed adds must not stage media")
	}
	if err := rt.AddMediaRGB(4, 4, rgb(4, 4)); err != nil {
		t.Fatalf("valid rgb: %v", err)
	}
	if rt.PendingMedia() != 1 {
		t.Fatalf("pending=%d", rt.PendingMedia())
	}
}

func TestAddMediaEncoded(t *testing.T) {
	rt, _ := withProjector(t)
	wantKind(t, rt.AddMediaEncoded(nil), KindEmptyInput)
	if err := rt.AddMediaEncoded([]byte(enginetest.FakeImagePrefix + "data")); err != nil {
		t.Fatalf("engine-native: %v", err)
	}

	// the fake projector cannot read PNG; the in-process decoder takes over
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatalf("png: %v", err)
	}
	if err := rt.AddMediaEncoded(buf.Bytes()); err != nil {
		t.Fatalf("fallback decode: %v", err)
	}
	wantKind(t, rt.AddMediaEncoded([]byte("garbage")), KindMediaDecode)
	if rt.PendingMedia() != 2 {
		t.Fatalf("pending=%d", rt.PendingMedia())
	}
}

func TestAddMediaFile(t *testing.T) {
	rt, _ := withProjector(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "a.img")
	if err := os.WriteFile(p, []byte(enginetest.FakeImagePrefix), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	wantKind(t, rt.AddMediaFile(""), KindEmptyInput)
	if err := rt.AddMediaFile(p); err != nil {
		t.Fatalf("add file: %v", err)
	}
	err := rt.AddMediaFile(filepath.Join(dir, "missing.png"))
	wantKind(t, err, KindMediaDecode)
	if rt.PendingMedia() != 1 {
		t.Fatalf("pending=%d", rt.PendingMedia())
	}
}

func TestAddMediaAudio(t *testing.T) {
	rt, eng := withProjector(t)
	wantKind(t, rt.AddMediaAudio(nil), KindEmptyInput)
	wantKind(t, rt.AddMediaAudio([]float32{0.1}), KindMediaDecode)
	eng.Audio = true
	if err := rt.AddMediaAudio([]float32{0.1, -0.1}); err != nil {
		t.Fatalf("audio: %v", err)
	}
	if !rt.SupportsAudio() {
		t.Fatalf("audio support not reported")
	}
}

func TestMultimodalPromptGetsMarkers(t *testing.T) {
	rt, eng := withProjector(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "cat.img")
	if err := os.WriteFile(p, []byte(enginetest.FakeImagePrefix), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := rt.AddMediaFile(p); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := rt.Generation().Begin(GenerateParams{Prompt: "User: describe"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	want := "User: <__media__> <__media__>  describe"
	if eng.MultimodalText.Text != want {
		t.Fatalf("text=%q want %q", eng.MultimodalText.Text, want)
	}
	if !eng.MultimodalText.AddSpecial || !eng.MultimodalText.ParseSpecial || eng.MultimodalMedia != 2 {
		t.Fatalf("input=%+v media=%d", eng.MultimodalText, eng.MultimodalMedia)
	}
	if rt.PendingMedia() != 0 {
		t.Fatalf("media not drained")
	}
	if _, _, bitmaps, _ := eng.Live(); bitmaps != 0 {
		t.Fatalf("bitmaps leaked: %d", bitmaps)
	}
}

func TestMultimodalFailuresDrainMedia(t *testing.T) {
	t.Run("marker mismatch", func(t *testing.T) {
		rt, _ := withProjector(t)
		if err := rt.AddMediaRGB(1, 1, rgb(1, 1)); err != nil {
			t.Fatalf("stage: %v", err)
		}
		prompt := strings.Repeat("<image> ", 3)
		err := rt.Generation().Begin(GenerateParams{Prompt: prompt})
		wantKind(t, err, KindTokenize)
		if rt.PendingMedia() != 0 || rt.Generation().Active() {
			t.Fatalf("state after failure: pending=%d active=%v", rt.PendingMedia(), rt.Generation().Active())
		}
	})
	t.Run("eval failure", func(t *testing.T) {
		rt, eng := withProjector(t)
		eng.ProjectorEvalRC = -1
		if err := rt.AddMediaRGB(1, 1, rgb(1, 1)); err != nil {
			t.Fatalf("stage: %v", err)
		}
		wantKind(t, rt.Generation().Begin(GenerateParams{Prompt: "look"}), KindDecode)
		if rt.PendingMedia() != 0 {
			t.Fatalf("media not drained")
		}
	})
}

func TestCustomMarkerFromProjector(t *testing.T) {
	eng := enginetest.New()
	eng.Marker = "<start_of_image>"
	rt := New(eng)
	if err := rt.LoadModel(LoadParams{Path: "m"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := rt.LoadProjector("p"); err != nil {
		t.Fatalf("projector: %v", err)
	}
	if err := rt.AddMediaRGB(1, 1, rgb(1, 1)); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := rt.Generation().Begin(GenerateParams{Prompt: "[IMG] what"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if eng.MultimodalText.Text != "<start_of_image> what" {
		t.Fatalf("text=%q", eng.MultimodalText.Text)
	}
}

func TestFallbackRejectsOversizedImage(t *testing.T) {
	rt, _ := withProjector(t)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("png: %v", err)
	}
	b := buf.Bytes()
	binary.BigEndian.PutUint32(b[16:], 40000)
	binary.BigEndian.PutUint32(b[20:], 40000)
	binary.BigEndian.PutUint32(b[29:], crc32.ChecksumIEEE(b[12:29]))

	wantKind(t, rt.AddMediaEncoded(b), KindMediaDecode)
	if rt.PendingMedia() != 0 {
		t.Fatalf("pending=%d", rt.PendingMedia())
	}
}

func TestFallbackPixelLimitOption(t *testing.T) {
	rt, _ := loadedRuntime(t, WithMaxImagePixels(8))
	if err := rt.LoadProjector("mmproj.gguf"); err != nil {
		t.Fatalf("load projector: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatalf("png: %v", err)
	}
	wantKind(t, rt.AddMediaEncoded(buf.Bytes()), KindMediaDecode)
}
