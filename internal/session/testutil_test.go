package session

import (
	"testing"

	"llamabridge/internal/engine/enginetest"
)

func loadedRuntime(t *testing.T, opts ...Option) (*Runtime, *enginetest.Engine) {
	t.Helper()
	eng := enginetest.New()
	rt := New(eng, opts...)
	if err := rt.LoadModel(LoadParams{Path: "tiny.gguf"}); err != nil {
		t.Fatalf("load model: %v", err)
	}
	return rt, eng
}

func withProjector(t *testing.T) (*Runtime, *enginetest.Engine) {
	t.Helper()
	rt, eng := loadedRuntime(t)
	if err := rt.LoadProjector("mmproj.gguf"); err != nil {
		t.Fatalf("load projector: %v", err)
	}
	return rt, eng
}

func wantKind(t *testing.T, err error, k Kind) {
	t.Helper()
	if got := KindOf(err); got != k {
		t.Fatalf("expected kind %s, got %s (err=%v)", k, got, err)
	}
}

func rgb(w, h int) []byte { return make([]byte, w*h*3) }

func countCalls(calls []string, s string) int {
	n := 0
	for _, c := range calls {
		if c == s {
			n++
		}
	}
	return n
}
