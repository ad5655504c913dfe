package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"llamabridge/internal/bridge"
	"llamabridge/internal/engine/enginetest"
	"llamabridge/internal/httpapi"
	"llamabridge/internal/session"
)

// createTempModelsDir creates a temporary directory populated with small .gguf
// files and returns its path.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

func newServer(t *testing.T, eng *enginetest.Engine, modelsDir string) *httptest.Server {
	t.Helper()
	httpapi.SetModelsDir(modelsDir)
	t.Cleanup(func() { httpapi.SetModelsDir("") })
	srv := httptest.NewServer(httpapi.NewMux(bridge.New(session.New(eng))))
	t.Cleanup(srv.Close)
	return srv
}

func httpDo(t *testing.T, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, out
}

func mustJSON[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("json: %v body=%s", err, b)
	}
	return v
}
