package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"llamabridge/internal/engine/enginetest"
	"llamabridge/pkg/types"
)

// TestE2E_CatalogToGeneration walks the models listing, load by id,
// tokenization and a blocking generation over a real listener.
func TestE2E_CatalogToGeneration(t *testing.T) {
	dir := createTempModelsDir(t, "beta.gguf", "alpha.gguf", "alpha-mmproj.gguf", "notes.txt")
	eng := enginetest.New()
	eng.Script = enginetest.Pieces("ok")
	srv := newServer(t, eng, dir)

	resp, body := httpDo(t, http.MethodGet, srv.URL+"/v1/models", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("models: status=%d body=%s", resp.StatusCode, body)
	}
	list := mustJSON[types.ModelsResponse](t, body)
	if len(list.Models) != 3 || list.Models[0].ID != "alpha-mmproj.gguf" || !list.Models[0].Projector {
		t.Fatalf("unexpected listing: %+v", list.Models)
	}

	resp, body = httpDo(t, http.MethodPost, srv.URL+"/v1/model", types.LoadModelRequest{ID: "alpha.gguf", NCtx: 512})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load: status=%d body=%s", resp.StatusCode, body)
	}
	if got := mustJSON[types.LoadModelResponse](t, body); got.ContextSize != 512 {
		t.Fatalf("context size=%d", got.ContextSize)
	}

	resp, _ = httpDo(t, http.MethodPost, srv.URL+"/v1/model", types.LoadModelRequest{ID: "missing.gguf"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing id: status=%d", resp.StatusCode)
	}
	// The failed lookup must not tear down the loaded model.
	resp, body = httpDo(t, http.MethodGet, srv.URL+"/v1/info", nil)
	if info := mustJSON[types.InfoResponse](t, body); resp.StatusCode != http.StatusOK || !info.Loaded {
		t.Fatalf("info after missing id: %d %s", resp.StatusCode, body)
	}

	resp, body = httpDo(t, http.MethodPost, srv.URL+"/v1/tokenize", types.TokenizeRequest{Text: "hi"})
	if tok := mustJSON[types.TokenizeResponse](t, body); resp.StatusCode != http.StatusOK || tok.Count != 2 {
		t.Fatalf("tokenize: %d %s", resp.StatusCode, body)
	}

	resp, body = httpDo(t, http.MethodPost, srv.URL+"/v1/generate", types.GenerateRequest{Prompt: "say ok", NPredict: 8})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: status=%d body=%s", resp.StatusCode, body)
	}
	if gen := mustJSON[types.GenerateResponse](t, body); gen.Output != "ok" {
		t.Fatalf("output=%q", gen.Output)
	}

	resp, _ = httpDo(t, http.MethodDelete, srv.URL+"/v1/model", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unload: status=%d", resp.StatusCode)
	}
	resp, _ = httpDo(t, http.MethodGet, srv.URL+"/readyz", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz after unload: %d", resp.StatusCode)
	}
}

// TestE2E_CancelDuringStream cancels from a second connection while a stream
// is parked inside a decode call, and expects a graceful final chunk.
func TestE2E_CancelDuringStream(t *testing.T) {
	eng := enginetest.New()
	eng.Script = enginetest.Pieces("abcdefghijklmnop")
	reached := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	unpark := func() { releaseOnce.Do(func() { close(release) }) }
	eng.OnDecode = func(n int) {
		if n == 4 {
			close(reached)
			<-release
		}
	}
	srv := newServer(t, eng, "")
	t.Cleanup(unpark)

	if resp, body := httpDo(t, http.MethodPost, srv.URL+"/v1/model", types.LoadModelRequest{Path: "tiny.gguf"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("load: %d %s", resp.StatusCode, body)
	}

	type streamResult struct {
		chunks []types.StreamChunk
		err    error
	}
	done := make(chan streamResult, 1)
	go func() {
		payload, _ := json.Marshal(types.GenerateRequest{Prompt: "go", NPredict: 64, Stream: true})
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/v1/generate", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- streamResult{err: err}
			return
		}
		defer resp.Body.Close()
		var res streamResult
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			var c types.StreamChunk
			if err := json.Unmarshal(sc.Bytes(), &c); err != nil {
				res.err = err
				break
			}
			res.chunks = append(res.chunks, c)
		}
		done <- res
	}()

	select {
	case <-reached:
	case <-time.After(5 * time.Second):
		t.Fatal("generation never reached the parked decode")
	}
	resp, body := httpDo(t, http.MethodPost, srv.URL+"/v1/generation/cancel", nil)
	unpark()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: %d %s", resp.StatusCode, body)
	}

	var res streamResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish after cancel")
	}
	if res.err != nil {
		t.Fatalf("stream: %v", res.err)
	}
	if len(res.chunks) == 0 {
		t.Fatal("no chunks")
	}
	last := res.chunks[len(res.chunks)-1]
	if !last.Done || last.Result == nil || last.Result.Code < 0 {
		t.Fatalf("final chunk: %+v", last)
	}
	full := "abcdefghijklmnop"
	if len(last.Output) >= len(full) || !strings.HasPrefix(full, last.Output) {
		t.Fatalf("output %q is not a truncated prefix", last.Output)
	}

	// The runtime stays usable after a cancelled run.
	resp, body = httpDo(t, http.MethodGet, srv.URL+"/v1/generation", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state: %d %s", resp.StatusCode, body)
	}
}
