package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"llamabridge/internal/engine"
	"llamabridge/internal/engine/enginetest"
)

func runCLI(t *testing.T, eng *enginetest.Engine, stdin string, args ...string) (string, error) {
	t.Helper()
	orig := newEngine
	newEngine = func() (engine.Engine, error) { return eng, nil }
	t.Cleanup(func() { newEngine = orig })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func modelFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tiny.gguf")
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestGenerateCommand(t *testing.T) {
	eng := enginetest.New()
	eng.Script = enginetest.Pieces("hi there")
	out, err := runCLI(t, eng, "", "generate", "-m", modelFile(t), "-n", "2", "--temperature", "0", "User: x")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "hi\n" {
		t.Fatalf("out=%q", out)
	}
	if strings.Join(eng.Stages, ",") == "" {
		t.Fatalf("sampler chain not built")
	}
}

func TestGeneratePromptFromStdin(t *testing.T) {
	eng := enginetest.New()
	eng.Script = enginetest.Pieces("ok")
	out, err := runCLI(t, eng, "User: hello\n", "generate", "-q", "-m", modelFile(t), "-")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "ok" {
		t.Fatalf("out=%q", out)
	}
	if len(eng.Decoded) == 0 || len(eng.Decoded[0]) != len("User: hello")+1 {
		t.Fatalf("prompt not decoded as read from stdin: %v", eng.Decoded)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := runCLI(t, enginetest.New(), "", "generate", "x"); err == nil || !strings.Contains(err.Error(), "no model configured") {
		t.Fatalf("err=%v", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.gguf")
	if _, err := runCLI(t, enginetest.New(), "", "generate", "-m", missing, "x"); err == nil || !strings.Contains(err.Error(), "model:") {
		t.Fatalf("err=%v", err)
	}
	eng := enginetest.New()
	eng.FailModelLoad = true
	_, err := runCLI(t, eng, "", "generate", "-m", modelFile(t), "x")
	if err == nil || !strings.Contains(err.Error(), "model_load_failure") {
		t.Fatalf("err=%v", err)
	}
}

func TestEngineUnavailable(t *testing.T) {
	orig := newEngine
	newEngine = func() (engine.Engine, error) { return nil, engine.ErrDependencyUnavailable("no llama") }
	defer func() { newEngine = orig }()
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"probe"})
	if err := cmd.Execute(); !engine.IsDependencyUnavailable(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestTokenizeAndDetokenize(t *testing.T) {
	model := modelFile(t)
	out, err := runCLI(t, enginetest.New(), "", "tokenize", "-m", model, "hi")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if out != "[1,120,121]\n" {
		t.Fatalf("out=%q", out)
	}
	out, err = runCLI(t, enginetest.New(), "", "detokenize", "-m", model, "[120, 121]")
	if err != nil {
		t.Fatalf("detokenize: %v", err)
	}
	if out != "hi\n" {
		t.Fatalf("out=%q", out)
	}
}

func TestProbeCommand(t *testing.T) {
	out, err := runCLI(t, enginetest.New(), "", "probe", "--json")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	var got struct {
		Backends    []string `json:"backends"`
		Accelerated bool     `json:"accelerated"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("json: %v (%q)", err, out)
	}
	if len(got.Backends) != 2 || !got.Accelerated {
		t.Fatalf("probe=%+v", got)
	}

	out, err = runCLI(t, enginetest.New(), "", "probe", "--accelerator-ids", "nothing-matches")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !strings.Contains(out, "CPU\n") || !strings.Contains(out, "accelerated: false") {
		t.Fatalf("out=%q", out)
	}
}

func TestMetadataCommand(t *testing.T) {
	out, err := runCLI(t, enginetest.New(), "", "metadata", "-m", modelFile(t))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	var md map[string]string
	if err := json.Unmarshal([]byte(out), &md); err != nil {
		t.Fatalf("json: %v", err)
	}
	if md["general.name"] != "tiny" {
		t.Fatalf("metadata=%v", md)
	}
}

func TestModelsCommand(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.gguf", "mmproj-a.gguf", "readme.md"} {
		if err := os.WriteFile(filepath.Join(dir, f), make([]byte, 2048), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	out, err := runCLI(t, enginetest.New(), "", "models", "--models-dir", dir)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !strings.Contains(out, "a.gguf") || !strings.Contains(out, "mmproj") || strings.Contains(out, "readme") {
		t.Fatalf("out=%q", out)
	}
	if !strings.Contains(out, "2.0 KiB") {
		t.Fatalf("size column missing: %q", out)
	}
	if _, err := runCLI(t, enginetest.New(), "", "models"); err == nil {
		t.Fatalf("expected error without a models dir")
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	model := modelFile(t)
	cfgPath := filepath.Join(t.TempDir(), "llamabridge.yaml")
	cfg := "model: " + model + "\nn_ctx: 1024\nthreads: 3\nlog_format: json\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	eng := enginetest.New()
	if _, err := runCLI(t, eng, "", "tokenize", "--config", cfgPath, "--n-ctx", "2048", "x"); err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if eng.ModelPath != model {
		t.Fatalf("model from config not used: %q", eng.ModelPath)
	}
	if eng.ContextParams.NCtx != 2048 || eng.ContextParams.NThreads != 3 {
		t.Fatalf("context params=%+v", eng.ContextParams)
	}
}

func TestInvalidLogSettings(t *testing.T) {
	if _, err := runCLI(t, enginetest.New(), "", "probe", "--log-level", "loud"); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := runCLI(t, enginetest.New(), "", "probe", "--log-format", "xml"); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{0: "0 B", 1023: "1023 B", 1024: "1.0 KiB", 1536: "1.5 KiB", 3 << 30: "3.0 GiB"}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Fatalf("humanBytes(%d)=%q want %q", in, got, want)
		}
	}
}
