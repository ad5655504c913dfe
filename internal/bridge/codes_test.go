package bridge

import (
	"errors"
	"slices"
	"testing"

	"llamabridge/internal/engine"
)

func TestCodesDistinct(t *testing.T) {
	seen := map[int32]bool{}
	for code, name := range codeNames {
		if seen[code] {
			t.Fatalf("duplicate code %d", code)
		}
		seen[code] = true
		if CodeName(code) != name {
			t.Fatalf("name mismatch for %d", code)
		}
	}
	if len(seen) != 15 {
		t.Fatalf("expected 15 codes, got %d", len(seen))
	}
	if CodeName(7) != "ok" || CodeName(-99) != "unknown" {
		t.Fatalf("fallbacks")
	}
	if Code(nil) != OK || Code(errors.New("foreign")) != CodeNotLoaded {
		t.Fatalf("nil/foreign mapping")
	}
}

func TestParseTokenList(t *testing.T) {
	cases := []struct {
		in   string
		want []engine.Token
	}{
		{"[1,2,3]", []engine.Token{1, 2, 3}},
		{"1 2\t3\n", []engine.Token{1, 2, 3}},
		{"a1b-2c+3", []engine.Token{1, -2, 3}},
		{"- + -7", []engine.Token{-7}},
		{"", nil},
		{"[]", nil},
		{"99999999999", []engine.Token{2147483647}},
		{"-99999999999", []engine.Token{-2147483648}},
	}
	for _, c := range cases {
		if got := ParseTokenList(c.in); !slices.Equal(got, c.want) {
			t.Fatalf("ParseTokenList(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestFormatTokenList(t *testing.T) {
	if got := FormatTokenList(nil); got != "[]" {
		t.Fatalf("got %s", got)
	}
	if got := FormatTokenList([]engine.Token{5, -1, 42}); got != "[5,-1,42]" {
		t.Fatalf("got %s", got)
	}
}
