package bridge

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"llamabridge/internal/engine"
)

// ParseTokenList extracts every signed decimal integer from text, skipping
// any other characters. "[1, 2, 3]", "1 2 3" and "1;+2;-3" are all accepted.
// Values outside the int32 range saturate.
func ParseTokenList(text string) []engine.Token {
	var out []engine.Token
	for i := 0; i < len(text); {
		c := text[i]
		if !isDigit(c) && c != '-' && c != '+' {
			i++
			continue
		}
		j := i
		if c == '-' || c == '+' {
			j++
		}
		start := j
		for j < len(text) && isDigit(text[j]) {
			j++
		}
		if j == start {
			// lone sign
			i++
			continue
		}
		out = append(out, engine.Token(parseSaturated(text[i:j])))
		i = j
	}
	return out
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func parseSaturated(s string) int32 {
	v, err := strconv.ParseInt(s, 10, 32)
	if err == nil {
		return int32(v)
	}
	if strings.HasPrefix(s, "-") {
		return math.MinInt32
	}
	return math.MaxInt32
}

// FormatTokenList renders tokens as a JSON array.
func FormatTokenList(tokens []engine.Token) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(t), 10))
	}
	b.WriteByte(']')
	return b.String()
}

// marshal encodes v without HTML escaping; metadata such as chat templates is
// full of angle brackets.
func marshal(v any, fallback string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fallback
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
