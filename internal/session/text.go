package session

import (
	"strings"

	"llamabridge/internal/engine"
	"llamabridge/internal/varlen"
)

func (r *Runtime) tokenize(text string, addSpecial bool) ([]engine.Token, bool) {
	return varlen.Slice(varlen.TokensFor(len(text)), func(out []engine.Token) int32 {
		return r.vocab.Tokenize(text, out, addSpecial, true)
	})
}

func (r *Runtime) piece(tok engine.Token, special bool) (string, bool) {
	return varlen.String(varlen.Piece, func(buf []byte) int32 {
		return r.vocab.TokenToPiece(tok, buf, 0, special)
	})
}

// Tokenize converts text to tokens. Empty text is valid and may still yield
// special tokens when addSpecial is set.
func (r *Runtime) Tokenize(text string, addSpecial bool) ([]engine.Token, error) {
	if err := r.requireLoaded(); err != nil {
		return nil, err
	}
	toks, ok := r.tokenize(text, addSpecial)
	if !ok {
		return nil, newError(KindTokenize, "tokenization failed")
	}
	return toks, nil
}

// Detokenize concatenates the text of tokens. special renders control tokens.
func (r *Runtime) Detokenize(tokens []engine.Token, special bool) (string, error) {
	if err := r.requireLoaded(); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, t := range tokens {
		p, ok := r.piece(t, special)
		if !ok {
			return "", newError(KindConversion, "failed to convert token %d to text", t)
		}
		b.WriteString(p)
	}
	return b.String(), nil
}
