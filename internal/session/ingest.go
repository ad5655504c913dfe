package session

import (
	"llamabridge/internal/engine"
)

const defaultDecodeBatch = 512

func (r *Runtime) decodeBatch() int {
	n := int(r.ctx.NBatch())
	if n <= 0 {
		n = defaultDecodeBatch
	}
	return n
}

// ingest feeds prompt into the freshly cleared context, routing through the
// projector when media is pending.
func (r *Runtime) ingest(prompt string) error {
	if len(r.pending) > 0 && r.projector != nil {
		return r.ingestMultimodal(prompt)
	}
	toks, ok := r.tokenize(prompt, true)
	if !ok {
		return newError(KindTokenize, "prompt tokenization failed")
	}
	return r.decodePrompt(toks)
}

func (r *Runtime) decodePrompt(toks []engine.Token) error {
	if len(toks) == 0 {
		return newError(KindDecode, "cannot decode empty token sequence")
	}
	batch := r.decodeBatch()
	for off := 0; off < len(toks); off += batch {
		end := min(off+batch, len(toks))
		if rc := r.ctx.Decode(toks[off:end]); rc != 0 {
			return newError(KindDecode, "decode failed while processing prompt (rc=%d)", rc)
		}
	}
	promptTokensTotal.Add(float64(len(toks)))
	return nil
}

// ingestMultimodal consumes all pending media, whatever the outcome.
func (r *Runtime) ingestMultimodal(prompt string) error {
	defer r.ClearMedia()

	marker := r.projector.DefaultMarker()
	if marker == "" {
		marker = engine.DefaultMarker
	}
	text := r.normalizer.Normalize(prompt, marker, len(r.pending))
	bos, eos := r.vocab.BOS(), r.vocab.EOS()
	in := engine.InputText{
		Text:         text,
		AddSpecial:   bos != eos && bos != engine.TokenNull,
		ParseSpecial: true,
	}

	chunks, rc := r.projector.Tokenize(in, r.pending)
	switch rc {
	case 0:
	case 1:
		return newError(KindTokenize, "multimodal tokenization failed: marker count does not match media count")
	case 2:
		return newError(KindTokenize, "multimodal tokenization failed: media preprocessing error")
	default:
		return newError(KindTokenize, "multimodal tokenization failed (rc=%d)", rc)
	}
	if chunks != nil {
		defer chunks.Free()
	}

	nPast, rc := r.projector.EvalChunks(r.ctx, chunks, 0, 0, int32(r.decodeBatch()), true)
	if rc != 0 {
		return newError(KindDecode, "multimodal prompt evaluation failed (rc=%d)", rc)
	}
	logger.Debug().Int("media", len(r.pending)).Int32("n_past", nPast).Msg("multimodal prompt evaluated")
	return nil
}
