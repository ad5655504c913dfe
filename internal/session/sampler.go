package session

import "llamabridge/internal/engine"

// penaltyLastN is the window the repetition penalty looks back over.
const penaltyLastN = 64

// SamplerParams selects the sampling stages of a generation.
type SamplerParams struct {
	Temperature   float32
	TopK          int32
	TopP          float32
	RepeatPenalty float32
	// Grammar is GBNF text with a "root" rule; empty disables it.
	Grammar string
	Seed    uint32
}

// clamped maps out-of-range values to their disabled setting.
func (p SamplerParams) clamped() SamplerParams {
	if p.Temperature < 0 {
		p.Temperature = 0
	}
	if p.TopK < 0 {
		p.TopK = 0
	}
	if p.TopP <= 0 || p.TopP > 1 {
		p.TopP = 1
	}
	if p.RepeatPenalty <= 0 {
		p.RepeatPenalty = 1
	}
	return p
}

// buildChain assembles penalties, top-k, top-p, grammar, temperature and the
// final distribution draw, in that order. Disabled stages are omitted.
func (r *Runtime) buildChain(p SamplerParams) (engine.Sampler, error) {
	chain, err := r.eng.NewSamplerChain()
	if err != nil || chain == nil {
		return nil, newError(KindSamplerInit, "failed to initialize sampler chain")
	}
	if p.RepeatPenalty != 1 {
		chain.Add(r.eng.PenaltiesSampler(penaltyLastN, p.RepeatPenalty, 0, 0))
	}
	if p.TopK > 0 {
		chain.Add(r.eng.TopKSampler(p.TopK))
	}
	if p.TopP < 1 {
		chain.Add(r.eng.TopPSampler(p.TopP, 1))
	}
	if p.Grammar != "" {
		g, err := r.eng.GrammarSampler(r.vocab, p.Grammar, "root")
		if err != nil || g == nil {
			chain.Free()
			return nil, newError(KindSamplerInit, "failed to initialize sampler chain (invalid grammar)")
		}
		chain.Add(g)
	}
	chain.Add(r.eng.TempSampler(p.Temperature))
	chain.Add(r.eng.DistSampler(p.Seed))
	return chain, nil
}
