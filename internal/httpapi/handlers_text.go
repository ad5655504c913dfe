package httpapi

import (
	"encoding/json"
	"net/http"

	"llamabridge/internal/bridge"
	"llamabridge/internal/engine"
	"llamabridge/pkg/types"
)

// handleTokenize godoc
// @Summary  Tokenize text with the loaded vocabulary
// @Tags     text
// @Accept   json
// @Produce  json
// @Param    body  body      types.TokenizeRequest  true  "text"
// @Success  200   {object}  types.TokenizeResponse
// @Failure  409   {object}  types.TokenizeResponse
// @Router   /v1/tokenize [post]
func (s *server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req types.TokenizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp := types.TokenizeResponse{Tokens: []int32{}}
	s.locked(func() {
		n := s.b.Tokenize(req.Text, req.AddSpecial)
		resp.Result = s.result(n)
		if n >= 0 {
			resp.Count = n
			_ = json.Unmarshal([]byte(s.b.LastTokensJSON()), &resp.Tokens)
		}
	})
	writeResult(w, resp.Result, resp)
}

// handleDetokenize godoc
// @Summary  Convert tokens back to text
// @Tags     text
// @Accept   json
// @Produce  json
// @Param    body  body      types.DetokenizeRequest  true  "tokens"
// @Success  200   {object}  types.DetokenizeResponse
// @Failure  409   {object}  types.DetokenizeResponse
// @Router   /v1/detokenize [post]
func (s *server) handleDetokenize(w http.ResponseWriter, r *http.Request) {
	var req types.DetokenizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text := req.TokenText
	if len(req.Tokens) > 0 {
		toks := make([]engine.Token, len(req.Tokens))
		for i, t := range req.Tokens {
			toks[i] = engine.Token(t)
		}
		text = bridge.FormatTokenList(toks)
	}
	var resp types.DetokenizeResponse
	s.locked(func() {
		n := s.b.Detokenize(text, req.Special)
		resp.Result = s.result(n)
		if n >= 0 {
			resp.Text = s.b.LastDetokenized()
		}
	})
	writeResult(w, resp.Result, resp)
}
