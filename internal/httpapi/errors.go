package httpapi

import (
	"encoding/json"
	"net/http"

	"llamabridge/internal/bridge"
	"llamabridge/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// httpStatus maps a bridge status code to the HTTP status of its response.
// Non-negative codes are successes.
func httpStatus(code int32) int {
	switch code {
	case bridge.CodeEmptyInput, bridge.CodeSizeMismatch, bridge.CodeSamplerInitFailure:
		return http.StatusBadRequest
	case bridge.CodeNotLoaded, bridge.CodeProjectorNotLoaded, bridge.CodeSessionNotActive:
		return http.StatusConflict
	case bridge.CodeModelLoadFailure, bridge.CodeProjectorLoadFailure,
		bridge.CodeTokenizeFailure, bridge.CodeMediaDecodeFailure:
		return http.StatusUnprocessableEntity
	}
	if code < 0 {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}
