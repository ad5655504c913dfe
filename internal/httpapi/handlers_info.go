package httpapi

import (
	"encoding/json"
	"net/http"

	"llamabridge/internal/httpapi/docs"
	"llamabridge/internal/registry"
	"llamabridge/pkg/types"
)

// handleInfo godoc
// @Summary  Runtime summary
// @Tags     info
// @Produce  json
// @Success  200  {object}  types.InfoResponse
// @Router   /v1/info [get]
func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var info types.InfoResponse
	s.locked(func() {
		info.ContextSize = s.b.ContextSize()
		info.Loaded = info.ContextSize > 0
		info.Accelerated = s.b.Accelerated() == 1
		info.Vision = s.b.SupportsVision() == 1
		info.Audio = s.b.SupportsAudio() == 1
		info.PendingMedia = s.b.PendingMedia()
	})
	writeJSON(w, http.StatusOK, info)
}

// handleBackends godoc
// @Summary  Re-enumerate compute backends
// @Tags     info
// @Produce  json
// @Success  200  {object}  types.BackendsResponse
// @Router   /v1/backends [get]
func (s *server) handleBackends(w http.ResponseWriter, r *http.Request) {
	resp := types.BackendsResponse{Backends: []string{}}
	s.locked(func() {
		resp.Accelerated = s.b.Probe() == 1
		_ = json.Unmarshal([]byte(s.b.BackendLabelsJSON()), &resp.Backends)
	})
	writeJSON(w, http.StatusOK, resp)
}

// handleMetadata godoc
// @Summary  GGUF metadata of the loaded model
// @Tags     info
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /v1/metadata [get]
func (s *server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var raw string
	s.locked(func() { raw = s.b.ModelMetadataJSON() })
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(raw))
}

// handleLastError godoc
// @Summary  Message of the most recent failed call
// @Tags     info
// @Produce  json
// @Success  200  {object}  types.LastErrorResponse
// @Router   /v1/last-error [get]
func (s *server) handleLastError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.LastErrorResponse{Error: s.b.LastError()})
}

// handleModels godoc
// @Summary  GGUF files in the configured models directory
// @Tags     info
// @Produce  json
// @Success  200  {object}  types.ModelsResponse
// @Failure  500  {object}  types.ErrorResponse
// @Router   /v1/models [get]
func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := types.ModelsResponse{Dir: modelsDir, Models: []types.ModelFile{}}
	if modelsDir != "" {
		models, err := registry.Scan(modelsDir)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Models = models
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(docs.SwaggerInfo.ReadDoc()))
}
