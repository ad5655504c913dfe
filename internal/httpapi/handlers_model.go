package httpapi

import (
	"encoding/json"
	"net/http"

	"llamabridge/internal/registry"
	"llamabridge/pkg/types"
)

// handleLoadModel godoc
// @Summary  Load a model
// @Tags     model
// @Accept   json
// @Produce  json
// @Param    body  body      types.LoadModelRequest  true  "model to load"
// @Success  200   {object}  types.LoadModelResponse
// @Failure  400   {object}  types.LoadModelResponse
// @Failure  404   {object}  types.ErrorResponse
// @Failure  422   {object}  types.LoadModelResponse
// @Router   /v1/model [post]
func (s *server) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	var req types.LoadModelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" && req.ID != "" {
		m, ok, err := resolveModelID(req.ID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			writeJSONError(w, http.StatusNotFound, "model not found: "+req.ID)
			return
		}
		req.Path = m.Path
	}
	var resp types.LoadModelResponse
	s.locked(func() {
		resp.Result = s.result(s.b.LoadModel(req.Path, req.NCtx, req.Threads, req.GPULayers))
		if resp.Code == 0 {
			resp.ContextSize = s.b.ContextSize()
			_ = json.Unmarshal([]byte(s.b.ModelMetadataJSON()), &resp.Metadata)
		}
	})
	logger.Info().Str("path", req.Path).Str("status", resp.Status).Int32("n_ctx", resp.ContextSize).Msg("load model")
	writeResult(w, resp.Result, resp)
}

func resolveModelID(id string) (types.ModelFile, bool, error) {
	if modelsDir == "" {
		return types.ModelFile{}, false, nil
	}
	return registry.Find(modelsDir, id)
}

// handleUnloadModel godoc
// @Summary  Unload the model, projector and pending media
// @Tags     model
// @Produce  json
// @Success  200  {object}  types.Result
// @Router   /v1/model [delete]
func (s *server) handleUnloadModel(w http.ResponseWriter, r *http.Request) {
	var res types.Result
	s.locked(func() {
		s.b.UnloadModel()
		res = s.result(0)
	})
	writeResult(w, res, res)
}

// handleLoadProjector godoc
// @Summary  Load a multimodal projector for the current model
// @Tags     model
// @Accept   json
// @Produce  json
// @Param    body  body      types.PathRequest  true  "projector path"
// @Success  200   {object}  types.ProjectorResponse
// @Failure  409   {object}  types.ProjectorResponse
// @Router   /v1/mmproj [post]
func (s *server) handleLoadProjector(w http.ResponseWriter, r *http.Request) {
	var req types.PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var resp types.ProjectorResponse
	s.locked(func() {
		resp.Result = s.result(s.b.LoadProjector(req.Path))
		resp.Vision = s.b.SupportsVision() == 1
		resp.Audio = s.b.SupportsAudio() == 1
	})
	writeResult(w, resp.Result, resp)
}

// handleUnloadProjector godoc
// @Summary  Unload the multimodal projector
// @Tags     model
// @Produce  json
// @Success  200  {object}  types.Result
// @Router   /v1/mmproj [delete]
func (s *server) handleUnloadProjector(w http.ResponseWriter, r *http.Request) {
	var res types.Result
	s.locked(func() {
		s.b.UnloadProjector()
		res = s.result(0)
	})
	writeResult(w, res, res)
}
