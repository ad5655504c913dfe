package httpapi

import (
	"net/http"

	"llamabridge/pkg/types"
)

func (s *server) stageMedia(w http.ResponseWriter, add func() int32) {
	var resp types.MediaResponse
	s.locked(func() {
		resp.Result = s.result(add())
		resp.Pending = s.b.PendingMedia()
	})
	writeResult(w, resp.Result, resp)
}

// handleMediaFile godoc
// @Summary  Stage an image or audio file for the next prompt
// @Tags     media
// @Accept   json
// @Produce  json
// @Param    body  body      types.PathRequest  true  "media file"
// @Success  200   {object}  types.MediaResponse
// @Failure  409   {object}  types.MediaResponse
// @Failure  422   {object}  types.MediaResponse
// @Router   /v1/media/file [post]
func (s *server) handleMediaFile(w http.ResponseWriter, r *http.Request) {
	var req types.PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.stageMedia(w, func() int32 { return s.b.AddMediaFile(req.Path) })
}

// handleMediaEncoded godoc
// @Summary  Stage encoded media bytes
// @Tags     media
// @Accept   json
// @Produce  json
// @Param    body  body      types.EncodedMediaRequest  true  "base64 media"
// @Success  200   {object}  types.MediaResponse
// @Router   /v1/media/encoded [post]
func (s *server) handleMediaEncoded(w http.ResponseWriter, r *http.Request) {
	var req types.EncodedMediaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.stageMedia(w, func() int32 { return s.b.AddMediaEncoded(req.Data) })
}

// handleMediaRGB godoc
// @Summary  Stage raw RGB pixels
// @Tags     media
// @Accept   json
// @Produce  json
// @Param    body  body      types.RGBMediaRequest  true  "pixels"
// @Success  200   {object}  types.MediaResponse
// @Failure  400   {object}  types.MediaResponse
// @Router   /v1/media/rgb [post]
func (s *server) handleMediaRGB(w http.ResponseWriter, r *http.Request) {
	var req types.RGBMediaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.stageMedia(w, func() int32 { return s.b.AddMediaRGB(req.Width, req.Height, req.Data) })
}

// handleMediaAudio godoc
// @Summary  Stage mono float32 PCM audio
// @Tags     media
// @Accept   json
// @Produce  json
// @Param    body  body      types.AudioMediaRequest  true  "samples"
// @Success  200   {object}  types.MediaResponse
// @Router   /v1/media/audio [post]
func (s *server) handleMediaAudio(w http.ResponseWriter, r *http.Request) {
	var req types.AudioMediaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.stageMedia(w, func() int32 { return s.b.AddMediaAudio(req.Samples) })
}

// handleClearMedia godoc
// @Summary  Drop staged media
// @Tags     media
// @Produce  json
// @Success  200  {object}  types.MediaResponse
// @Router   /v1/media [delete]
func (s *server) handleClearMedia(w http.ResponseWriter, r *http.Request) {
	s.stageMedia(w, func() int32 {
		s.b.ClearPendingMedia()
		return 0
	})
}
