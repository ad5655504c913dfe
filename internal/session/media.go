package session

import (
	"os"

	"llamabridge/internal/engine"
	"llamabridge/internal/media"
)

// LoadProjector loads a multimodal projector for the current model, replacing
// any existing one. Pending media is dropped first.
func (r *Runtime) LoadProjector(path string) error {
	if err := r.requireLoaded(); err != nil {
		return err
	}
	if path == "" {
		return newError(KindEmptyInput, "multimodal projector path is empty")
	}
	r.UnloadProjector()

	threads := r.ctx.NThreads()
	if threads <= 0 {
		threads = 1
	}
	pj, err := r.eng.LoadProjector(path, r.model, engine.ProjectorParams{
		UseGPU:   r.accelerated,
		NThreads: threads,
	})
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("projector load failed")
		return newError(KindProjectorLoad, "failed to load multimodal projector: %v", err)
	}
	r.projector = pj
	logger.Info().Str("path", path).Bool("vision", pj.SupportsVision()).Bool("audio", pj.SupportsAudio()).Msg("projector loaded")
	return nil
}

// UnloadProjector drops pending media and frees the projector, if any.
func (r *Runtime) UnloadProjector() {
	r.ClearMedia()
	if r.projector != nil {
		r.projector.Free()
		r.projector = nil
	}
}

// SupportsVision reports whether the loaded projector accepts images.
func (r *Runtime) SupportsVision() bool { return r.projector != nil && r.projector.SupportsVision() }

// SupportsAudio reports whether the loaded projector accepts audio.
func (r *Runtime) SupportsAudio() bool { return r.projector != nil && r.projector.SupportsAudio() }

// PendingMedia returns the number of staged media items.
func (r *Runtime) PendingMedia() int { return len(r.pending) }

// ClearMedia frees every staged media item.
func (r *Runtime) ClearMedia() {
	for _, b := range r.pending {
		if b != nil {
			b.Free()
		}
	}
	r.pending = nil
}

func (r *Runtime) requireProjector() error {
	if err := r.requireLoaded(); err != nil {
		return err
	}
	if r.projector == nil {
		return newError(KindProjectorNotLoaded, "multimodal projector is not loaded")
	}
	return nil
}

func (r *Runtime) stage(b engine.Bitmap) {
	r.pending = append(r.pending, b)
	logger.Debug().Int("pending", len(r.pending)).Msg("media staged")
}

// AddMediaFile stages an image or audio file decoded by the projector.
func (r *Runtime) AddMediaFile(path string) error {
	if err := r.requireProjector(); err != nil {
		return err
	}
	if path == "" {
		return newError(KindEmptyInput, "media file path is empty")
	}
	b, err := r.projector.BitmapFromFile(path)
	if err != nil {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return newError(KindMediaDecode, "failed to read media file: %v", rerr)
		}
		if b, err = r.decodeFallback(data, err); err != nil {
			return err
		}
	}
	r.stage(b)
	return nil
}

// AddMediaEncoded stages encoded media bytes (PNG, JPEG, WAV, ...).
func (r *Runtime) AddMediaEncoded(data []byte) error {
	if err := r.requireProjector(); err != nil {
		return err
	}
	if len(data) == 0 {
		return newError(KindEmptyInput, "encoded media bytes are empty")
	}
	b, err := r.projector.BitmapFromBuffer(data)
	if err != nil {
		if b, err = r.decodeFallback(data, err); err != nil {
			return err
		}
	}
	r.stage(b)
	return nil
}

// decodeFallback decodes image formats the projector rejected (e.g. WebP, BMP,
// TIFF) into RGB and stages them as raw pixels.
func (r *Runtime) decodeFallback(data []byte, engineErr error) (engine.Bitmap, error) {
	img, err := media.DecodeRGB(data, r.maxImageSide, r.maxImagePixels)
	if err != nil {
		logger.Debug().AnErr("engine_err", engineErr).Err(err).Msg("media decode failed")
		return nil, newError(KindMediaDecode, "failed to decode media content: %v", engineErr)
	}
	b, err := r.projector.BitmapFromRGB(img.Width, img.Height, img.Pix)
	if err != nil {
		return nil, newError(KindMediaDecode, "failed to initialize RGB media bitmap: %v", err)
	}
	logger.Debug().Str("format", img.Format).Uint32("w", img.Width).Uint32("h", img.Height).Msg("media decoded in-process")
	return b, nil
}

// AddMediaRGB stages raw interleaved RGB pixels; len(rgb) must be width*height*3.
func (r *Runtime) AddMediaRGB(width, height uint32, rgb []byte) error {
	if err := r.requireProjector(); err != nil {
		return err
	}
	if width == 0 || height == 0 || len(rgb) == 0 {
		return newError(KindEmptyInput, "invalid raw RGB media payload")
	}
	if uint64(width)*uint64(height)*3 != uint64(len(rgb)) {
		return newError(KindSizeMismatch, "raw RGB bytes do not match width*height*3")
	}
	b, err := r.projector.BitmapFromRGB(width, height, rgb)
	if err != nil {
		return newError(KindMediaDecode, "failed to initialize RGB media bitmap: %v", err)
	}
	r.stage(b)
	return nil
}

// AddMediaAudio stages mono float32 PCM samples.
func (r *Runtime) AddMediaAudio(samples []float32) error {
	if err := r.requireProjector(); err != nil {
		return err
	}
	if len(samples) == 0 {
		return newError(KindEmptyInput, "audio samples are empty")
	}
	b, err := r.projector.BitmapFromAudio(samples)
	if err != nil {
		return newError(KindMediaDecode, "failed to initialize audio bitmap: %v", err)
	}
	r.stage(b)
	return nil
}
