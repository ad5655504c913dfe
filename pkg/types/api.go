package types

// Result is embedded in every /v1 response. Code is the bridge status code
// (0 ok, negative failure); Status is its symbolic name.
type Result struct {
	// Bridge status code.
	// example: 0
	Code int32 `json:"code" example:"0"`
	// Symbolic name of Code.
	// example: ok
	Status string `json:"status" example:"ok"`
	// Last error message, set only on failure.
	// example: model is not loaded
	Error string `json:"error,omitempty" example:"model is not loaded"`
}

// ErrorResponse is a consistent JSON error payload for requests rejected
// before they reach the engine.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// LoadModelRequest is the body of POST /v1/model.
type LoadModelRequest struct {
	// Path to a GGUF model file.
	// example: /models/qwen2.5-0.5b-instruct-q4_k_m.gguf
	Path string `json:"path" example:"/models/qwen2.5-0.5b-instruct-q4_k_m.gguf"`
	// File name in the server's models directory, used when Path is empty.
	// example: qwen2.5-0.5b-instruct-q4_k_m.gguf
	ID string `json:"id,omitempty" example:"qwen2.5-0.5b-instruct-q4_k_m.gguf"`
	// Context window; 0 keeps the model default.
	// example: 4096
	NCtx int32 `json:"n_ctx,omitempty" example:"4096"`
	// CPU threads; 0 keeps the engine default.
	// example: 8
	Threads int32 `json:"threads,omitempty" example:"8"`
	// Layers offloaded to an accelerator.
	// example: 99
	GPULayers int32 `json:"gpu_layers,omitempty" example:"99"`
}

// LoadModelResponse is returned by POST /v1/model.
type LoadModelResponse struct {
	Result
	// Effective context window, 0 on failure.
	// example: 4096
	ContextSize int32 `json:"context_size" example:"4096"`
	// GGUF metadata of the loaded model.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PathRequest carries a single filesystem path (projector or media file).
type PathRequest struct {
	// example: /models/mmproj-qwen2.5-vl.gguf
	Path string `json:"path" example:"/models/mmproj-qwen2.5-vl.gguf"`
}

// ProjectorResponse is returned by POST /v1/mmproj.
type ProjectorResponse struct {
	Result
	// example: true
	Vision bool `json:"vision" example:"true"`
	// example: false
	Audio bool `json:"audio" example:"false"`
}

// EncodedMediaRequest carries encoded media bytes (base64 in JSON).
type EncodedMediaRequest struct {
	// Encoded image or audio file contents.
	Data []byte `json:"data" swaggertype:"string" format:"base64"`
}

// RGBMediaRequest carries raw interleaved RGB pixels.
type RGBMediaRequest struct {
	// example: 2
	Width uint32 `json:"width" example:"2"`
	// example: 2
	Height uint32 `json:"height" example:"2"`
	// width*height*3 bytes, base64 in JSON.
	Data []byte `json:"data" swaggertype:"string" format:"base64"`
}

// AudioMediaRequest carries mono float32 PCM samples.
type AudioMediaRequest struct {
	Samples []float32 `json:"samples"`
}

// MediaResponse is returned by the media staging endpoints.
type MediaResponse struct {
	Result
	// Number of staged media items after the call.
	// example: 1
	Pending int32 `json:"pending" example:"1"`
}

// TokenizeRequest is the body of POST /v1/tokenize.
type TokenizeRequest struct {
	// example: Hello world
	Text string `json:"text" example:"Hello world"`
	// Add BOS/EOS per the model's configuration.
	// example: true
	AddSpecial bool `json:"add_special,omitempty" example:"true"`
}

// TokenizeResponse is returned by POST /v1/tokenize.
type TokenizeResponse struct {
	Result
	// example: 3
	Count int32 `json:"count" example:"3"`
	// example: [1,15043,3186]
	Tokens []int32 `json:"tokens"`
}

// DetokenizeRequest is the body of POST /v1/detokenize. Tokens wins over
// TokenText when both are present.
type DetokenizeRequest struct {
	Tokens []int32 `json:"tokens,omitempty"`
	// Free-form token list, e.g. "[1, 15043, 3186]".
	// example: 1 15043 3186
	TokenText string `json:"token_text,omitempty" example:"1 15043 3186"`
	// Render control tokens.
	// example: false
	Special bool `json:"special,omitempty" example:"false"`
}

// DetokenizeResponse is returned by POST /v1/detokenize.
type DetokenizeResponse struct {
	Result
	// example: Hello world
	Text string `json:"text" example:"Hello world"`
}

// GenerateRequest starts a generation (POST /v1/generation) or runs one to
// completion (POST /v1/generate).
type GenerateRequest struct {
	// example: User: Write a haiku about the ocean.\nAssistant:
	Prompt string `json:"prompt" example:"User: Write a haiku about the ocean.\nAssistant:"`
	// Token budget for /v1/generate; 0 uses the server default.
	// example: 128
	NPredict int32 `json:"n_predict,omitempty" example:"128"`
	// Stream fragments as NDJSON (/v1/generate only).
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// example: 0.7
	Temperature float32 `json:"temperature,omitempty" example:"0.7"`
	// example: 40
	TopK int32 `json:"top_k,omitempty" example:"40"`
	// example: 0.9
	TopP float32 `json:"top_p,omitempty" example:"0.9"`
	// example: 1.1
	RepeatPenalty float32 `json:"repeat_penalty,omitempty" example:"1.1"`
	// Optional GBNF grammar.
	Grammar string `json:"grammar,omitempty"`
	// 0 picks a random seed.
	// example: 42
	Seed uint32 `json:"seed,omitempty" example:"42"`
}

// StepResponse is returned by POST /v1/generation/next.
type StepResponse struct {
	Result
	// True once generation has ended (end of generation or cancellation).
	// example: false
	Done bool `json:"done" example:"false"`
	// Text produced by this step.
	// example:  ocean
	Fragment string `json:"fragment,omitempty" example:" ocean"`
}

// GenerationState is returned by GET /v1/generation.
type GenerationState struct {
	// Text accumulated since the last begin.
	Output string `json:"output"`
	// Fragment produced by the most recent step.
	LastFragment string `json:"last_fragment"`
}

// GenerateResponse is returned by a non-streaming POST /v1/generate.
type GenerateResponse struct {
	Result
	Output string `json:"output"`
}

// StreamChunk is one NDJSON line of a streaming POST /v1/generate. The final
// line sets Done and carries the result and the full output.
type StreamChunk struct {
	Delta  string  `json:"delta,omitempty"`
	Done   bool    `json:"done,omitempty"`
	Output string  `json:"output,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// InfoResponse is returned by GET /v1/info.
type InfoResponse struct {
	// example: true
	Loaded bool `json:"loaded" example:"true"`
	// example: 4096
	ContextSize int32 `json:"context_size" example:"4096"`
	// example: true
	Accelerated bool `json:"accelerated" example:"true"`
	// example: true
	Vision bool `json:"vision" example:"true"`
	// example: false
	Audio bool `json:"audio" example:"false"`
	// example: 0
	PendingMedia int32 `json:"pending_media" example:"0"`
}

// BackendsResponse is returned by GET /v1/backends.
type BackendsResponse struct {
	// example: ["CPU","CUDA0"]
	Backends []string `json:"backends"`
	// example: true
	Accelerated bool `json:"accelerated" example:"true"`
}

// LastErrorResponse is returned by GET /v1/last-error.
type LastErrorResponse struct {
	Error string `json:"error"`
}

// ModelFile is a GGUF file discovered in the models directory.
type ModelFile struct {
	// File name, used as identifier.
	// example: qwen2.5-vl-3b-instruct-q4_k_m.gguf
	ID string `json:"id" example:"qwen2.5-vl-3b-instruct-q4_k_m.gguf"`
	// Absolute path to pass to POST /v1/model or /v1/mmproj.
	// example: /models/qwen2.5-vl-3b-instruct-q4_k_m.gguf
	Path string `json:"path" example:"/models/qwen2.5-vl-3b-instruct-q4_k_m.gguf"`
	// File size in bytes.
	// example: 1929903264
	SizeBytes int64 `json:"size_bytes" example:"1929903264"`
	// True for multimodal projector files.
	// example: false
	Projector bool `json:"projector" example:"false"`
}

// ModelsResponse is returned by GET /v1/models.
type ModelsResponse struct {
	// Scanned directory; empty when none is configured.
	// example: /models
	Dir    string      `json:"dir" example:"/models"`
	Models []ModelFile `json:"models"`
}
