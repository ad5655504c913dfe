package httpapi

import "llamabridge/internal/session"

const defaultMaxBodyBytes int64 = 32 << 20

// maxBodyBytes bounds request bodies. Encoded media travels inline, so the
// default is larger than a plain JSON API would need.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes sets the maximum request body size; non-positive restores the default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// generateTimeout limits a /v1/generate call in seconds. Zero disables it.
var generateTimeout = int64(0)

// SetGenerateTimeoutSeconds sets the generate timeout in seconds (0 disables).
func SetGenerateTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	generateTimeout = sec
}

// defaultNPredict is the token budget used when a request leaves n_predict unset.
var defaultNPredict int32 = session.DefaultPredict

// SetDefaultNPredict sets the fallback token budget; non-positive restores the default.
func SetDefaultNPredict(n int32) {
	if n <= 0 {
		n = session.DefaultPredict
	}
	defaultNPredict = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// modelsDir is scanned by GET /v1/models and resolves model ids; empty disables both.
var modelsDir string

// SetModelsDir sets the directory of GGUF files exposed by the API.
func SetModelsDir(dir string) { modelsDir = dir }
