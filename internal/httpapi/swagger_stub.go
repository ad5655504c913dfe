//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger is a no-op by default. Build with -tags=swagger to serve the UI.
// The raw document is always available at /openapi.json.
func MountSwagger(r chi.Router) {}
