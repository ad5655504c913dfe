//go:build !llama

package llamacpp

import "llamabridge/internal/engine"

// Available reports whether this binary links llama.cpp.
const Available = false

// New fails: llama.cpp support is not compiled in.
func New() (engine.Engine, error) {
	return nil, engine.ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
