// Package llamacpp implements engine.Engine on top of llama.cpp and its mtmd
// multimodal library through cgo.
//
// The real binding is compiled only with the 'llama' build tag; default builds
// get a stub whose New returns engine.ErrDependencyUnavailable so that CI and
// the HTTP surface stay cgo-free. Shared libraries (libllama, libmtmd,
// libggml*) are expected in ./bin at link time and next to the binary at run
// time; headers in ./include.
package llamacpp
