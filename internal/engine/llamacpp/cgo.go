//go:build llama

package llamacpp

// cgo link directives for the in-process engine.
// - rpath $ORIGIN lets the loader find libllama.so, libmtmd.so and libggml*.so
//   next to the built binary (./bin).
// - -L${SRCDIR}/../../../bin finds them at link time.
/*
#cgo CFLAGS: -I${SRCDIR}/../../../include
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../../bin -lllama -lmtmd -lggml -lggml-base
*/
import "C"
