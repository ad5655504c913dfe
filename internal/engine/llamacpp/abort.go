//go:build llama

package llamacpp

/*
#include <stdbool.h>
#include <stdint.h>
*/
import "C"

import "runtime/cgo"

//export llamabridgeGoAbort
func llamabridgeGoAbort(h C.uintptr_t) C.bool {
	fn, ok := cgo.Handle(h).Value().(func() bool)
	if !ok || fn == nil {
		return false
	}
	return C.bool(fn())
}
