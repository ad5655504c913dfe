package bridge

import (
	"errors"
	"sync/atomic"
)

var defaultBridge atomic.Pointer[Bridge]

// Default returns the process-wide bridge used by the exported C symbols.
// Before SetDefault it is an unavailable bridge.
func Default() *Bridge {
	if b := defaultBridge.Load(); b != nil {
		return b
	}
	defaultBridge.CompareAndSwap(nil, Unavailable(errors.New("runtime is not initialized")))
	return defaultBridge.Load()
}

// SetDefault replaces the process-wide bridge.
func SetDefault(b *Bridge) { defaultBridge.Store(b) }
