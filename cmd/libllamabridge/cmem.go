package main

import "unsafe"

// copyBytes copies n bytes starting at p into Go memory.
func copyBytes(p unsafe.Pointer, n uint64) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return append([]byte(nil), unsafe.Slice((*byte)(p), n)...)
}

// copyFloats copies n float32 values starting at p into Go memory.
func copyFloats(p unsafe.Pointer, n uint64) []float32 {
	if p == nil || n == 0 {
		return nil
	}
	return append([]float32(nil), unsafe.Slice((*float32)(p), n)...)
}
