// Command libllamabridge builds the bridge as a C shared library:
//
//	go build -tags llama -buildmode=c-shared -o bin/libllamabridge.so ./cmd/libllamabridge
//
// Every fallible export returns an int32 status code (0 or a positive count on
// success); lb_last_error explains the most recent failure. Returned strings
// are owned by the library and stay valid until the next call that returns the
// same kind of string.
package main

func main() {}
