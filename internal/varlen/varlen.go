// Package varlen wraps engine calls whose output size is not known up front.
//
// A call receives a buffer and returns the number of elements written, or a
// negative value when the buffer was too small. Some calls report the exact
// required size as the negative magnitude; others only signal failure and the
// buffer has to be grown blindly. Policy captures which convention applies and
// bounds the number of attempts.
package varlen

// Policy controls buffer sizing for one family of calls.
type Policy struct {
	// Initial capacity in elements.
	Initial int
	// MaxAttempts bounds the total number of calls, including the first.
	MaxAttempts int
	// Growth multiplies the capacity when the required size is unknown.
	Growth int
	// Exact means a negative result is -required.
	Exact bool
	// Slack is added to an exact required size.
	Slack int
	// Terminated means the call writes a NUL terminator and returns the full
	// length even when it had to truncate (snprintf semantics).
	Terminated bool
}

// Defaults for the engine calls the session layer uses.
var (
	MetaKey   = Policy{Initial: 1024, MaxAttempts: 6, Growth: 2, Terminated: true}
	MetaValue = Policy{Initial: 64 * 1024, MaxAttempts: 6, Growth: 2, Terminated: true}
	Piece     = Policy{Initial: 256, MaxAttempts: 2, Growth: 2, Exact: true, Slack: 8}
	Tokens    = Policy{Initial: 32, MaxAttempts: 2, Growth: 2, Exact: true}
)

const minTokenCapacity = 32

// TokensFor returns the Tokens policy sized for text of n bytes.
func TokensFor(n int) Policy {
	p := Tokens
	p.Initial = n + 8
	if p.Initial < minTokenCapacity {
		p.Initial = minTokenCapacity
	}
	return p
}

// Slice runs call with growing buffers until it succeeds or the policy is
// exhausted. On success it returns the written prefix.
func Slice[T any](p Policy, call func(out []T) int32) ([]T, bool) {
	size := p.Initial
	if size <= 0 {
		size = 1
	}
	growth := p.Growth
	if growth < 2 {
		growth = 2
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		buf := make([]T, size)
		rc := call(buf)
		if rc < 0 {
			if p.Exact {
				size = int(-rc) + p.Slack
			} else {
				size *= growth
			}
			if size <= 0 {
				return nil, false
			}
			continue
		}
		n := int(rc)
		if p.Terminated && n >= size {
			size = n + 1
			continue
		}
		if n > len(buf) {
			n = len(buf)
		}
		return buf[:n], true
	}
	return nil, false
}

// String is Slice over bytes, converted to text.
func String(p Policy, call func(buf []byte) int32) (string, bool) {
	b, ok := Slice(p, call)
	if !ok {
		return "", false
	}
	return string(b), true
}
