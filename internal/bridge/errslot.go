package bridge

import "sync"

// errorSlot holds the message of the most recent failure. Reading never
// clears it; the next fallible call does.
type errorSlot struct {
	mu  sync.Mutex
	msg string
}

func (s *errorSlot) set(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

func (s *errorSlot) clear() { s.set("") }

func (s *errorSlot) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}
