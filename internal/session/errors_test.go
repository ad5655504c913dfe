package session

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if KindOf(nil) != KindNone || KindOf(errors.New("x")) != KindNone {
		t.Fatalf("foreign errors must map to none")
	}
	wrapped := fmt.Errorf("outer: %w", newError(KindDecode, "boom"))
	if KindOf(wrapped) != KindDecode {
		t.Fatalf("wrapped kind lost")
	}
	if KindDecode.String() != "decode" || Kind(99).String() != "kind(99)" {
		t.Fatalf("names: %s %s", KindDecode, Kind(99))
	}
}
