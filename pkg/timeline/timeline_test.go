package timeline

import "testing"

func TestPositionPassesThrough(t *testing.T) {
	ts, ok := Position(func() (int64, bool) { return 4200, true })
	if !ok || ts != 4200 {
		t.Fatalf("got %d %v", ts, ok)
	}
}

func TestPositionNilFunc(t *testing.T) {
	if _, ok := Position(nil); ok {
		t.Fatalf("nil source reported available")
	}
}

func TestPositionRecoversPanic(t *testing.T) {
	ts, ok := Position(func() (int64, bool) { panic("clock exploded") })
	if ok || ts != 0 {
		t.Fatalf("panic not mapped to unavailable: %d %v", ts, ok)
	}
}
