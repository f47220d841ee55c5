// Package timeline models the caller-supplied playback position used to
// gate message release. The position is a point on an external timeline
// (e.g. video playback), not wall clock.
package timeline

// PlayheadFunc reports the current external timeline position in
// milliseconds. ok is false when no timeline is currently available.
type PlayheadFunc func() (ts int64, ok bool)

// Position invokes fn defensively. A nil fn, or a panic inside fn, maps
// to "timeline unavailable" so a broken time source can never stall
// delivery; the gate fails open instead.
func Position(fn PlayheadFunc) (ts int64, ok bool) {
	if fn == nil {
		return 0, false
	}
	defer func() {
		if recover() != nil {
			ts, ok = 0, false
		}
	}()
	return fn()
}
