package pipeline

// Builder constructs a stage given its downstream neighbor.
type Builder func(next Stage) Stage

// Chain assembles a delivery chain ending at terminal. Builders are
// listed upstream-first, matching the order traffic flows through the
// finished chain; construction walks them in reverse so each stage is
// handed its already-built downstream.
func Chain(terminal Stage, builders ...Builder) Stage {
	next := terminal
	for i := len(builders) - 1; i >= 0; i-- {
		next = builders[i](next)
	}
	return next
}
