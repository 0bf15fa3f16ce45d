package domain

import "context"

// VisibilityThreshold is the fraction of a region that must intersect the
// viewport before it counts as the section being viewed.
const VisibilityThreshold = 0.3

// Region is a handle to a renderable area of the page.
type Region interface {
	// Key identifies the region to the viewport notifier.
	Key() string
	// ScrollIntoView asks the page to bring the region into view smoothly.
	ScrollIntoView(ctx context.Context) error
}

// IntersectionEntry reports one region crossing the observer's threshold.
type IntersectionEntry struct {
	Region       Region
	Ratio        float64
	Intersecting bool
}

// ViewportObserver watches a set of regions for one callback.
type ViewportObserver interface {
	Observe(region Region)
	Unobserve(region Region)
	// Disconnect stops all observations; the callback is never invoked again.
	Disconnect()
}

// ViewportNotifier creates observers that deliver intersection entries in
// batches, one batch per rendering frame.
type ViewportNotifier interface {
	NewObserver(threshold float64, callback func(entries []IntersectionEntry)) ViewportObserver
}
