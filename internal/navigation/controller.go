package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/domain"
)

// State is the navigation view of the page.
type State struct {
	ActiveSection domain.Section `json:"activeSection"`
	MenuOpen      bool           `json:"menuOpen"`
}

type Option func(*Controller)

// WithOnChange registers a callback invoked after every state change, outside the lock.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func WithMetrics(m *metrics.PageMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller tracks the active section of a single page.
type Controller struct {
	mu        sync.Mutex
	observer  domain.ViewportObserver
	threshold float64
	regions   map[domain.Section]domain.Region
	byKey     map[string]domain.Section
	active    domain.Section
	menuOpen  bool
	closed    bool

	onChange func(State)
	metrics  *metrics.PageMetrics
}

// New creates a controller observing regions through notifier at the 30% visibility threshold.
func New(notifier domain.ViewportNotifier, opts ...Option) *Controller {
	c := &Controller{
		threshold: domain.VisibilityThreshold,
		regions:   make(map[domain.Section]domain.Region),
		byKey:     make(map[string]domain.Section),
		active:    domain.DefaultSection,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.observer = notifier.NewObserver(c.threshold, c.handleEntries)
	return c
}

// RegisterSection attaches region to id and starts observing it.
// Registering an id again replaces (and stops observing) the previous region.
func (c *Controller) RegisterSection(id domain.Section, region domain.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if prev, ok := c.regions[id]; ok {
		delete(c.byKey, prev.Key())
		c.observer.Unobserve(prev)
	}
	c.regions[id] = region
	c.byKey[region.Key()] = id
	c.observer.Observe(region)
}

// ActiveSection returns the section currently considered in view.
func (c *Controller) ActiveSection() domain.Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) MenuOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menuOpen
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// NavigateTo scrolls the section's region into view and marks it active right away,
// closing the mobile menu. The state change does not wait for the scroll or for a
// later intersection batch.
func (c *Controller) NavigateTo(ctx context.Context, id domain.Section) error {
	c.mu.Lock()
	region, ok := c.regions[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("navigate to %s: %w", id, domain.ErrSectionNotRegistered)
	}

	if err := region.ScrollIntoView(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to scroll section into view", "section", id, "error", err)
	}

	c.update(func() {
		c.setActiveLocked(id)
		c.menuOpen = false
	})
	return nil
}

// ToggleMenu opens or closes the mobile navigation overlay.
func (c *Controller) ToggleMenu() {
	c.update(func() { c.menuOpen = !c.menuOpen })
}

func (c *Controller) SetMenuOpen(open bool) {
	c.update(func() { c.menuOpen = open })
}

// Close disconnects the viewport observer. Batches arriving afterwards are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.regions = make(map[domain.Section]domain.Region)
	c.byKey = make(map[string]domain.Section)
	observer := c.observer
	c.mu.Unlock()

	observer.Disconnect()
}

// handleEntries applies one notification batch. When several regions are sufficiently
// visible in the same batch, the last one processed wins.
func (c *Controller) handleEntries(entries []domain.IntersectionEntry) {
	c.update(func() {
		if c.closed {
			return
		}
		for _, e := range entries {
			if e.Region == nil || !e.Intersecting || e.Ratio < c.threshold {
				continue
			}
			if id, ok := c.byKey[e.Region.Key()]; ok {
				c.setActiveLocked(id)
			}
		}
	})
}

func (c *Controller) setActiveLocked(id domain.Section) {
	if c.active == id {
		return
	}
	c.active = id
	if c.metrics != nil {
		c.metrics.SectionActivations.WithLabelValues(string(id)).Inc()
	}
}

func (c *Controller) snapshotLocked() State {
	return State{ActiveSection: c.active, MenuOpen: c.menuOpen}
}

// update runs fn under the lock and notifies onChange if the state moved.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	before := c.snapshotLocked()
	fn()
	after := c.snapshotLocked()
	c.mu.Unlock()

	if before != after && c.onChange != nil {
		c.onChange(after)
	}
}
