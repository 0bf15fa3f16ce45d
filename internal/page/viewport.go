package page

import (
	"slices"
	"sync"

	"github.com/sbcarpet/showroom/internal/domain"
)

// Intersection is one region's visibility as reported by the browser.
type Intersection struct {
	Key          string
	Ratio        float64
	Intersecting bool
}

// RemoteViewport is a domain.ViewportNotifier fed by the browser's own
// intersection observer. Each Dispatch call is one rendering frame.
type RemoteViewport struct {
	mu        sync.Mutex
	observers []*remoteObserver
}

var _ domain.ViewportNotifier = (*RemoteViewport)(nil)

func NewRemoteViewport() *RemoteViewport {
	return &RemoteViewport{}
}

func (v *RemoteViewport) NewObserver(threshold float64, callback func([]domain.IntersectionEntry)) domain.ViewportObserver {
	o := &remoteObserver{
		viewport:  v,
		threshold: threshold,
		callback:  callback,
		regions:   make(map[string]domain.Region),
	}
	v.mu.Lock()
	v.observers = append(v.observers, o)
	v.mu.Unlock()
	return o
}

// Dispatch delivers one batch to every observer watching at least one of the
// reported regions. Entries for regions nobody observes are dropped.
func (v *RemoteViewport) Dispatch(batch []Intersection) {
	v.mu.Lock()
	observers := make([]*remoteObserver, len(v.observers))
	copy(observers, v.observers)
	v.mu.Unlock()

	for _, o := range observers {
		if entries := o.match(batch); len(entries) > 0 {
			o.callback(entries)
		}
	}
}

// Targets lists the observed region keys and the lowest observer threshold,
// which is what the browser has to watch for.
func (v *RemoteViewport) Targets() ([]string, float64) {
	v.mu.Lock()
	observers := make([]*remoteObserver, len(v.observers))
	copy(observers, v.observers)
	v.mu.Unlock()

	seen := make(map[string]struct{})
	threshold := 1.0
	for _, o := range observers {
		o.mu.Lock()
		for key := range o.regions {
			seen[key] = struct{}{}
		}
		o.mu.Unlock()
		threshold = min(threshold, o.threshold)
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, threshold
}

// Observers returns the number of connected observers.
func (v *RemoteViewport) Observers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.observers)
}

func (v *RemoteViewport) remove(o *remoteObserver) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, candidate := range v.observers {
		if candidate == o {
			v.observers = append(v.observers[:i], v.observers[i+1:]...)
			return
		}
	}
}

type remoteObserver struct {
	viewport  *RemoteViewport
	threshold float64
	callback  func([]domain.IntersectionEntry)

	mu           sync.Mutex
	regions      map[string]domain.Region
	disconnected bool
}

func (o *remoteObserver) Observe(region domain.Region) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.disconnected {
		o.regions[region.Key()] = region
	}
}

func (o *remoteObserver) Unobserve(region domain.Region) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if current, ok := o.regions[region.Key()]; ok && current == region {
		delete(o.regions, region.Key())
	}
}

func (o *remoteObserver) Disconnect() {
	o.mu.Lock()
	o.disconnected = true
	o.regions = make(map[string]domain.Region)
	o.mu.Unlock()

	o.viewport.remove(o)
}

func (o *remoteObserver) match(batch []Intersection) []domain.IntersectionEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disconnected {
		return nil
	}
	var entries []domain.IntersectionEntry
	for _, in := range batch {
		region, ok := o.regions[in.Key]
		if !ok {
			continue
		}
		entries = append(entries, domain.IntersectionEntry{
			Region:       region,
			Ratio:        in.Ratio,
			Intersecting: in.Intersecting,
		})
	}
	return entries
}
