package page

import (
	"github.com/sbcarpet/showroom/internal/contact"
	"github.com/sbcarpet/showroom/internal/navigation"
)

// Client to server event types.
const (
	eventIntersections = "intersections"
	eventNavigate      = "navigate"
	eventMenu          = "menu"
	eventField         = "field"
	eventSubmit        = "submit"
)

// Server to client message types.
const (
	messageState   = "state"
	messageScroll  = "scroll"
	messageObserve = "observe"
)

// clientEvent is the union of all events a page may send.
type clientEvent struct {
	Type    string              `json:"type"`
	Entries []intersectionEvent `json:"entries,omitempty"`
	Section string              `json:"section,omitempty"`
	Open    *bool               `json:"open,omitempty"`
	Name    string              `json:"name,omitempty"`
	Value   string              `json:"value,omitempty"`
}

type intersectionEvent struct {
	Section      string  `json:"section"`
	Ratio        float64 `json:"ratio"`
	Intersecting *bool   `json:"intersecting,omitempty"`
}

type stateMessage struct {
	Type       string            `json:"type"`
	Navigation navigation.State  `json:"navigation"`
	Form       contact.FormState `json:"form"`
}

type scrollMessage struct {
	Type     string `json:"type"`
	Section  string `json:"section"`
	Behavior string `json:"behavior"`
}

type observeMessage struct {
	Type      string   `json:"type"`
	Sections  []string `json:"sections"`
	Threshold float64  `json:"threshold"`
}
