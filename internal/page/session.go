package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/contact"
	"github.com/sbcarpet/showroom/internal/domain"
	"github.com/sbcarpet/showroom/internal/navigation"
	"github.com/sbcarpet/showroom/internal/platform/correlation"
)

const maxEventSize = 16 << 10

// Deps are the collaborators shared by all page sessions.
type Deps struct {
	Relay          domain.MailRelay
	Clock          clockwork.Clock
	SuccessDisplay time.Duration
	PageMetrics    *metrics.PageMetrics
	ContactMetrics *metrics.ContactMetrics
}

// Session is one mounted page: its viewport, its two controllers and the
// connection they talk through.
type Session struct {
	id       uuid.UUID
	clientIP string
	conn     *websocket.Conn
	writer   *clientWriter
	viewport *RemoteViewport
	nav      *navigation.Controller
	form     *contact.Controller
	metrics  *metrics.PageMetrics

	// pushMu orders snapshot-and-send so the last message sent is the latest state.
	pushMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	submits   sync.WaitGroup
	closeOnce sync.Once
}

// NewSession mounts a page on conn: both controllers are created, all sections
// are registered and the page is told what to observe.
func NewSession(conn *websocket.Conn, clientIP string, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	s := &Session{
		id:       uuid.New(),
		clientIP: clientIP,
		conn:     conn,
		writer:   newClientWriter(conn, deps.Clock),
		viewport: NewRemoteViewport(),
		metrics:  deps.PageMetrics,
	}

	formOpts := []contact.ControllerOption{
		contact.WithOnChange(func(contact.FormState) { s.pushState() }),
	}
	if deps.SuccessDisplay > 0 {
		formOpts = append(formOpts, contact.WithSuccessDisplay(deps.SuccessDisplay))
	}
	if deps.ContactMetrics != nil {
		formOpts = append(formOpts, contact.WithMetrics(deps.ContactMetrics))
	}
	s.form = contact.NewController(deps.Relay, deps.Clock, formOpts...)

	navOpts := []navigation.Option{
		navigation.WithOnChange(func(navigation.State) { s.pushState() }),
	}
	if deps.PageMetrics != nil {
		navOpts = append(navOpts, navigation.WithMetrics(deps.PageMetrics))
	}
	s.nav = navigation.New(s.viewport, navOpts...)

	for _, section := range domain.Sections() {
		s.nav.RegisterSection(section, &remoteRegion{section: section, send: s.sendJSON})
	}

	keys, threshold := s.viewport.Targets()
	_ = s.sendJSON(observeMessage{Type: messageObserve, Sections: keys, Threshold: threshold})
	s.pushState()

	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Run reads page events until the connection closes or ctx is cancelled.
// The session is closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	ctx = correlation.WithPageSession(ctx, s.id.String())
	s.ctx, s.cancel = context.WithCancel(contact.WithClientKey(ctx, s.clientIP))
	defer s.Close()

	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
		defer s.metrics.ActiveSessions.Dec()
	}

	slog.DebugContext(s.ctx, "Page session started", "client_ip", s.clientIP)

	stop := context.AfterFunc(s.ctx, func() { _ = s.conn.Close() })
	defer stop()

	s.conn.SetReadLimit(maxEventSize)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return fmt.Errorf("page session read: %w", err)
			}
			return nil
		}
		s.writer.updateReadDeadline()
		s.handle(raw)
	}
}

// Close tears the page down: pending submissions are cancelled and awaited,
// both controllers are closed and the connection is shut.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.submits.Wait()
		s.nav.Close()
		s.form.Close()
		s.writer.stopGraceful(websocket.CloseNormalClosure, "page closed")
	})
}

func (s *Session) handle(raw []byte) {
	var ev clientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		slog.DebugContext(s.ctx, "Ignoring malformed page event", "error", err)
		return
	}

	if s.metrics != nil {
		s.metrics.EventsReceived.WithLabelValues(eventLabel(ev.Type)).Inc()
	}

	switch ev.Type {
	case eventIntersections:
		batch := make([]Intersection, 0, len(ev.Entries))
		for _, e := range ev.Entries {
			intersecting := e.Ratio > 0
			if e.Intersecting != nil {
				intersecting = *e.Intersecting
			}
			batch = append(batch, Intersection{Key: e.Section, Ratio: e.Ratio, Intersecting: intersecting})
		}
		s.viewport.Dispatch(batch)

	case eventNavigate:
		section, err := domain.ParseSection(ev.Section)
		if err != nil {
			slog.DebugContext(s.ctx, "Ignoring navigation to unknown section", "section", ev.Section)
			return
		}
		if err := s.nav.NavigateTo(s.ctx, section); err != nil {
			slog.WarnContext(s.ctx, "Navigation failed", "section", section, "error", err)
		}

	case eventMenu:
		if ev.Open != nil {
			s.nav.SetMenuOpen(*ev.Open)
		} else {
			s.nav.ToggleMenu()
		}

	case eventField:
		if err := s.form.SetField(domain.Field(ev.Name), ev.Value); err != nil {
			slog.DebugContext(s.ctx, "Ignoring unknown form field", "field", ev.Name)
		}

	case eventSubmit:
		s.submits.Add(1)
		go func() {
			defer s.submits.Done()
			s.form.Submit(s.ctx)
		}()

	default:
		slog.DebugContext(s.ctx, "Ignoring unknown page event", "type", ev.Type)
	}
}

// pushState sends the current navigation and form state together.
func (s *Session) pushState() {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	// Controllers are built one after the other; skip pushes during construction.
	if s.nav == nil || s.form == nil {
		return
	}
	_ = s.sendJSONLocked(stateMessage{
		Type:       messageState,
		Navigation: s.nav.Snapshot(),
		Form:       s.form.Snapshot(),
	})
}

func (s *Session) sendJSON(v any) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	return s.sendJSONLocked(v)
}

var errSlowClient = errors.New("page session send buffer full")

func (s *Session) sendJSONLocked(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode page message: %w", err)
	}
	if s.writer.stopped() {
		return nil
	}
	if !s.writer.send(data) {
		if s.metrics != nil {
			s.metrics.SlowClientsDropped.Inc()
		}
		_ = s.conn.Close()
		return errSlowClient
	}
	return nil
}

func eventLabel(t string) string {
	switch t {
	case eventIntersections, eventNavigate, eventMenu, eventField, eventSubmit:
		return t
	default:
		return "unknown"
	}
}
