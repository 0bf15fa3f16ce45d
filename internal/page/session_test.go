package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/contact"
	"github.com/sbcarpet/showroom/internal/domain"
	"github.com/sbcarpet/showroom/internal/navigation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type recordingRelay struct {
	mu   sync.Mutex
	sent []domain.ContactFields
	keys []string
	err  error
}

func (r *recordingRelay) Send(ctx context.Context, fields domain.ContactFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, fields)
	r.keys = append(r.keys, contact.ClientKey(ctx))
	return r.err
}

func (r *recordingRelay) snapshot() ([]domain.ContactFields, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ContactFields(nil), r.sent...), append([]string(nil), r.keys...)
}

// serverMessage is the union of everything the session sends.
type serverMessage struct {
	Type       string            `json:"type"`
	Navigation navigation.State  `json:"navigation"`
	Form       contact.FormState `json:"form"`
	Section    string            `json:"section"`
	Behavior   string            `json:"behavior"`
	Sections   []string          `json:"sections"`
	Threshold  float64           `json:"threshold"`
}

type harness struct {
	conn    *websocket.Conn
	clock   *clockwork.FakeClock
	relay   *recordingRelay
	metrics *metrics.PageMetrics
	done    chan struct{}
}

func startSession(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:   clockwork.NewFakeClockAt(time.Now()),
		relay:   &recordingRelay{},
		metrics: metrics.NewPageMetrics(prometheus.NewRegistry()),
		done:    make(chan struct{}),
	}

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s := NewSession(conn, "192.0.2.1", Deps{
			Relay:       h.relay,
			Clock:       h.clock,
			PageMetrics: h.metrics,
		})
		_ = s.Run(context.Background())
		close(h.done)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	h.conn = conn

	// Drain the mount messages.
	h.expect(t, func(m serverMessage) bool { return m.Type == messageObserve })
	h.expect(t, func(m serverMessage) bool { return m.Type == messageState })
	return h
}

func (h *harness) send(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, h.conn.WriteJSON(v))
}

// expect reads messages until one matches.
func (h *harness) expect(t *testing.T, match func(serverMessage) bool) serverMessage {
	t.Helper()
	require.NoError(t, h.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m serverMessage
		require.NoError(t, h.conn.ReadJSON(&m))
		if match(m) {
			return m
		}
	}
}

func isState(m serverMessage) bool { return m.Type == messageState }

func fillForm(t *testing.T, h *harness, f domain.ContactFields) {
	t.Helper()
	for _, name := range domain.Fields() {
		h.send(t, map[string]string{"type": "field", "name": string(name), "value": f.Get(name)})
	}
}

func validInquiry() domain.ContactFields {
	return domain.ContactFields{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "01724289198",
		Message:   "Hello there friend",
	}
}

// --- Tests ---

func TestSession_MountSendsObserveAndInitialState(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s := NewSession(conn, "192.0.2.1", Deps{Relay: &recordingRelay{}, Clock: clock})
		_ = s.Run(context.Background())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	var observe, state serverMessage
	require.NoError(t, conn.ReadJSON(&observe))
	require.NoError(t, conn.ReadJSON(&state))

	assert.Equal(t, messageObserve, observe.Type)
	assert.ElementsMatch(t, []string{"home", "carpets", "vinyl", "furniture", "about", "contact"}, observe.Sections)
	assert.InDelta(t, domain.VisibilityThreshold, observe.Threshold, 1e-9)

	assert.Equal(t, messageState, state.Type)
	assert.Equal(t, domain.SectionHome, state.Navigation.ActiveSection)
	assert.False(t, state.Navigation.MenuOpen)
	assert.Equal(t, domain.StatusIdle, state.Form.Status)
}

func TestSession_DraftSentBeforeFirstStateIsKept(t *testing.T) {
	relay := &recordingRelay{}
	clock := clockwork.NewFakeClockAt(time.Now())
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s := NewSession(conn, "192.0.2.1", Deps{Relay: relay, Clock: clock})
		_ = s.Run(context.Background())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	// What a reconnecting page replays as soon as the socket opens, before it
	// has read the new session's empty initial state.
	draft := validInquiry()
	for _, name := range domain.Fields() {
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "field", "name": string(name), "value": draft.Get(name)}))
	}
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "submit"}))

	require.Eventually(t, func() bool {
		sent, _ := relay.snapshot()
		return len(sent) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent, _ := relay.snapshot()
	assert.Equal(t, draft, sent[0])
}

func TestSession_IntersectionActivatesSection(t *testing.T) {
	h := startSession(t)

	h.send(t, map[string]any{
		"type":    "intersections",
		"entries": []map[string]any{{"section": "contact", "ratio": 0.42, "intersecting": true}},
	})

	m := h.expect(t, isState)
	assert.Equal(t, domain.SectionContact, m.Navigation.ActiveSection)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SectionActivations.WithLabelValues("contact")))
}

func TestSession_NavigateScrollsAndActivates(t *testing.T) {
	h := startSession(t)

	h.send(t, map[string]any{"type": "menu", "open": true})
	h.expect(t, func(m serverMessage) bool { return isState(m) && m.Navigation.MenuOpen })

	h.send(t, map[string]any{"type": "navigate", "section": "about"})

	scroll := h.expect(t, func(m serverMessage) bool { return m.Type == messageScroll })
	assert.Equal(t, "about", scroll.Section)
	assert.Equal(t, "smooth", scroll.Behavior)

	state := h.expect(t, isState)
	assert.Equal(t, domain.SectionAbout, state.Navigation.ActiveSection)
	assert.False(t, state.Navigation.MenuOpen)
}

func TestSession_MenuToggle(t *testing.T) {
	h := startSession(t)

	h.send(t, map[string]any{"type": "menu"})
	m := h.expect(t, isState)
	assert.True(t, m.Navigation.MenuOpen)

	h.send(t, map[string]any{"type": "menu"})
	m = h.expect(t, isState)
	assert.False(t, m.Navigation.MenuOpen)
}

func TestSession_InvalidSubmitShowsErrors(t *testing.T) {
	h := startSession(t)

	h.send(t, map[string]any{"type": "submit"})

	m := h.expect(t, func(m serverMessage) bool { return isState(m) && m.Form.Errors.Any() })
	assert.Equal(t, "First name is required", m.Form.Errors.FirstName)
	assert.Equal(t, domain.StatusIdle, m.Form.Status)

	sent, _ := h.relay.snapshot()
	assert.Empty(t, sent)
}

func TestSession_SuccessfulSubmitThenReset(t *testing.T) {
	h := startSession(t)
	fillForm(t, h, validInquiry())

	h.send(t, map[string]any{"type": "submit"})

	m := h.expect(t, func(m serverMessage) bool { return isState(m) && m.Form.Status == domain.StatusSucceeded })
	assert.Equal(t, domain.ContactFields{}, m.Form.Fields)

	sent, keys := h.relay.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, validInquiry(), sent[0])
	assert.Equal(t, []string{"192.0.2.1"}, keys)

	h.clock.Advance(contact.DefaultSuccessDisplay)
	h.expect(t, func(m serverMessage) bool { return isState(m) && m.Form.Status == domain.StatusIdle })
}

func TestSession_MalformedEventIsIgnored(t *testing.T) {
	h := startSession(t)

	require.NoError(t, h.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	h.send(t, map[string]any{"type": "teleport"})
	h.send(t, map[string]any{"type": "navigate", "section": "attic"})
	h.send(t, map[string]any{"type": "field", "name": "nickname", "value": "x"})
	h.send(t, map[string]any{"type": "menu"})

	m := h.expect(t, isState)
	assert.True(t, m.Navigation.MenuOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EventsReceived.WithLabelValues("unknown")))
}

func TestSession_ClientCloseEndsRun(t *testing.T) {
	h := startSession(t)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.ActiveSessions) == 1
	}, time.Second, 5*time.Millisecond)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, h.conn.WriteMessage(websocket.CloseMessage, msg))

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after client close")
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.ActiveSessions))
}
