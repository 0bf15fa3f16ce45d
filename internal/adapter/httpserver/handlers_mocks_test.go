package httpserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/catalog"
	"github.com/sbcarpet/showroom/internal/contact"
	"github.com/sbcarpet/showroom/internal/domain"
	"github.com/sbcarpet/showroom/internal/platform/config"
	"github.com/stretchr/testify/require"
)

type mockRelay struct {
	mu   sync.Mutex
	sent []domain.ContactFields
	keys []string
	err  error
}

func (m *mockRelay) Send(ctx context.Context, fields domain.ContactFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, fields)
	m.keys = append(m.keys, contact.ClientKey(ctx))
	return m.err
}

func (m *mockRelay) calls() ([]domain.ContactFields, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ContactFields(nil), m.sent...), append([]string(nil), m.keys...)
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:               "development",
		Port:                 "8080",
		AppURL:               "http://localhost:8080",
		MailRelayURL:         "http://relay.test/send",
		SuccessDisplay:       5 * time.Second,
		SubmissionsPerMinute: 5,
		SubmissionBurst:      3,
		MaxPageSessions:      100,
		MaxPageSessionsPerIP: 10,
		PageSessionRate:      100,
		PageSessionBurst:     100,
		ContactNumber:        "+441724289198",
		WhatsAppNumber:       "447525900400",
		WhatsAppMessage:      "Hello, I am interested in your carpets and furniture products.",
		StoreAddress:         "65 Doncaster Rd, Scunthorpe DN15 7RG, UK",
		StoreEmail:           "southbankcarpetandfurniture@gmail.com",
	}
}

type testServer struct {
	*Server
	clock   *clockwork.FakeClock
	relay   *mockRelay
	contact *metrics.ContactMetrics
	page    *metrics.PageMetrics
}

func newTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	clock := clockwork.NewFakeClockAt(time.Now())
	relay := &mockRelay{}

	deps := Deps{
		Config:         testConfig(),
		Catalog:        cat,
		Relay:          relay,
		Clock:          clock,
		Registry:       reg,
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		PageMetrics:    metrics.NewPageMetrics(reg),
		ContactMetrics: metrics.NewContactMetrics(reg),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := NewServer(deps)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return &testServer{
		Server:  srv,
		clock:   clock,
		relay:   relay,
		contact: deps.ContactMetrics,
		page:    deps.PageMetrics,
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Deps) {
	return func(d *Deps) {
		d.HealthChecks = checks
	}
}

func withConfig(mutate func(*config.Config)) func(*Deps) {
	return func(d *Deps) {
		mutate(d.Config)
	}
}
