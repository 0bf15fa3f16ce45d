package mailrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/domain"
	apperrors "github.com/sbcarpet/showroom/internal/platform/errors"
	"github.com/sbcarpet/showroom/internal/platform/version"
)

// maxErrorBody caps how much of a failure response is read for its message.
const maxErrorBody = 64 << 10

// Client posts inquiries as JSON to the relay endpoint.
// It sets no request timeout of its own; callers bound the request through ctx.
type Client struct {
	endpoint string
	http     *http.Client
	cb       circuitbreaker.CircuitBreaker[any]
}

var _ domain.MailRelay = (*Client)(nil)

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	metrics    *metrics.ContactMetrics
	breaker    circuitbreaker.CircuitBreaker[any]
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithMetrics publishes the breaker state to the contact metrics.
func WithMetrics(m *metrics.ContactMetrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithCircuitBreaker replaces the default breaker.
func WithCircuitBreaker(cb circuitbreaker.CircuitBreaker[any]) Option {
	return func(o *clientOptions) { o.breaker = cb }
}

func NewClient(endpoint string, opts ...Option) *Client {
	o := clientOptions{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.breaker == nil {
		o.breaker = newBreaker(o.metrics)
	}
	return &Client{endpoint: endpoint, http: o.httpClient, cb: o.breaker}
}

// newBreaker opens after 60% failures over at least 5 requests in a 1 minute
// window, and lets a trial call through after 30s.
func newBreaker(m *metrics.ContactMetrics) circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, time.Minute).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "mail_relay",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if m != nil {
				m.BreakerState.Set(stateToFloat(e.NewState))
			}
		}).
		Build()
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

type failureBody struct {
	Message string `json:"message"`
}

// Send delivers one inquiry. Any 2xx response is success; the body is ignored.
func (c *Client) Send(ctx context.Context, fields domain.ContactFields) error {
	if !c.cb.TryAcquirePermit() {
		return apperrors.ExternalError("mail relay unavailable", circuitbreaker.ErrOpen)
	}

	status, err := c.post(ctx, fields)
	if err != nil && relayFault(ctx, status, err) {
		c.cb.RecordError(err)
		return err
	}
	c.cb.RecordSuccess()
	return err
}

// relayFault reports whether a failed send says the relay is unhealthy.
// A caller that gave up, or a 4xx reply other than 408/429, says nothing
// against the relay.
func relayFault(ctx context.Context, status int, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	if status >= 400 && status < 500 {
		return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) post(ctx context.Context, fields domain.ContactFields) (int, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return 0, apperrors.InternalError("failed to encode inquiry", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, apperrors.InternalError("failed to build relay request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.ExternalError("mail relay request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	relayErr := apperrors.ExternalError("mail relay rejected inquiry", fmt.Errorf("status %d", resp.StatusCode)).
		WithContext("status_code", resp.StatusCode)

	var fb failureBody
	if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); readErr == nil && len(raw) > 0 {
		if json.Unmarshal(raw, &fb) == nil && fb.Message != "" {
			relayErr = relayErr.WithContext("relay_message", fb.Message)
		}
	}
	return resp.StatusCode, relayErr
}

// State reports the breaker state, used by readiness checks.
func (c *Client) State() circuitbreaker.State {
	return c.cb.State()
}
