package contact

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sbcarpet/showroom/internal/adapter/metrics"
	"github.com/sbcarpet/showroom/internal/domain"
	apperrors "github.com/sbcarpet/showroom/internal/platform/errors"
)

// DefaultSuccessDisplay is how long the success confirmation stays up.
const DefaultSuccessDisplay = 5 * time.Second

// Outcome is the result of a single Submit call.
type Outcome string

const (
	// OutcomeRejected means validation failed; no relay call was made.
	OutcomeRejected Outcome = "rejected"
	// OutcomeSucceeded means the relay accepted the inquiry.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means the relay call failed; the form is editable again.
	OutcomeFailed Outcome = "failed"
	// OutcomeInFlight means another submission was still running; nothing happened.
	OutcomeInFlight Outcome = "in_flight"
)

// FormState is a copy of the form as the visitor sees it.
type FormState struct {
	Fields domain.ContactFields    `json:"fields"`
	Errors domain.ContactErrors    `json:"errors"`
	Status domain.SubmissionStatus `json:"status"`
}

type ControllerOption func(*Controller)

// WithOnChange registers a callback invoked after every state change, outside the lock.
// It may be called from the relay goroutine or the success timer.
func WithOnChange(fn func(FormState)) ControllerOption {
	return func(c *Controller) { c.onChange = fn }
}

func WithSuccessDisplay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.successDisplay = d }
}

func WithMetrics(m *metrics.ContactMetrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns the five-field form and guarantees at most one submission in flight.
type Controller struct {
	relay          domain.MailRelay
	clock          clockwork.Clock
	successDisplay time.Duration
	onChange       func(FormState)
	metrics        *metrics.ContactMetrics

	mu         sync.Mutex
	fields     domain.ContactFields
	errors     domain.ContactErrors
	status     domain.SubmissionStatus
	resetTimer clockwork.Timer
	generation uint64
	closed     bool
}

func NewController(relay domain.MailRelay, clock clockwork.Clock, opts ...ControllerOption) *Controller {
	c := &Controller{
		relay:          relay,
		clock:          clock,
		successDisplay: DefaultSuccessDisplay,
		status:         domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetField overwrites one field and clears that field's error, if any.
// Other fields and their errors are left alone.
func (c *Controller) SetField(name domain.Field, value string) error {
	if _, err := domain.ParseField(string(name)); err != nil {
		return err
	}

	c.mu.Lock()
	c.fields.Set(name, value)
	if c.errors.Get(name) != "" {
		c.errors.Set(name, "")
	}
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(state)
	return nil
}

func (c *Controller) Fields() domain.ContactFields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

func (c *Controller) Errors() domain.ContactErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

func (c *Controller) Status() domain.SubmissionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Snapshot() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit validates the form and, if valid, sends it to the mail relay.
// It blocks until the relay answers; no timeout is imposed beyond ctx.
func (c *Controller) Submit(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.status == domain.StatusSubmitting {
		c.mu.Unlock()
		c.record(OutcomeInFlight)
		return OutcomeInFlight
	}

	valid, errs := Validate(c.fields)
	c.errors = errs
	if !valid {
		c.status = domain.StatusIdle
		state := c.snapshotLocked()
		c.mu.Unlock()

		c.recordValidation(errs)
		c.record(OutcomeRejected)
		c.notify(state)
		return OutcomeRejected
	}

	c.status = domain.StatusSubmitting
	payload := c.fields
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	start := c.clock.Now()
	err := c.relay.Send(ctx, payload)
	if c.metrics != nil {
		c.metrics.RelayDuration.Observe(c.clock.Since(start).Seconds())
	}

	if err != nil {
		c.mu.Lock()
		c.status = domain.StatusIdle
		state := c.snapshotLocked()
		c.mu.Unlock()

		logFailure(ctx, err)
		c.record(OutcomeFailed)
		c.notify(state)
		return OutcomeFailed
	}

	c.mu.Lock()
	c.fields = domain.ContactFields{}
	c.errors = domain.ContactErrors{}
	c.status = domain.StatusSucceeded
	c.scheduleResetLocked()
	state = c.snapshotLocked()
	c.mu.Unlock()

	slog.InfoContext(ctx, "Contact form submitted")
	c.record(OutcomeSucceeded)
	c.notify(state)
	return OutcomeSucceeded
}

// Close stops the pending success timer. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

// scheduleResetLocked (re)starts the single success timer. A newer success
// supersedes the older timer instead of stacking another one.
func (c *Controller) scheduleResetLocked() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
	if c.closed {
		return
	}

	c.generation++
	gen := c.generation
	c.resetTimer = c.clock.AfterFunc(c.successDisplay, func() { c.expireSuccess(gen) })
}

func (c *Controller) expireSuccess(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.closed || c.status != domain.StatusSucceeded {
		c.mu.Unlock()
		return
	}
	c.status = domain.StatusIdle
	c.resetTimer = nil
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(state)
}

func (c *Controller) snapshotLocked() FormState {
	return FormState{Fields: c.fields, Errors: c.errors, Status: c.status}
}

func (c *Controller) notify(state FormState) {
	if c.onChange != nil {
		c.onChange(state)
	}
}

func (c *Controller) record(outcome Outcome) {
	if c.metrics != nil {
		c.metrics.Submissions.WithLabelValues(string(outcome)).Inc()
	}
}

func (c *Controller) recordValidation(errs domain.ContactErrors) {
	if c.metrics == nil {
		return
	}
	for _, f := range domain.Fields() {
		if errs.Get(f) != "" {
			c.metrics.ValidationFailures.WithLabelValues(string(f)).Inc()
		}
	}
}

// logFailure reports a relay failure to operators only. The visitor never sees it.
func logFailure(ctx context.Context, err error) {
	if errors.Is(err, domain.ErrSubmissionRateLimited) {
		slog.WarnContext(ctx, "Contact form submission rate limited", "error", err)
		return
	}

	attrs := []any{"error", err}
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		for k, v := range structured.Context {
			attrs = append(attrs, k, v)
		}
	}
	slog.ErrorContext(ctx, "Contact form submission failed", attrs...)
}
