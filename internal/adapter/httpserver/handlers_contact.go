package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sbcarpet/showroom/internal/contact"
	"github.com/sbcarpet/showroom/internal/domain"
	apperrors "github.com/sbcarpet/showroom/internal/platform/errors"
)

// handleContact accepts a form submission as JSON for clients without a live
// page session. The relay's own error details are logged, never returned.
func (s *Server) handleContact(c echo.Context) error {
	var fields domain.ContactFields
	if err := c.Bind(&fields); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if valid, errs := contact.Validate(fields); !valid {
		s.recordContact(contact.OutcomeRejected, &errs)
		return apperrors.ValidationError("please correct the highlighted fields").
			WithContext("fields", errs)
	}

	ctx := contact.WithClientKey(c.Request().Context(), c.RealIP())
	start := s.clock.Now()
	err := s.relay.Send(ctx, fields)
	if s.contactMetrics != nil {
		s.contactMetrics.RelayDuration.Observe(s.clock.Since(start).Seconds())
	}

	switch {
	case errors.Is(err, domain.ErrSubmissionRateLimited):
		s.recordContact(contact.OutcomeFailed, nil)
		return apperrors.RateLimitedError("too many messages, please try again later")
	case err != nil:
		s.recordContact(contact.OutcomeFailed, nil)
		return apperrors.ExternalError("your message could not be sent", err)
	}

	s.recordContact(contact.OutcomeSucceeded, nil)
	if err := c.JSON(http.StatusOK, map[string]string{"status": "sent"}); err != nil {
		return fmt.Errorf("failed to write contact response: %w", err)
	}
	return nil
}

func (s *Server) recordContact(outcome contact.Outcome, errs *domain.ContactErrors) {
	if s.contactMetrics == nil {
		return
	}
	s.contactMetrics.Submissions.WithLabelValues(string(outcome)).Inc()
	if errs == nil {
		return
	}
	for _, f := range domain.Fields() {
		if errs.Get(f) != "" {
			s.contactMetrics.ValidationFailures.WithLabelValues(string(f)).Inc()
		}
	}
}
