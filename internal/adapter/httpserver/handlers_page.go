package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/sbcarpet/showroom/internal/page"
	"github.com/sbcarpet/showroom/internal/platform/correlation"
	apperrors "github.com/sbcarpet/showroom/internal/platform/errors"
)

// handlePageSession upgrades to a WebSocket and runs the page session until the
// page goes away or the server shuts down.
func (s *Server) handlePageSession(c echo.Context) error {
	ip := c.RealIP()

	ok, reason := s.connLimits.Acquire(ip)
	if !ok {
		if s.pageMetrics != nil {
			s.pageMetrics.RejectedSessions.WithLabelValues(string(reason)).Inc()
		}
		return apperrors.RateLimitedError("too many page sessions").WithContext("reason", string(reason))
	}
	defer s.connLimits.Release(ip)

	// Counted before the upgrade so Shutdown cannot miss a session being hijacked.
	s.sessions.Add(1)
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		slog.DebugContext(c.Request().Context(), "Page session upgrade failed", "error", err)
		return nil
	}

	ctx := s.sessionCtx
	if id, ok := correlation.ID(c.Request().Context()); ok {
		ctx = correlation.WithID(ctx, id)
	}

	session := page.NewSession(conn, ip, page.Deps{
		Relay:          s.relay,
		Clock:          s.clock,
		SuccessDisplay: s.config.SuccessDisplay,
		PageMetrics:    s.pageMetrics,
		ContactMetrics: s.contactMetrics,
	})
	if err := session.Run(ctx); err != nil {
		slog.DebugContext(ctx, "Page session ended with error", "session_id", session.ID(), "error", err)
	}
	return nil
}
