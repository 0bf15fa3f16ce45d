package contact

import (
	"context"
	"log/slog"

	"github.com/sbcarpet/showroom/internal/domain"
)

type clientKeyCtx struct{}

// WithClientKey attaches the identity used for submission rate limiting,
// normally the visitor's IP address.
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyCtx{}, key)
}

// ClientKey returns the rate limiting identity, or "unknown".
func ClientKey(ctx context.Context) string {
	if key, ok := ctx.Value(clientKeyCtx{}).(string); ok && key != "" {
		return key
	}
	return "unknown"
}

// LimitedRelay checks a SubmissionLimiter before handing the inquiry to the
// wrapped relay. A limiter that cannot answer lets the submission through.
type LimitedRelay struct {
	next    domain.MailRelay
	limiter domain.SubmissionLimiter
}

var _ domain.MailRelay = (*LimitedRelay)(nil)

func NewLimitedRelay(next domain.MailRelay, limiter domain.SubmissionLimiter) *LimitedRelay {
	return &LimitedRelay{next: next, limiter: limiter}
}

func (r *LimitedRelay) Send(ctx context.Context, fields domain.ContactFields) error {
	key := ClientKey(ctx)

	allowed, err := r.limiter.Allow(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Submission limiter unavailable, allowing request", "error", err)
	} else if !allowed {
		return domain.ErrSubmissionRateLimited
	}

	return r.next.Send(ctx, fields)
}
