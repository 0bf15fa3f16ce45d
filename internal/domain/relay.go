package domain

import "context"

// MailRelay delivers a contact inquiry to the external mail service.
// Any non-nil error means the inquiry was not accepted.
type MailRelay interface {
	Send(ctx context.Context, fields ContactFields) error
}

// SubmissionLimiter enforces per-client submission rate limits using a token bucket algorithm.
type SubmissionLimiter interface {
	// Allow reports whether the client identified by key may submit now.
	// Returns true if allowed (token consumed), false if rate limited.
	Allow(ctx context.Context, key string) (bool, error)
}
