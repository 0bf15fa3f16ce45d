package domain

import "errors"

var (
	ErrUnknownSection        = errors.New("unknown section")
	ErrSectionNotRegistered  = errors.New("section not registered")
	ErrUnknownField          = errors.New("unknown contact form field")
	ErrSubmissionRateLimited = errors.New("submission rate limit exceeded")
)
