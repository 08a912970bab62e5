package sharpfeed

import (
	"errors"
	"fmt"
)

// Error codes returned by the sharp feed API. Code 0 is success; negative
// codes are faults. Only the session codes force re-authentication;
// everything else is a feed-specific fault handled by the caller.
const (
	codeOK             = 0
	codeSessionInvalid = -4
	codeRateLimited    = -6
)

// ErrSessionInvalid marks responses whose code indicates an expired or
// invalid session token.
var ErrSessionInvalid = errors.New("session invalid")

// ErrRateLimited marks responses rejected by the upstream rate limiter.
var ErrRateLimited = errors.New("rate limited by upstream")

// FeedError is a non-zero response code from the sharp feed.
type FeedError struct {
	Code    int
	Message string
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed error code %d: %s", e.Code, e.Message)
}

// Unwrap maps known codes onto sentinel errors so callers can classify
// with errors.Is.
func (e *FeedError) Unwrap() error {
	switch e.Code {
	case codeSessionInvalid:
		return ErrSessionInvalid
	case codeRateLimited:
		return ErrRateLimited
	default:
		return nil
	}
}
