package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// DefaultRetryAfter is used when a throttling response carries no hint.
const DefaultRetryAfter = 15 * time.Second

// ThrottleError indicates the provider rejected the call for rate reasons.
type ThrottleError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("%s throttled (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *ThrottleError) Unwrap() error {
	return e.Err
}

// NewThrottleError creates a ThrottleError. If retryAfterSecs is 0, DefaultRetryAfter is used.
func NewThrottleError(provider string, err error, retryAfterSecs int) *ThrottleError {
	retryAfter := DefaultRetryAfter
	if retryAfterSecs > 0 {
		retryAfter = time.Duration(retryAfterSecs) * time.Second
	}
	return &ThrottleError{Err: err, RetryAfter: retryAfter, Provider: provider}
}

// PermanentError is a failure that will not succeed on retry: malformed
// input, oversized payloads or an unparseable model response.
type PermanentError struct {
	Err      error
	Provider string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s permanent failure: %v", e.Provider, e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err as permanent.
func NewPermanentError(provider string, err error) *PermanentError {
	return &PermanentError{Err: err, Provider: provider}
}

// ErrorKind is the retry class of a provider error.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransient
	KindThrottled
	KindPermanent
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindThrottled:
		return "throttled"
	case KindPermanent:
		return "permanent"
	default:
		return "none"
	}
}

// Classify maps err to its retry class. Unrecognized errors are transient.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var te *ThrottleError
	if errors.As(err, &te) {
		return KindThrottled
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return KindPermanent
	}
	return KindTransient
}

// StatusError converts a non-200 HTTP response into the matching typed error.
func StatusError(provider string, status int, body []byte, retryAfterHeader string) error {
	base := fmt.Errorf("%s API error (status %d): %s", provider, status, truncate(string(body), 500))
	switch status {
	case http.StatusTooManyRequests:
		return NewThrottleError(provider, base, ParseRetryAfterHeader(retryAfterHeader))
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return NewPermanentError(provider, base)
	default:
		return base
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
