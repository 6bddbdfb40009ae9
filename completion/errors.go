package completion

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Outcome is the terminal state of one attempt.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeAuthFailure  Outcome = "auth_failure"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeOtherFailure Outcome = "other_failure"
)

var ErrNoModelAvailable = errors.New("no model available to complete the request")

// AuthError is returned by backends when the upstream rejects credentials.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("upstream rejected credentials: %v", e.Err)
	}
	return fmt.Sprintf("upstream %s rejected credentials: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TimeoutError means an attempt did not report back within the client timeout.
type TimeoutError struct {
	Model   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("completion with model %s timed out after %s", e.Model, e.Timeout)
}

// ExhaustedError is returned once every model failed. It unwraps to the last
// attempt's error so errors.As finds its kind.
type ExhaustedError struct {
	Attempts []Attempt
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d completion attempts failed, last: %v", len(e.Attempts), e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Classify maps an attempt error to its outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return OutcomeAuthFailure
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	return OutcomeOtherFailure
}

// Attempt records one model try.
type Attempt struct {
	Number    int
	Model     string
	Providers []string
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   Outcome
	Err       error
}

func (a Attempt) Latency() time.Duration {
	return a.EndedAt.Sub(a.StartedAt)
}
