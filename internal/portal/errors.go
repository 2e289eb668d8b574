package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationLayout means the login form is not what we expect.
	// The run cannot continue without a session.
	ErrAuthenticationLayout = errors.New("authentication layout not recognized")

	// ErrExtractionUnavailable means neither the main region nor the body
	// could be found when it was time to read the ledger.
	ErrExtractionUnavailable = errors.New("ledger container unavailable")

	// ErrStepSkipped marks an optional step that could not be completed.
	// The sequence logs it and moves on.
	ErrStepSkipped = errors.New("step skipped")
)

// StepError is a fatal failure of one portal state.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("portal %s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func skipped(err error) error {
	return fmt.Errorf("%w: %w", ErrStepSkipped, err)
}

func skippedf(format string, args ...any) error {
	return skipped(fmt.Errorf(format, args...))
}
