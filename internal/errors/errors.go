// Package errors defines the error categories shared by every roleguard layer. Domain
// errors wrap one of these sentinels so callers can classify a failure without knowing
// the domain error itself.
package errors

import (
	"errors"
	"fmt"
)

// Error categories.
var (
	// ErrNotFound indicates the requested user or audit entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the request conflicts with the stored state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the actor is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates a collaborating store failed; the operation may be retried.
	ErrUnavailable = errors.New("unavailable")
)

// Process exit codes returned by ExitCode. ExitUnavailable is sysexits' EX_TEMPFAIL.
const (
	ExitOK           = 0
	ExitInternal     = 1
	ExitInvalidInput = 2
	ExitForbidden    = 3
	ExitNotFound     = 4
	ExitConflict     = 5
	ExitUnavailable  = 75
)

var categories = []struct {
	err  error
	kind string
	exit int
}{
	{ErrInvalidInput, "invalid_input", ExitInvalidInput},
	{ErrForbidden, "forbidden", ExitForbidden},
	{ErrNotFound, "not_found", ExitNotFound},
	{ErrConflict, "conflict", ExitConflict},
	{ErrUnavailable, "unavailable", ExitUnavailable},
}

// New returns a plain error with message.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message, keeping err in the chain. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Kind returns the category name of err: "invalid_input", "forbidden", "not_found",
// "conflict", "unavailable", "internal" for anything else and "" for nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.kind
		}
	}
	return "internal"
}

// ExitCode maps err onto the process exit status used by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.exit
		}
	}
	return ExitInternal
}
