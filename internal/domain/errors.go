package domain

import (
	"errors"
	"fmt"
)

// ErrMissingData marks a payload that produced no usable rows. Callers log it
// and carry on with an empty result.
var ErrMissingData = errors.New("no usable rows in payload")

// FormatError reports an unparseable timestamp or payload structure.
// It is row-local: the parser skips the row and keeps going.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unrecognized format: %q", e.Input)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Input)
}

// UpstreamFetchError wraps a failure to reach or read an SWPC feed.
type UpstreamFetchError struct {
	Feed string
	Err  error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Feed, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// ValidationError rejects a caller-supplied parameter before any work is done.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
