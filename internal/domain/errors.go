package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the run's failure taxonomy.
var (
	ErrAuth              = errors.New("source auth error")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrNoCandidate       = errors.New("no candidate")
	ErrExhausted         = errors.New("all sources exhausted")
	ErrPublish           = errors.New("publish error")
)

// SourceError ties a failure to the source that produced it. Kind is one of the sentinels above.
type SourceError struct {
	Source string
	Kind   error
	Err    error
}

// NewSourceError builds a SourceError for source with the given kind and cause.
func NewSourceError(source string, kind, err error) *SourceError {
	return &SourceError{Source: source, Kind: kind, Err: err}
}

func (e *SourceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("source %s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("source %s: %v: %v", e.Source, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *SourceError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// PublishFailure wraps err so that errors.Is(err, ErrPublish) holds.
func PublishFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPublish, op, err)
}
