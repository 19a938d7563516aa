package booking

import (
	"fmt"
	"strings"
)

// ValidationError is a soft failure: the request is reported back with outcome "error".
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string { return e.Message }

// ConfigurationError aborts before any store access.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "incomplete configuration: missing " + strings.Join(e.Missing, ", ")
}

// UpstreamError wraps a record-store failure. Nothing is compensated.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("record store %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
