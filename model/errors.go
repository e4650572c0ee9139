package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a model-backed stage has no client.
	ErrConfiguration = errors.New("model client not configured")

	// ErrNotLoaded is returned when searching an index that was neither built nor loaded.
	ErrNotLoaded = errors.New("index not loaded")

	// ErrNotFound is returned when an index artifact is missing.
	ErrNotFound = errors.New("index artifact not found")
)

// ResponseFormatError reports a model reply that could not be parsed.
type ResponseFormatError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("%s: unparsable model response: %v", e.Stage, e.Err)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// CorruptIndexError reports an artifact pair that is inconsistent.
type CorruptIndexError struct {
	Reason string
}

func (e *CorruptIndexError) Error() string {
	return "corrupt index: " + e.Reason
}

// DimensionMismatchError reports an embedding whose length differs from
// the dimension fixed by the first vector added to the store.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// ToolExecutionError wraps a failure raised by a tool handler.
type ToolExecutionError struct {
	ToolID string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.ToolID, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
