// Package errors provides standardized error types and helpers for the PML writer core.
package errors

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for common cases
var (
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownTag indicates an element tag outside the IR vocabulary
	ErrUnknownTag = errors.New("unknown tag")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// WriteError represents a failure while rendering an IR node. It carries both
// the node's range in the IR string and, when the producer recorded them, the
// offsets into the original user-authored source, so callers can underline
// the exact span of user text responsible.
type WriteError struct {
	Message     string // Human-readable error message
	IRStart     int    // Start offset of the offending node in the IR string
	IREnd       int    // End offset (inclusive) in the IR string
	SourceStart int    // original-start-index, or -1 if not recorded
	SourceEnd   int    // original-end-index, or -1 if not recorded
	Fragment    string // The offending fragment of the IR string
	Err         error  // Underlying error, if any
}

func (e *WriteError) Error() string {
	if e.SourceStart >= 0 {
		return fmt.Sprintf("%s (source %d-%d, ir %d-%d)", e.Message, e.SourceStart, e.SourceEnd, e.IRStart, e.IREnd)
	}
	return fmt.Sprintf("%s (ir %d-%d)", e.Message, e.IRStart, e.IREnd)
}

func (e *WriteError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ParseError represents a failure to parse the IR string itself.
type ParseError struct {
	Format  string // Format being parsed (e.g., "IR", "JSON")
	Offset  int    // Byte offset of the failure, -1 if unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("failed to parse %s at offset %d: %s", e.Format, e.Offset, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or element combination.
type UnsupportedError struct {
	Feature string // Feature or element that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NewParse creates a ParseError.
func NewParse(format string, offset int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Offset:  offset,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError.
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Collection accumulates write errors and warnings for one top-level render.
// A render always runs to completion; every structural failure is appended
// here and the offending node degrades to empty output. One Collection is
// created per render call and threaded through every writer, so independent
// renders share no state. The mutex makes a single Collection safe to share
// if a caller chooses to render subtrees concurrently.
type Collection struct {
	mu       sync.Mutex
	errs     []*WriteError
	warnings []string
}

// NewCollection creates an empty error collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends a write error to the collection.
func (c *Collection) Add(err *WriteError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// Warn appends a non-fatal warning message to the collection.
func (c *Collection) Warn(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Errors returns the accumulated errors in the order they were recorded.
func (c *Collection) Errors() []*WriteError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*WriteError, len(c.errs))
	copy(out, c.errs)
	return out
}

// Warnings returns the accumulated warnings in the order they were recorded.
func (c *Collection) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Len returns the number of accumulated errors.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// First returns the first accumulated error, or nil if the render succeeded.
// Typical caller policy: render to completion, then reject on First.
func (c *Collection) First() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs[0]
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
