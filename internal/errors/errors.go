// Package errors provides centralized error definitions and error handling utilities
// for Cipher. It defines pipeline-specific errors, semantic error types, error
// constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Pipeline errors describe how a send operation ended:
//   - TransportError: the event stream could not be opened, or failed before
//     any event was delivered. Optimistic entries are rolled back.
//   - StreamError: the backend reported an in-band error event after zero or
//     more stages completed. Committed partial results are retained.
//   - APIError: the backend answered a request with a non-2xx status.
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or selection
//
// # Usage
//
//	err := errors.NewTransportError("open stream", cause).WithConversationID(id)
//
//	var streamErr *errors.StreamError
//	if errors.As(err, &streamErr) {
//	    fmt.Println(streamErr.Message) // verbatim backend message
//	}
//
//	if errors.Is(err, errors.ErrSendInFlight) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Pipeline sentinel errors
var (
	// ErrSendInFlight indicates a send was issued while another is still running.
	ErrSendInFlight = New("send already in flight")
	// ErrConversationNotLoaded indicates the target conversation is not the loaded one.
	ErrConversationNotLoaded = New("conversation not loaded")
	// ErrConversationNotFound indicates the backend has no such conversation.
	ErrConversationNotFound = New("conversation not found")
	// ErrStreamOpen indicates the event stream could not be opened.
	ErrStreamOpen = New("event stream could not be opened")
	// ErrStreamIncomplete indicates the stream closed without a terminal event.
	ErrStreamIncomplete = New("event stream ended without completion")
)

// Selection sentinel errors
var (
	// ErrTooManyMembers indicates the council member limit was reached.
	ErrTooManyMembers = New("too many council members")
	// ErrDuplicateMember indicates a member is already selected.
	ErrDuplicateMember = New("council member already selected")
	// ErrSameDebater indicates one persona was chosen for both debate sides.
	ErrSameDebater = New("persona already debating the other side")
	// ErrInvalidRounds indicates a round count outside the allowed range.
	ErrInvalidRounds = New("invalid number of rounds")
	// ErrUnknownPersona indicates a persona name or id that is not in the catalog.
	ErrUnknownPersona = New("unknown persona")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CipherError is the base interface for all Cipher errors.
type CipherError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if re-invoking the operation may succeed.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Pipeline Errors
// -----------------------------------------------------------------------------

// TransportError reports a stream that never started: it could not be opened
// or failed before a single event was delivered.
//
// Example:
//
//	err := errors.NewTransportError("open stream", cause).WithConversationID("c-1")
//	fmt.Println(err) // "transport error [conversation=c-1]: open stream: ..."
type TransportError struct {
	baseError
	ConversationID string
	StatusCode     int
}

// NewTransportError creates a new TransportError.
func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: true,
		},
	}
}

// WithConversationID adds the conversation ID to the error context.
func (e *TransportError) WithConversationID(id string) *TransportError {
	e.ConversationID = id
	return e
}

// WithStatusCode records the HTTP status. 4xx responses are not retryable.
func (e *TransportError) WithStatusCode(code int) *TransportError {
	e.StatusCode = code
	if code >= 400 && code < 500 {
		e.retryable = false
	}
	return e
}

// Error returns the formatted error message.
func (e *TransportError) Error() string {
	var parts []string
	if e.ConversationID != "" {
		parts = append(parts, fmt.Sprintf("conversation=%s", e.ConversationID))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	prefix := "transport error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("transport error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *TransportError) Is(target error) bool {
	if _, ok := target.(*TransportError); ok {
		return true
	}
	if target == ErrStreamOpen {
		return true
	}
	return e.baseError.Is(target)
}

// StreamError reports an in-band failure: the backend sent an error event
// (or the stream broke) after the pipeline had started.
//
// Example:
//
//	err := errors.NewStreamError("rate limited").WithPipeline("chat").WithCompletedStages(1)
//	fmt.Println(err.Message) // "rate limited"
type StreamError struct {
	baseError
	Message         string
	Pipeline        string
	ConversationID  string
	CompletedStages int
}

// NewStreamError creates a StreamError carrying the backend message verbatim.
func NewStreamError(message string) *StreamError {
	return &StreamError{
		baseError: baseError{
			message:    message,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Message: message,
	}
}

// WithPipeline names the pipeline that failed ("chat" or "debate").
func (e *StreamError) WithPipeline(name string) *StreamError {
	e.Pipeline = name
	return e
}

// WithConversationID adds the conversation ID to the error context.
func (e *StreamError) WithConversationID(id string) *StreamError {
	e.ConversationID = id
	return e
}

// WithCompletedStages records how many stages or phases were committed.
func (e *StreamError) WithCompletedStages(n int) *StreamError {
	e.CompletedStages = n
	return e
}

// WithCause adds a cause to the error.
func (e *StreamError) WithCause(cause error) *StreamError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *StreamError) Error() string {
	var parts []string
	if e.Pipeline != "" {
		parts = append(parts, fmt.Sprintf("pipeline=%s", e.Pipeline))
	}
	if e.ConversationID != "" {
		parts = append(parts, fmt.Sprintf("conversation=%s", e.ConversationID))
	}

	prefix := "stream error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("stream error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StreamError) Is(target error) bool {
	if _, ok := target.(*StreamError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// APIError represents a non-2xx response from the backend API.
type APIError struct {
	baseError
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// NewAPIError creates a new APIError. 5xx responses are retryable.
func NewAPIError(method, path string, status int, body string) *APIError {
	return &APIError{
		baseError: baseError{
			message:    fmt.Sprintf("%s %s returned %d", method, path, status),
			severity:   SeverityError,
			retryable:  status >= 500,
			userFacing: true,
		},
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       strings.TrimSpace(body),
	}
}

// Error returns the formatted error message.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api error: %s: %s", e.message, e.Body)
	}
	return fmt.Sprintf("api error: %s", e.message)
}

// Is checks if this error matches the target.
func (e *APIError) Is(target error) bool {
	if _, ok := target.(*APIError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("conversation", "abc123")
//	fmt.Println(err) // "conversation 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if e.ResourceType == "conversation" && target == ErrConversationNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or selection state.
//
// Example:
//
//	err := errors.NewValidationError("rounds out of range").WithField("num_rounds").WithValue(9)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if re-invoking the operation may succeed.
// Nothing in Cipher retries automatically; this only informs the caller.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cipherErr CipherError
	if As(err, &cipherErr) {
		return cipherErr.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var cipherErr CipherError
	if As(err, &cipherErr) {
		return cipherErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CipherError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var cipherErr CipherError
	if As(err, &cipherErr) {
		return cipherErr.Severity()
	}
	return SeverityError
}

// IsRollback reports whether the error ended a send before anything was
// committed, meaning optimistic entries were removed.
func IsRollback(err error) bool {
	var transportErr *TransportError
	return As(err, &transportErr)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
