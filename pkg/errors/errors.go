// Package errors provides the error taxonomy for the osiris aggregation core.
// Typed errors carry the context needed to record a feed status or map a
// failure to an HTTP response, and all of them support errors.Is against the
// sentinels declared here.
package errors

import (
	"errors"
	"fmt"
)

// Aliases for the standard library so callers need a single errors import.
var (
	New  = errors.New
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Sentinel errors
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates missing credentials or settings for a component
	ErrNotConfigured = errors.New("not configured")

	// ErrFetchFailed indicates a connector could not produce events
	ErrFetchFailed = errors.New("fetch failed")

	// ErrEnrichmentFailed indicates embedding, extraction or indexing failed for a batch
	ErrEnrichmentFailed = errors.New("enrichment failed")

	// ErrStoreInvariant indicates the event store broke one of its own guarantees
	ErrStoreInvariant = errors.New("store invariant violated")

	// ErrDeliveryFailed indicates a push to a live subscriber failed
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrUpstreamUnavailable indicates an upstream feed or backend is temporarily unavailable
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrRateLimited indicates that an upstream rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigurationError reports a missing credential or an invalid setting.
// A connector that returns one is treated as unconfigured, not failed.
type ConfigurationError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrNotConfigured
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(component, message string, err error) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: message, Err: err}
}

// FetchError wraps a connector's network or parse failure.
type FetchError struct {
	Connector string
	Err       error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v", e.Connector, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// NewFetchError creates a new FetchError
func NewFetchError(connector string, err error) *FetchError {
	return &FetchError{Connector: connector, Err: err}
}

// EnrichmentError reports a failure in one of the enrichment stages
// ("entities", "embed", "index") for a connector's batch.
type EnrichmentError struct {
	Connector string
	Stage     string
	Err       error
}

// Error implements the error interface
func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment (%s) for %s failed: %v", e.Stage, e.Connector, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *EnrichmentError) Is(target error) bool {
	return target == ErrEnrichmentFailed
}

// NewEnrichmentError creates a new EnrichmentError
func NewEnrichmentError(connector, stage string, err error) *EnrichmentError {
	return &EnrichmentError{Connector: connector, Stage: stage, Err: err}
}

// StoreInvariantViolation is raised when the bounded store observes a state it
// should never reach. It always indicates a bug.
type StoreInvariantViolation struct {
	Invariant string
	Length    int
	Capacity  int
}

// Error implements the error interface
func (e *StoreInvariantViolation) Error() string {
	return fmt.Sprintf("store invariant %q violated: length %d, capacity %d", e.Invariant, e.Length, e.Capacity)
}

// Is implements errors.Is support
func (e *StoreInvariantViolation) Is(target error) bool {
	return target == ErrStoreInvariant
}

// DeliveryError reports a failed push to a live subscriber.
type DeliveryError struct {
	Subscriber string
	Err        error
}

// Error implements the error interface
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to subscriber %s failed: %v", e.Subscriber, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}

// NewDeliveryError creates a new DeliveryError
func NewDeliveryError(subscriber string, err error) *DeliveryError {
	return &DeliveryError{Subscriber: subscriber, Err: err}
}

// APIError represents a non-success response from an upstream feed or backend
type APIError struct {
	Upstream   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Upstream, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Upstream, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrUpstreamUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(upstream string, statusCode int, message string) *APIError {
	return &APIError{
		Upstream:   upstream,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ParseError represents an error when decoding a payload
type ParseError struct {
	Format  string // "json", "geojson", "sql", etc.
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s parse error in %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, source, message string, err error) *ParseError {
	return &ParseError{Format: format, Source: source, Message: message, Err: err}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "open", "migrate", "upsert", "search", "record"
	Resource  string // "collection", "cycle log", "embedding"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration, Message: message}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotConfigured checks if an error reports missing configuration
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsFetchError checks if an error is a connector fetch failure
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsEnrichmentError checks if an error is an enrichment failure
func IsEnrichmentError(err error) bool {
	return errors.Is(err, ErrEnrichmentFailed)
}

// IsDeliveryError checks if an error is a subscriber delivery failure
func IsDeliveryError(err error) bool {
	return errors.Is(err, ErrDeliveryFailed)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsUpstreamUnavailable checks if an error indicates upstream unavailability
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, source, err.Error(), err)
}

// WrapFetch wraps an error as a FetchError unless it already is one or reports
// missing configuration.
func WrapFetch(connector string, err error) error {
	if err == nil {
		return nil
	}
	if IsFetchError(err) || IsNotConfigured(err) {
		return err
	}
	return NewFetchError(connector, err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(upstream string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Upstream:   upstream,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
