// Package errors provides custom error types for the florasynth system.
// These errors enable programmatic error checking and carry the entity,
// module, and tier context needed to diagnose a failed pipeline run.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As, and Unwrap are aliases for their standard library counterparts so
// callers don't need a second errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Common sentinel errors for the florasynth system.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoData indicates a source had no data for the request (not a failure)
	ErrNoData = errors.New("no data")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrSourceUnavailable indicates that a knowledge source is temporarily unavailable
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates that an upstream rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrRunAborted indicates a critical module failure ended the run early
	ErrRunAborted = errors.New("run aborted")
)

// ConfigError represents a bad registry or application configuration.
// Config errors are fatal and detected before any module runs.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ContractError represents malformed module metadata or a run() output whose
// keys do not match the module's declared columns. Contract errors found at
// load time are fatal; at run time they mark the offending module Failed.
type ContractError struct {
	ModuleID string
	Message  string
}

// Error implements the error interface
func (e *ContractError) Error() string {
	if e.ModuleID != "" {
		return fmt.Sprintf("module %s violates its contract: %s", e.ModuleID, e.Message)
	}
	return fmt.Sprintf("module contract violation: %s", e.Message)
}

// Is implements errors.Is support
func (e *ContractError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewContractError creates a new ContractError
func NewContractError(moduleID, message string) *ContractError {
	return &ContractError{ModuleID: moduleID, Message: message}
}

// CycleError represents a dependency cycle among registered modules.
// It names every module left unresolvable once no progress could be made.
type CycleError struct {
	ModuleIDs []string
}

// Error implements the error interface
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among modules: %s", strings.Join(e.ModuleIDs, ", "))
}

// NewCycleError creates a new CycleError
func NewCycleError(moduleIDs []string) *CycleError {
	return &CycleError{ModuleIDs: moduleIDs}
}

// ModuleError represents a synthesis module failure during a pipeline run.
// Non-fatal unless the module is marked critical; the module's columns are
// simply absent from the output record.
type ModuleError struct {
	ModuleID string
	Entity   string
	Critical bool
	Err      error
}

// Error implements the error interface
func (e *ModuleError) Error() string {
	if e.Critical {
		return fmt.Sprintf("critical module %s failed for %s: %v", e.ModuleID, e.Entity, e.Err)
	}
	return fmt.Sprintf("module %s failed for %s: %v", e.ModuleID, e.Entity, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ModuleError) Is(target error) bool {
	return e.Critical && target == ErrRunAborted
}

// NewModuleError creates a new ModuleError
func NewModuleError(moduleID, entity string, critical bool, err error) *ModuleError {
	return &ModuleError{ModuleID: moduleID, Entity: entity, Critical: critical, Err: err}
}

// TierError represents a failure at one tier of the field protocol. It is
// never fatal: the tier's slot carries a failure marker and the sibling
// tiers are still reported.
type TierError struct {
	Field  string
	Entity string
	Tier   int
	Err    error
}

// Error implements the error interface
func (e *TierError) Error() string {
	return fmt.Sprintf("tier %d failed for field %s of %s: %v", e.Tier, e.Field, e.Entity, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TierError) Unwrap() error {
	return e.Err
}

// NewTierError creates a new TierError
func NewTierError(field, entity string, tier int, err error) *TierError {
	return &TierError{Field: field, Entity: entity, Tier: tier, Err: err}
}

// SinkError represents a failure writing records to the output sink.
// Fatal to the current run; already-written rows stand.
type SinkError struct {
	Sink    string
	Op      string // "ensure-schema", "append"
	Message string
	Err     error
}

// Error implements the error interface
func (e *SinkError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("sink %s failed during %s: %s", e.Sink, e.Op, e.Message)
	}
	return fmt.Sprintf("sink %s failed: %s", e.Sink, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *SinkError) Unwrap() error {
	return e.Err
}

// NewSinkError creates a new SinkError
func NewSinkError(sink, op string, err error) *SinkError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &SinkError{Sink: sink, Op: op, Message: message, Err: err}
}

// APIError represents an error from an upstream knowledge-source API.
type APIError struct {
	Source     string
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
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
		return target == ErrSourceUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{Source: source, StatusCode: statusCode, Message: message}
}

// ValidationError represents a validation failure on user or module input.
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

// ParseError represents an error when parsing data formats.
type ParseError struct {
	Format  string // "json", "yaml"
	Subject string // file path or upstream endpoint
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("parse error in %s from %s: %s", e.Format, e.Subject, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations.
type IOError struct {
	Operation string // "read", "write", "create", "delete"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoData checks if an error signals an empty (but successful) source response
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsSourceUnavailable checks if an error indicates source unavailability
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsRunAborted checks if an error came from a critical module failure
func IsRunAborted(err error) bool {
	return errors.Is(err, ErrRunAborted)
}

// IsFatalLoad reports whether an error must abort module loading entirely.
// Loading is all-or-nothing: any config, contract, or cycle error qualifies.
func IsFatalLoad(err error) bool {
	var cfg *ConfigError
	var contract *ContractError
	var cycle *CycleError
	return errors.As(err, &cfg) || errors.As(err, &contract) || errors.As(err, &cycle)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, Subject: subject, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(source string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Source: source, StatusCode: statusCode, Message: err.Error(), Err: err}
}
