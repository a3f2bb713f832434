package common

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the monitoring, comparison and switching layers.
var (
	// ErrIO indicates a read, write or stat failure
	ErrIO = errors.New("i/o error")
	// ErrParse indicates content that is not valid JSON
	ErrParse = errors.New("parse error")
	// ErrValidation indicates a syntax or semantic rule violation
	ErrValidation = errors.New("validation error")
	// ErrProfileNotFound indicates an unknown profile id
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileAlreadyExists indicates a create on an existing name
	ErrProfileAlreadyExists = errors.New("profile already exists")
	// ErrInvalidProfileContent indicates a profile that cannot become the live configuration
	ErrInvalidProfileContent = errors.New("invalid profile content")
	// ErrSwitchFailed indicates a switch that was rolled back
	ErrSwitchFailed = errors.New("switch failed")
	// ErrBusy indicates lock contention on a non-blocking path
	ErrBusy = errors.New("resource busy")
	// ErrScanErrorBudgetExceeded indicates a monitored file that failed too many consecutive scans
	ErrScanErrorBudgetExceeded = errors.New("scan error budget exceeded")
	// ErrMonitorCapacity indicates the monitored-file set is full
	ErrMonitorCapacity = errors.New("monitor capacity reached")
	// ErrInvalidConfiguration indicates configuration issues
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// IOError describes a failed file system operation on a path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports ErrIO so callers can match the category without knowing the cause.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIOError creates a new I/O error
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// ParseError describes content that could not be decoded as JSON.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid JSON: %v", e.Err)
	}
	return fmt.Sprintf("invalid JSON in %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new parse error for the named source
func NewParseError(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// ProfileError ties one of the profile sentinels to the profile it concerns.
type ProfileError struct {
	ProfileID string
	Kind      error
	Err       error
}

func (e *ProfileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s '%s': %v", e.Kind, e.ProfileID, e.Err)
	}
	return fmt.Sprintf("%s: '%s'", e.Kind, e.ProfileID)
}

func (e *ProfileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewProfileError creates a new profile error of the given kind
func NewProfileError(profileID string, kind error, cause error) *ProfileError {
	return &ProfileError{ProfileID: profileID, Kind: kind, Err: cause}
}

// ScanBudgetError reports a monitored file whose consecutive scan failures reached the budget.
type ScanBudgetError struct {
	Path   string
	Errors int
	Last   error
}

func (e *ScanBudgetError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("monitoring suspended for '%s' after %d consecutive errors: %v", e.Path, e.Errors, e.Last)
	}
	return fmt.Sprintf("monitoring suspended for '%s' after %d consecutive errors", e.Path, e.Errors)
}

func (e *ScanBudgetError) Unwrap() error {
	return e.Last
}

func (e *ScanBudgetError) Is(target error) bool {
	return target == ErrScanErrorBudgetExceeded
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Section string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Section != "" && e.Field != "" {
		return fmt.Sprintf("configuration error in section '%s', field '%s': %s", e.Section, e.Field, e.Reason)
	} else if e.Section != "" {
		return fmt.Sprintf("configuration error in section '%s': %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(section, field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Section: section,
		Field:   field,
		Reason:  reason,
	}
}

// GetRootCause returns the root cause of an error by unwrapping all wrapped errors
func GetRootCause(err error) error {
	for {
		wrapped := errors.Unwrap(err)
		if wrapped == nil {
			return err
		}
		err = wrapped
	}
}

// CombineErrors combines multiple errors into a single error with formatted message
func CombineErrors(errs []error) error {
	var messages []string
	var kept []error
	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
			kept = append(kept, err)
		}
	}

	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}

	return fmt.Errorf("multiple errors occurred: [%s]", strings.Join(messages, "; "))
}

// ErrorCollector helps collect multiple errors during processing
type ErrorCollector struct {
	errors []error
}

// Add adds an error to the collector
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

// AddWithContext adds an error with additional context
func (ec *ErrorCollector) AddWithContext(err error, context string) {
	if err != nil {
		ec.errors = append(ec.errors, WrapError(err, context))
	}
}

// HasErrors returns true if any errors were collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// Error returns a combined error from all collected errors
func (ec *ErrorCollector) Error() error {
	return CombineErrors(ec.errors)
}

// Errors returns all collected errors
func (ec *ErrorCollector) Errors() []error {
	return ec.errors
}
