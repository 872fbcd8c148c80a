// Package errors provides categorized errors for the risk engine. Categories
// drive recovery: a store failure is retried, a config failure stops the
// engine, a validation failure skips the offending signal.
package errors

import (
	"fmt"
	"strings"
)

// Category classifies an engine error for recovery decisions.
type Category string

const (
	// Fatal categories stop the engine.
	CategoryFatal  Category = "FATAL"
	CategoryConfig Category = "CONFIG"

	// Recoverable categories skip the current item or retry.
	CategoryValidation Category = "VALIDATION"
	CategoryMarketData Category = "MARKET_DATA"
	CategoryStore      Category = "STORE"
	CategoryExecution  Category = "EXECUTION"
	CategoryNotify     Category = "NOTIFY"
	CategoryTemporary  Category = "TEMPORARY"
)

// EngineError is a categorized error with the component and operation that
// produced it.
type EngineError struct {
	Category   Category
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether the failed operation may be retried.
func (e *EngineError) IsRetryable() bool {
	return e.Retryable
}

// IsFatal reports whether the engine should stop on this error.
func (e *EngineError) IsFatal() bool {
	return e.Category == CategoryFatal || e.Category == CategoryConfig
}

// WithContext attaches a key-value pair for structured logging.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRetryable overrides the category's default retryability.
func (e *EngineError) WithRetryable(retryable bool) *EngineError {
	e.Retryable = retryable
	return e
}

// New creates a categorized error.
func New(category Category, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Retryable: defaultRetryable(category),
	}
}

// Wrap attaches category and component context to an existing error.
// Wrapping nil returns nil.
func Wrap(err error, category Category, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Retryable:  defaultRetryable(category),
	}
}

func defaultRetryable(category Category) bool {
	switch category {
	case CategoryFatal, CategoryConfig, CategoryValidation:
		return false
	default:
		return true
	}
}

// Categorize wraps a generic error, inferring a category from its message.
// Already-categorized errors pass through unchanged.
func Categorize(err error, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	if engErr, ok := err.(*EngineError); ok {
		return engErr
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return Wrap(err, CategoryTemporary, component, operation)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "dial"):
		return Wrap(err, CategoryTemporary, component, operation)
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "malformed") || strings.Contains(msg, "unrecognized"):
		return Wrap(err, CategoryValidation, component, operation)
	case strings.Contains(msg, "not found") || strings.Contains(msg, "state file"):
		return Wrap(err, CategoryStore, component, operation)
	default:
		return Wrap(err, CategoryTemporary, component, operation)
	}
}

// Constructors for the common cases.

func NewConfigError(component, operation, message string) *EngineError {
	return New(CategoryConfig, component, operation, message)
}

func NewValidationError(component, operation, message string) *EngineError {
	return New(CategoryValidation, component, operation, message)
}

func NewMarketDataError(component, operation string, err error) *EngineError {
	return Wrap(err, CategoryMarketData, component, operation)
}

func NewStoreError(component, operation string, err error) *EngineError {
	return Wrap(err, CategoryStore, component, operation)
}

func NewExecutionError(component, operation string, err error) *EngineError {
	return Wrap(err, CategoryExecution, component, operation)
}

func NewFatalError(component, operation, message string) *EngineError {
	return New(CategoryFatal, component, operation, message)
}
