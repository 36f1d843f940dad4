// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidWatch       = errors.New("invalid watch")
	ErrWatchNotFound      = errors.New("watch not found")
	ErrPositionNotFound   = errors.New("position not found")
	ErrStoreClosed        = errors.New("store closed")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// QuoteError represents a failure to fetch market data for a symbol.
// It matches ErrQuoteUnavailable so callers can skip-and-log uniformly.
type QuoteError struct {
	Symbol  string
	Message string
	Err     error
}

func (e *QuoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quote error [%s]: %s: %v", e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("quote error [%s]: %s", e.Symbol, e.Message)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

func (e *QuoteError) Is(target error) bool {
	return target == ErrQuoteUnavailable
}

// NewQuoteError creates a new QuoteError.
func NewQuoteError(symbol, message string, err error) *QuoteError {
	return &QuoteError{
		Symbol:  symbol,
		Message: message,
		Err:     err,
	}
}

// TradeError represents a rejected trade operation. No state is mutated
// when a TradeError is returned.
type TradeError struct {
	Symbol string
	Side   string
	Reason string
	Err    error
}

func (e *TradeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trade error [%s %s]: %s: %v", e.Side, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("trade error [%s %s]: %s", e.Side, e.Symbol, e.Reason)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError creates a new TradeError.
func NewTradeError(symbol, side, reason string, err error) *TradeError {
	return &TradeError{
		Symbol: symbol,
		Side:   side,
		Reason: reason,
		Err:    err,
	}
}

// ValidationError represents a validation error at the input boundary.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StoreError represents a persistence failure. A failed save after a
// mutation is logged and retried on the next mutation; in-memory state
// stays authoritative until a save succeeds.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
