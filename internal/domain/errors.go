package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("conflict")

	ErrCouponNotFound          = errors.New("coupon not found")
	ErrMinimumOrderNotMet      = errors.New("minimum order value not met")
	ErrMissingPaymentReference = errors.New("payment reference required")
	ErrSubmissionInProgress    = errors.New("order submission already in progress")
	ErrInvalidTransition       = errors.New("invalid state transition")
	ErrOrderSubmissionFailed   = errors.New("order submission failed")
)

// ValidationError reports user input that failed a local check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MinimumOrderError is returned when the subtotal is below a coupon's threshold.
type MinimumOrderError struct {
	Code      string
	Threshold Money
	Subtotal  Money
}

func (e *MinimumOrderError) Error() string {
	return fmt.Sprintf("coupon %s requires a minimum order of %s", e.Code, e.Threshold)
}

func (e *MinimumOrderError) Is(target error) bool {
	return target == ErrMinimumOrderNotMet
}

// OrderSubmissionError wraps a persistence failure during order placement.
// Error() is safe to show to a shopper; the cause is kept for operators.
type OrderSubmissionError struct {
	Stage string
	Cause error
}

func (e *OrderSubmissionError) Error() string {
	return "we could not place your order, please try again"
}

func (e *OrderSubmissionError) Unwrap() error {
	return e.Cause
}

func (e *OrderSubmissionError) Is(target error) bool {
	return target == ErrOrderSubmissionFailed
}

// TransitionError names the rejected move between two states.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
