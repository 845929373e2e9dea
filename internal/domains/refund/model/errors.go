package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrValidation          = errors.New("validation failed")
	ErrForbidden           = errors.New("permission denied")
	ErrUserNotFound        = errors.New("user not found")
	ErrRefundNotFound      = errors.New("refund not found")
	ErrInvalidAction       = errors.New("invalid refund action")
	ErrActionFailed        = errors.New("refund action failed")
	ErrLineAlreadyRefunded = errors.New("order line already refunded")
)

// =====================================================
// CUSTOM REFUND ERROR
// =====================================================

type RefundError struct {
	Code    string
	Message string
	Err     error

	// Refund is the state of the refund after a failed action.
	Refund *RefundResponse
}

func (e *RefundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RefundError) Unwrap() error {
	return e.Err
}

func NewRefundError(code, message string, err error) *RefundError {
	return &RefundError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewValidationError(message string) *RefundError {
	return NewRefundError(ErrCodeValidation, message, ErrValidation)
}

func NewForbiddenError(message string) *RefundError {
	return NewRefundError(ErrCodeForbidden, message, ErrForbidden)
}

func NewUserNotFoundError(username string) *RefundError {
	return NewRefundError(
		ErrCodeUserNotFound,
		fmt.Sprintf("User \"%s\" does not exist.", username),
		ErrUserNotFound,
	)
}

func NewRefundNotFoundError(id uuid.UUID) *RefundError {
	return NewRefundError(
		ErrCodeRefundNotFound,
		fmt.Sprintf("Refund %s not found.", id),
		ErrRefundNotFound,
	)
}

func NewInvalidActionError(action string) *RefundError {
	return NewRefundError(
		ErrCodeInvalidAction,
		fmt.Sprintf("Refund action [%s] is not valid. Choose one of approve, approve_payment_only, deny.", action),
		ErrInvalidAction,
	)
}

func NewActionFailureError(action Action, reason string, refund *RefundResponse) *RefundError {
	e := NewRefundError(
		ErrCodeActionFailed,
		fmt.Sprintf("Failed to %s refund: %s", action, reason),
		ErrActionFailed,
	)
	e.Refund = refund
	return e
}

func NewLineAlreadyRefundedError(err error) *RefundError {
	return NewRefundError(
		ErrCodeLineAlreadyRefunded,
		"One or more order lines already have an active refund.",
		errors.Join(ErrLineAlreadyRefunded, err),
	)
}
