package model

// =====================================================
// REFUND STATUS
// =====================================================
const (
	RefundStatusOpen               = "Open"
	RefundStatusPaymentRefundError = "Payment Refund Error"
	RefundStatusPaymentRefunded    = "Payment Refunded"
	RefundStatusRevocationError    = "Revocation Error"
	RefundStatusComplete           = "Complete"
	RefundStatusDenied             = "Denied"
)

// =====================================================
// REFUND LINE STATUS
// =====================================================
const (
	RefundLineStatusOpen            = "Open"
	RefundLineStatusRevocationError = "Revocation Error"
	RefundLineStatusComplete        = "Complete"
	RefundLineStatusDenied          = "Denied"
)

// =====================================================
// ACTIONS
// =====================================================

// Action is a decision a staff member takes on a refund.
type Action string

const (
	ActionApprove            Action = "approve"
	ActionApprovePaymentOnly Action = "approve_payment_only"
	ActionDeny               Action = "deny"
)

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeValidation          = "REF001"
	ErrCodeForbidden           = "REF002"
	ErrCodeUserNotFound        = "REF003"
	ErrCodeRefundNotFound      = "REF004"
	ErrCodeInvalidAction       = "REF005"
	ErrCodeActionFailed        = "REF006"
	ErrCodeLineAlreadyRefunded = "REF007"
)
