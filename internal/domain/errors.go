package domain

import "errors"

// Sentinel errors for caller mistakes. Order outcomes are never errors; they
// are carried in Order.Status and Order.LastMsg.
// The handler layer maps these to HTTP status codes.
var (
	ErrDuplicateOrderID     = errors.New("duplicate_order_id")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrUnknownCommand       = errors.New("unknown_command")
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrReportNotFound       = errors.New("report_not_found")
	ErrWebhookNotFound      = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
