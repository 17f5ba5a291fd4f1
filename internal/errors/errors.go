package errors

import (
	"fmt"
)

type ErrorCode string

const (
	AccountNotFound        ErrorCode = "account_not_found"
	CardLocked             ErrorCode = "card_locked"
	AuthRejected           ErrorCode = "auth_rejected"
	InvalidInput           ErrorCode = "invalid_input"
	InvalidAmount          ErrorCode = "invalid_amount"
	InsufficientFunds      ErrorCode = "insufficient_funds"
	CurrencyNotOpen        ErrorCode = "currency_not_open"
	SelfTransfer           ErrorCode = "self_transfer"
	DestinationNotFound    ErrorCode = "destination_not_found"
	DuplicateCard          ErrorCode = "duplicate_card"
	CannotBeginTransaction ErrorCode = "cannot_begin_transaction"
	InternalError          ErrorCode = "internal_error"
)

// AppError is the typed result every failed operation resolves to. Meta
// carries structured values the terminal layer renders (remaining attempts,
// maximum dispensable amount, suggested deposit), so callers never have to
// parse messages.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details string         `json:"details,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithMeta(key string, value any) *AppError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[key] = value
	return e
}

// Predefined errors for common cases
var (
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrCardLocked             = NewAppError(CardLocked, "card is locked, contact the bank branch to unlock it")
	ErrCurrencyNotOpen        = NewAppError(CurrencyNotOpen, "no account is open in this currency")
	ErrSelfTransfer           = NewAppError(SelfTransfer, "cannot transfer to your own card")
	ErrDestinationNotFound    = NewAppError(DestinationNotFound, "destination card does not exist")
	ErrDuplicateCard          = NewAppError(DuplicateCard, "card number already exists")
	ErrCannotBeginTransaction = NewAppError(CannotBeginTransaction, "executor cannot begin a transaction")
)
