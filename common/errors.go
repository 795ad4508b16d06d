package common

import "errors"

// Error kinds surfaced to callers, matched with errors.Is. Wrap with
// fmt.Errorf("%w: ...") to attach detail.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already listed")
	ErrUnauthorized        = errors.New("not authorized")
	ErrInvalidState        = errors.New("listing is not active")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidTip          = errors.New("tip must be 0%, 2.5% or 5%")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrUnderfunded         = errors.New("inputs do not cover outputs")
	ErrInvalidAddress      = errors.New("invalid address")
	ErrMalformedTx         = errors.New("malformed transaction")
	ErrBroadcastRejected   = errors.New("broadcast rejected")
	ErrExternalUnavailable = errors.New("external service unavailable")
	ErrStorage             = errors.New("storage failure")
)
