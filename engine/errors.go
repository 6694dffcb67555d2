package engine

import (
	"context"
	"errors"
)

// Sentinel error kinds surfaced at the pipeline boundary. Every failure is
// terminal for its invocation; the caller decides whether to re-run.
var (
	ErrInvalidAmount        = errors.New("engine: invalid amount")
	ErrInsufficientGas      = errors.New("engine: insufficient gas")
	ErrInsufficientBalance  = errors.New("engine: insufficient balance")
	ErrPoolFull             = errors.New("engine: pool deposit capacity reached")
	ErrDepositLimitExceeded = errors.New("engine: deposit limit exceeded")
	ErrBrokerNotFound       = errors.New("engine: broker not found")
	ErrTicketRequest        = errors.New("engine: ticket request failed")
	ErrSimulationFailed     = errors.New("engine: simulation failed")
	ErrSigningTimeout       = errors.New("engine: signing timed out")
	ErrSubmissionFailed     = errors.New("engine: submission failed")
	ErrConfirmationFailed   = errors.New("engine: confirmation failed")
)

// Category maps an error to a stable label for metrics and UI branching.
func Category(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid-amount"
	case errors.Is(err, ErrInsufficientGas):
		return "insufficient-gas"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient-balance"
	case errors.Is(err, ErrPoolFull):
		return "pool-full"
	case errors.Is(err, ErrDepositLimitExceeded):
		return "deposit-limit-exceeded"
	case errors.Is(err, ErrBrokerNotFound):
		return "broker-not-found"
	case errors.Is(err, ErrTicketRequest):
		return "ticket-request-failed"
	case errors.Is(err, ErrSimulationFailed):
		return "simulation-failed"
	case errors.Is(err, ErrSigningTimeout):
		return "signing-timeout"
	case errors.Is(err, ErrSubmissionFailed):
		return "submission-failed"
	case errors.Is(err, ErrConfirmationFailed):
		return "confirmation-failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
