package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCategory(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{ErrInvalidAmount, "invalid-amount"},
		{ErrInsufficientGas, "insufficient-gas"},
		{ErrInsufficientBalance, "insufficient-balance"},
		{ErrPoolFull, "pool-full"},
		{ErrDepositLimitExceeded, "deposit-limit-exceeded"},
		{ErrBrokerNotFound, "broker-not-found"},
		{ErrTicketRequest, "ticket-request-failed"},
		{ErrSimulationFailed, "simulation-failed"},
		{ErrSigningTimeout, "signing-timeout"},
		{ErrSubmissionFailed, "submission-failed"},
		{ErrConfirmationFailed, "confirmation-failed"},
		{fmt.Errorf("wrapped: %w", ErrPoolFull), "pool-full"},
		{context.Canceled, "canceled"},
		{context.DeadlineExceeded, "canceled"},
		{fmt.Errorf("awaiting signature: %w", context.Canceled), "canceled"},
		{errors.New("anything else"), "internal"},
	}
	for _, tc := range cases {
		if got := Category(tc.err); got != tc.want {
			t.Fatalf("Category(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestClassifySimulation(t *testing.T) {
	eng := newTestEngine(t, &fakeBackend{}, healthyNode(), nil)
	broker := usdcBroker()
	req := Request{Operation: OpSupply, Amount: "10"}

	cases := []struct {
		name     string
		vmStatus string
		want     error
	}{
		{name: "insufficient balance", vmStatus: "INSUFFICIENT_BALANCE", want: ErrInsufficientBalance},
		{name: "move einsufficient code", vmStatus: "Move abort: EINSUFFICIENT_FUNDS", want: ErrInsufficientBalance},
		{name: "deposit limit", vmStatus: "DEPOSIT_LIMIT_REACHED", want: ErrDepositLimitExceeded},
		{name: "move edeposit code", vmStatus: "abort EDEPOSIT_CAP", want: ErrDepositLimitExceeded},
		{name: "move abort with code", vmStatus: "Move abort in 0xc0ffee::broker: 0x30001", want: ErrSimulationFailed},
		{name: "move abort without code", vmStatus: "Move abort in 0x1::coin", want: ErrSimulationFailed},
		{name: "anything else", vmStatus: "EXECUTION_LIMIT_REACHED", want: ErrSimulationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := eng.classifySimulation(tc.vmStatus, req, &broker)
			if !errors.Is(err, tc.want) {
				t.Fatalf("classify(%q) = %v, want %v", tc.vmStatus, err, tc.want)
			}
		})
	}
}

func TestClassifySimulationExtractsAbortLocation(t *testing.T) {
	eng := newTestEngine(t, &fakeBackend{}, healthyNode(), nil)
	broker := usdcBroker()
	err := eng.classifySimulation("Move abort in 0xc0ffee::broker: 0x30001", Request{Operation: OpSupply}, &broker)
	if err == nil || !errors.Is(err, ErrSimulationFailed) {
		t.Fatalf("got %v", err)
	}
	msg := err.Error()
	if want := "0xc0ffee::broker"; !strings.Contains(msg, want) {
		t.Fatalf("message %q missing %q", msg, want)
	}
	if want := "0x30001"; !strings.Contains(msg, want) {
		t.Fatalf("message %q missing %q", msg, want)
	}
}
