package engine

import (
	"fmt"
	"regexp"
	"strings"

	"movelend/lending"
)

// moveAbortPattern extracts the aborting module and code from a Move abort
// VM status, e.g. "Move abort in 0xabc::broker: 0x30001".
var moveAbortPattern = regexp.MustCompile(`Move abort in ([0-9a-fx]+::\w+)(?:::\w+)?:?\s*(0x[0-9a-fA-F]+|\d+)?`)

// classifySimulation folds a failed simulation's VM status into one of the
// pipeline's sentinel kinds. Statuses the protocol is known to emit get a
// specific kind; everything else is a generic simulation failure carrying the
// raw status for diagnosis.
func (e *Engine) classifySimulation(vmStatus string, req Request, broker *lending.Broker) error {
	upper := strings.ToUpper(vmStatus)

	switch {
	case strings.Contains(upper, "INSUFFICIENT_BALANCE"),
		strings.Contains(upper, "EINSUFFICIENT"):
		return fmt.Errorf("%w: %s of %s %s rejected on chain: %s",
			ErrInsufficientBalance, req.Operation, req.Amount, broker.UnderlyingAsset.Name, vmStatus)
	case strings.Contains(upper, "DEPOSIT_LIMIT"),
		strings.Contains(upper, "EDEPOSIT"):
		return fmt.Errorf("%w: market %s cannot accept %s %s: %s",
			ErrDepositLimitExceeded, broker.Name, req.Amount, broker.UnderlyingAsset.Name, vmStatus)
	}

	if m := moveAbortPattern.FindStringSubmatch(vmStatus); m != nil {
		if m[2] != "" {
			return fmt.Errorf("%w: abort in %s with code %s", ErrSimulationFailed, m[1], m[2])
		}
		return fmt.Errorf("%w: abort in %s", ErrSimulationFailed, m[1])
	}
	return fmt.Errorf("%w: %s", ErrSimulationFailed, vmStatus)
}
