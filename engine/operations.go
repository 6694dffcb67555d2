package engine

import (
	"fmt"
	"strings"

	"movelend/chain"
)

// Operation tags one of the four ticketed state transitions. The four differ
// only in entry point, conversion direction, and validation predicate; one
// pipeline serves all of them.
type Operation int

const (
	OpSupply Operation = iota
	OpWithdraw
	OpBorrow
	OpRepay
)

func (op Operation) String() string {
	switch op {
	case OpSupply:
		return "supply"
	case OpWithdraw:
		return "withdraw"
	case OpBorrow:
		return "borrow"
	case OpRepay:
		return "repay"
	default:
		return fmt.Sprintf("operation(%d)", int(op))
	}
}

// Valid reports whether the tag is one of the four known operations.
func (op Operation) Valid() bool {
	return op >= OpSupply && op <= OpRepay
}

// ParseOperation maps a request string to an Operation.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "supply", "lend":
		return OpSupply, nil
	case "withdraw":
		return OpWithdraw, nil
	case "borrow":
		return OpBorrow, nil
	case "repay":
		return OpRepay, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

// TicketPath is the backend endpoint issuing packets for the operation. The
// backend calls the supply endpoint "lend".
func (op Operation) TicketPath() string {
	if op == OpSupply {
		return "lend"
	}
	return op.String()
}

// EntryFunction is the fixed on-chain entry point for the operation. The
// resolved broker's underlying asset is passed as the sole type argument.
func (op Operation) EntryFunction(contract chain.AccountAddress) chain.EntryFunction {
	return chain.EntryFunction{
		Address:  contract,
		Module:   "broker",
		Function: op.String(),
	}
}
