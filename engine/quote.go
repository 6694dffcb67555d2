package engine

import (
	"fmt"
	"math/big"

	"movelend/lending"
)

// Quote is the locally-computed view of one intended operation: converted
// amounts plus the outcome of the pre-flight limit checks. Building a quote
// performs no network I/O.
type Quote struct {
	Operation Operation
	Broker    string
	// UnderlyingRaw is the request amount in raw underlying units.
	UnderlyingRaw *big.Int
	// TicketRaw is the amount quoted to the backend: underlying units for
	// supply and borrow, note units for withdraw and repay.
	TicketRaw *big.Int
}

// BuildQuote converts the human amount for the operation and applies the
// local limit checks against the broker snapshot and portfolio. Failures are
// classified with the pipeline's sentinel kinds.
func BuildQuote(op Operation, broker *lending.Broker, portfolio *lending.Portfolio, amount string) (*Quote, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("invalid operation %s", op)
	}
	if err := broker.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerNotFound, err)
	}
	underlying, err := lending.ToRawUnits(amount, broker.UnderlyingAsset.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	quote := &Quote{Operation: op, Broker: broker.Name, UnderlyingRaw: underlying, TicketRaw: underlying}

	switch op {
	case OpSupply:
		// A deposit larger than the remaining headroom still proceeds: the
		// on-chain simulation is the authoritative limit check, and this
		// branch only refuses requests that cannot possibly succeed.
		if broker.DepositHeadroomScaled().Sign() <= 0 {
			return nil, fmt.Errorf("%w: market %s is at its deposit cap of %s %s",
				ErrPoolFull, broker.Name, broker.MaxDepositScaled, broker.UnderlyingAsset.Name)
		}

	case OpBorrow:
		if err := checkLiquidity(broker, underlying, amount); err != nil {
			return nil, err
		}

	case OpWithdraw:
		note, err := lending.UnderlyingToNoteRaw(underlying, broker.UnderlyingAsset.Decimals,
			broker.DepositNote.Decimals, broker.DepositNoteExchangeRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		held, err := portfolio.CollateralAmount(broker.DepositNote.Name)
		if err != nil {
			return nil, fmt.Errorf("read collateral position: %w", err)
		}
		if note.Cmp(held) > 0 {
			return nil, fmt.Errorf("%w: withdraw of %s %s needs %s deposit notes but the position holds %s",
				ErrInsufficientBalance, amount, broker.UnderlyingAsset.Name, note, held)
		}
		if err := checkLiquidity(broker, underlying, amount); err != nil {
			return nil, err
		}
		quote.TicketRaw = note

	case OpRepay:
		note, err := lending.UnderlyingToNoteRaw(underlying, broker.UnderlyingAsset.Decimals,
			broker.LoanNote.Decimals, broker.LoanNoteExchangeRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		owed, err := portfolio.LiabilityAmount(broker.LoanNote.Name)
		if err != nil {
			return nil, fmt.Errorf("read liability position: %w", err)
		}
		if note.Cmp(owed) > 0 {
			return nil, fmt.Errorf("%w: repay of %s %s converts to %s loan notes but only %s are outstanding",
				ErrInsufficientBalance, amount, broker.UnderlyingAsset.Name, note, owed)
		}
		quote.TicketRaw = note
	}

	return quote, nil
}

// checkLiquidity refuses requests for more underlying than the pool can pay
// out right now.
func checkLiquidity(broker *lending.Broker, underlyingRaw *big.Int, amount string) error {
	available := broker.AvailableLiquidityRaw()
	if underlyingRaw.Cmp(available) > 0 {
		return fmt.Errorf("%w: %s %s exceeds market %s available liquidity of %s",
			ErrInsufficientBalance, amount, broker.UnderlyingAsset.Name, broker.Name,
			lending.FromRawUnits(available, broker.UnderlyingAsset.Decimals))
	}
	return nil
}
