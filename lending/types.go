package lending

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset identifies one on-chain token as reported by the brokers API. The
// NetworkAddress is the token's on-chain type or metadata address and is the
// value passed as the entry-function type argument.
type Asset struct {
	Network        string  `json:"network"`
	NetworkAddress string  `json:"networkAddress"`
	Name           string  `json:"name"`
	Ticker         string  `json:"ticker,omitempty"`
	Decimals       int32   `json:"decimals"`
	Price          float64 `json:"price,omitempty"`
}

// InterestRateCurve is the piecewise-linear utilization to borrow-rate curve
// published per market. Rates are annualized fractions, utilization in [0,1].
type InterestRateCurve struct {
	U1 float64 `json:"u1"`
	U2 float64 `json:"u2"`
	R0 float64 `json:"r0"`
	R1 float64 `json:"r1"`
	R2 float64 `json:"r2"`
	R3 float64 `json:"r3"`
}

// Broker is one lending market for one underlying asset, pairing the asset
// with its deposit-share and debt-share note tokens. Brokers are fetched
// fresh per interaction and treated as immutable snapshots; nothing in this
// package mutates a Broker after decoding.
//
// The scaled pool statistics are human-unit decimals on the wire, sometimes
// quoted and sometimes bare numbers, so they decode through decimal.Decimal.
type Broker struct {
	Name            string `json:"name"`
	UnderlyingAsset Asset  `json:"underlyingAsset"`
	DepositNote     Asset  `json:"depositNote"`
	LoanNote        Asset  `json:"loanNote"`

	// Exchange rates convert note-token amounts into underlying-token
	// amounts. They start at 1.0 and grow as interest accrues.
	DepositNoteExchangeRate float64 `json:"depositNoteExchangeRate"`
	LoanNoteExchangeRate    float64 `json:"loanNoteExchangeRate"`

	ScaledAvailableLiquidityUnderlying decimal.Decimal `json:"scaledAvailableLiquidityUnderlying"`
	ScaledTotalBorrowedUnderlying      decimal.Decimal `json:"scaledTotalBorrowedUnderlying"`
	MaxDepositScaled                   decimal.Decimal `json:"maxDepositScaled"`
	MaxBorrowScaled                    decimal.Decimal `json:"maxBorrowScaled"`

	InterestRate      float64           `json:"interestRate"`
	InterestRateCurve InterestRateCurve `json:"interestRateCurve"`
}

// Validate checks the fields a resolved broker must carry before it can be
// used to build a transaction.
func (b *Broker) Validate() error {
	if b == nil {
		return fmt.Errorf("broker is nil")
	}
	if strings.TrimSpace(b.UnderlyingAsset.Name) == "" {
		return fmt.Errorf("broker %q has no underlying asset name", b.Name)
	}
	if strings.TrimSpace(b.UnderlyingAsset.NetworkAddress) == "" {
		return fmt.Errorf("broker %q has no underlying asset address", b.Name)
	}
	return nil
}
