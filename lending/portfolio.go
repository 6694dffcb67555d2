package lending

import (
	"fmt"
	"math/big"
	"strings"
)

// PortfolioEntry is one position line. Amount is the raw note-unit balance as
// a base-10 string, preserving precision past 64 bits.
type PortfolioEntry struct {
	InstrumentID string `json:"instrumentId"`
	Amount       string `json:"amount"`
}

// Portfolio is a user's current position snapshot as returned by the backend.
// An instrument absent from a list is a zero balance.
type Portfolio struct {
	Collaterals []PortfolioEntry `json:"collaterals"`
	Liabilities []PortfolioEntry `json:"liabilities"`
}

// CollateralAmount returns the raw deposit-note balance for an instrument.
func (p *Portfolio) CollateralAmount(instrumentID string) (*big.Int, error) {
	if p == nil {
		return big.NewInt(0), nil
	}
	return positionAmount(p.Collaterals, instrumentID)
}

// LiabilityAmount returns the raw loan-note balance for an instrument.
func (p *Portfolio) LiabilityAmount(instrumentID string) (*big.Int, error) {
	if p == nil {
		return big.NewInt(0), nil
	}
	return positionAmount(p.Liabilities, instrumentID)
}

func positionAmount(entries []PortfolioEntry, instrumentID string) (*big.Int, error) {
	for _, entry := range entries {
		if entry.InstrumentID != instrumentID {
			continue
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(entry.Amount), 10)
		if !ok || amount.Sign() < 0 {
			return nil, fmt.Errorf("malformed position amount %q for %s", entry.Amount, instrumentID)
		}
		return amount, nil
	}
	return big.NewInt(0), nil
}
