package lending

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// BorrowRate evaluates the curve at the given utilization, clamped to [0,1].
// The curve is linear from R0 at zero utilization to R1 at U1, R2 at U2 and
// R3 at full utilization.
func (c InterestRateCurve) BorrowRate(utilization float64) float64 {
	u := utilization
	if math.IsNaN(u) || u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	switch {
	case u <= c.U1:
		return segment(0, c.U1, c.R0, c.R1, u)
	case u <= c.U2:
		return segment(c.U1, c.U2, c.R1, c.R2, u)
	default:
		return segment(c.U2, 1, c.R2, c.R3, u)
	}
}

func segment(x0, x1, y0, y1, x float64) float64 {
	if x1 <= x0 {
		return y1
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// Utilization reports borrowed / (borrowed + available) from the scaled pool
// statistics. Zero when the pool is empty.
func (b *Broker) Utilization() float64 {
	if b == nil {
		return 0
	}
	borrowed, _ := b.ScaledTotalBorrowedUnderlying.Float64()
	available, _ := b.ScaledAvailableLiquidityUnderlying.Float64()
	total := borrowed + available
	if total <= 0 {
		return 0
	}
	return borrowed / total
}

// SupplyAPY derives the supply yield from the deposit-note exchange rate, the
// same figure the upstream dashboard shows.
func (b *Broker) SupplyAPY() float64 {
	if b == nil || b.DepositNoteExchangeRate <= 1 {
		return 0
	}
	return (b.DepositNoteExchangeRate - 1) * 100
}

// AvailableLiquidityRaw converts the scaled available liquidity into raw
// underlying units, flooring.
func (b *Broker) AvailableLiquidityRaw() *big.Int {
	if b == nil {
		return big.NewInt(0)
	}
	return scaledToRaw(b.ScaledAvailableLiquidityUnderlying, b.UnderlyingAsset.Decimals)
}

// TotalBorrowedRaw converts the scaled borrowed total into raw underlying
// units, flooring.
func (b *Broker) TotalBorrowedRaw() *big.Int {
	if b == nil {
		return big.NewInt(0)
	}
	return scaledToRaw(b.ScaledTotalBorrowedUnderlying, b.UnderlyingAsset.Decimals)
}

// DepositHeadroomScaled is the remaining pool capacity in human units:
// maxDeposit - (borrowed + available). Non-positive means the pool is full.
func (b *Broker) DepositHeadroomScaled() decimal.Decimal {
	if b == nil {
		return decimal.Zero
	}
	total := b.ScaledTotalBorrowedUnderlying.Add(b.ScaledAvailableLiquidityUnderlying)
	return b.MaxDepositScaled.Sub(total)
}

func scaledToRaw(scaled decimal.Decimal, decimals int32) *big.Int {
	return scaled.Shift(decimals).Floor().BigInt()
}
