package lending

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

var testCurve = InterestRateCurve{
	U1: 0.6, U2: 0.9,
	R0: 0.01, R1: 0.05, R2: 0.25, R3: 1.5,
}

func TestBorrowRateBreakpoints(t *testing.T) {
	cases := []struct {
		utilization float64
		want        float64
	}{
		{0, 0.01},
		{0.6, 0.05},
		{0.9, 0.25},
		{1, 1.5},
		{0.3, 0.03},   // midpoint of first segment
		{0.75, 0.15},  // midpoint of second segment
		{0.95, 0.875}, // midpoint of third segment
	}
	for _, tc := range cases {
		got := testCurve.BorrowRate(tc.utilization)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("BorrowRate(%v) = %v, want %v", tc.utilization, got, tc.want)
		}
	}
}

func TestBorrowRateClamps(t *testing.T) {
	if got := testCurve.BorrowRate(-0.5); got != testCurve.BorrowRate(0) {
		t.Fatalf("negative utilization not clamped: %v", got)
	}
	if got := testCurve.BorrowRate(2); got != testCurve.BorrowRate(1) {
		t.Fatalf("excess utilization not clamped: %v", got)
	}
	if got := testCurve.BorrowRate(math.NaN()); got != testCurve.BorrowRate(0) {
		t.Fatalf("NaN utilization not clamped: %v", got)
	}
}

func TestBrokerUtilization(t *testing.T) {
	b := &Broker{
		ScaledTotalBorrowedUnderlying:      decimal.NewFromInt(300),
		ScaledAvailableLiquidityUnderlying: decimal.NewFromInt(700),
	}
	if got := b.Utilization(); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("utilization = %v, want 0.3", got)
	}

	empty := &Broker{}
	if got := empty.Utilization(); got != 0 {
		t.Fatalf("empty pool utilization = %v, want 0", got)
	}
}

func TestBrokerRawPoolStats(t *testing.T) {
	b := &Broker{
		UnderlyingAsset:                    Asset{Decimals: 6},
		ScaledAvailableLiquidityUnderlying: decimal.RequireFromString("12.5"),
		ScaledTotalBorrowedUnderlying:      decimal.RequireFromString("7.250001"),
	}
	if got := b.AvailableLiquidityRaw().String(); got != "12500000" {
		t.Fatalf("available = %s, want 12500000", got)
	}
	if got := b.TotalBorrowedRaw().String(); got != "7250001" {
		t.Fatalf("borrowed = %s, want 7250001", got)
	}
}

func TestDepositHeadroomScaled(t *testing.T) {
	b := &Broker{
		ScaledAvailableLiquidityUnderlying: decimal.NewFromInt(600),
		ScaledTotalBorrowedUnderlying:      decimal.NewFromInt(300),
		MaxDepositScaled:                   decimal.NewFromInt(1000),
	}
	if got := b.DepositHeadroomScaled().String(); got != "100" {
		t.Fatalf("headroom = %s, want 100", got)
	}

	full := &Broker{
		ScaledAvailableLiquidityUnderlying: decimal.NewFromInt(1000),
		MaxDepositScaled:                   decimal.NewFromInt(1000),
	}
	if full.DepositHeadroomScaled().Sign() > 0 {
		t.Fatal("full pool should have no headroom")
	}
}

func TestSupplyAPY(t *testing.T) {
	b := &Broker{DepositNoteExchangeRate: 1.04}
	if got := b.SupplyAPY(); math.Abs(got-4) > 1e-9 {
		t.Fatalf("supply APY = %v, want 4", got)
	}
	fresh := &Broker{DepositNoteExchangeRate: 1.0}
	if got := fresh.SupplyAPY(); got != 0 {
		t.Fatalf("fresh market APY = %v, want 0", got)
	}
}
