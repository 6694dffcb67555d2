package lending

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ToRawUnits converts a human decimal amount into the asset's raw integer
// units by scaling with 10^decimals and flooring. The floor matters: a user
// spending their full balance must never round up into an amount the chain
// would reject.
func ToRawUnits(amount string, decimals int32) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("amount %q is not a number", amount)
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("amount %q must be positive", amount)
	}
	raw := value.Shift(decimals).Floor().BigInt()
	if raw.Sign() <= 0 {
		return nil, fmt.Errorf("amount %q rounds to zero at %d decimals", amount, decimals)
	}
	return raw, nil
}

// FromRawUnits renders raw integer units as a human decimal string.
func FromRawUnits(raw *big.Int, decimals int32) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -decimals).String()
}

// UnderlyingToNoteRaw converts raw underlying-asset units into raw note-token
// units: floor(underlying * 10^(noteDecimals-underlyingDecimals) / rate).
// The decimals difference may be negative. Flooring is deliberate on both
// conversion directions so compounding never manufactures value.
func UnderlyingToNoteRaw(underlyingRaw *big.Int, underlyingDecimals, noteDecimals int32, exchangeRate float64) (*big.Int, error) {
	if underlyingRaw == nil || underlyingRaw.Sign() < 0 {
		return nil, fmt.Errorf("underlying amount must be non-negative")
	}
	rate, err := exchangeRateToRat(exchangeRate)
	if err != nil {
		return nil, err
	}
	value := new(big.Rat).SetInt(underlyingRaw)
	value.Mul(value, decimalScale(noteDecimals-underlyingDecimals))
	value.Quo(value, rate)
	return ratFloor(value), nil
}

// NoteToUnderlyingRaw is the display-direction inverse of UnderlyingToNoteRaw:
// floor(note * rate * 10^(underlyingDecimals-noteDecimals)).
func NoteToUnderlyingRaw(noteRaw *big.Int, noteDecimals, underlyingDecimals int32, exchangeRate float64) (*big.Int, error) {
	if noteRaw == nil || noteRaw.Sign() < 0 {
		return nil, fmt.Errorf("note amount must be non-negative")
	}
	rate, err := exchangeRateToRat(exchangeRate)
	if err != nil {
		return nil, err
	}
	value := new(big.Rat).SetInt(noteRaw)
	value.Mul(value, rate)
	value.Mul(value, decimalScale(underlyingDecimals-noteDecimals))
	return ratFloor(value), nil
}

func exchangeRateToRat(exchangeRate float64) (*big.Rat, error) {
	if math.IsNaN(exchangeRate) || math.IsInf(exchangeRate, 0) {
		return nil, fmt.Errorf("exchange rate %v is not finite", exchangeRate)
	}
	rate := new(big.Rat).SetFloat64(exchangeRate)
	if rate == nil || rate.Sign() <= 0 {
		return nil, fmt.Errorf("exchange rate %v must be positive", exchangeRate)
	}
	return rate, nil
}

// decimalScale returns 10^diff as an exact rational; diff may be negative.
func decimalScale(diff int32) *big.Rat {
	if diff >= 0 {
		return new(big.Rat).SetInt(pow10(diff))
	}
	return new(big.Rat).SetFrac(big.NewInt(1), pow10(-diff))
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ratFloor floors a non-negative rational to an integer. big.Int.Quo
// truncates toward zero, which is the floor for non-negative operands.
func ratFloor(r *big.Rat) *big.Int {
	return new(big.Int).Quo(r.Num(), r.Denom())
}
