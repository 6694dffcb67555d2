package lending

import (
	"math/big"
	"testing"
)

func TestToRawUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals int32
		want     string
		wantErr  bool
	}{
		{name: "whole", amount: "10", decimals: 6, want: "10000000"},
		{name: "fractional", amount: "1.5", decimals: 8, want: "150000000"},
		{name: "floors excess precision", amount: "0.1234567", decimals: 6, want: "123456"},
		{name: "trims whitespace", amount: " 2 ", decimals: 6, want: "2000000"},
		{name: "eighteen decimals", amount: "0.000000000000000001", decimals: 18, want: "1"},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "not a number", amount: "ten", decimals: 6, wantErr: true},
		{name: "negative", amount: "-1", decimals: 6, wantErr: true},
		{name: "zero", amount: "0", decimals: 6, wantErr: true},
		{name: "floors to zero", amount: "0.0000001", decimals: 6, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToRawUnits(tc.amount, tc.decimals)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFromRawUnits(t *testing.T) {
	if got := FromRawUnits(big.NewInt(10000000), 6); got != "10" {
		t.Fatalf("got %s, want 10", got)
	}
	if got := FromRawUnits(big.NewInt(123456), 6); got != "0.123456" {
		t.Fatalf("got %s, want 0.123456", got)
	}
	if got := FromRawUnits(nil, 6); got != "0" {
		t.Fatalf("got %s, want 0", got)
	}
}

// Rendering a converted amount back must reproduce the input exactly when it
// fits in the asset's precision, and floor (never round up) when it does not.
func TestRawUnitsRoundTrip(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int32
		want     string
	}{
		{"10", 6, "10"},
		{"0.123456", 6, "0.123456"},
		{"1.5", 8, "1.5"},
		{"0.1234567", 6, "0.123456"}, // floored at the sixth decimal
	}
	for _, tc := range cases {
		raw, err := ToRawUnits(tc.amount, tc.decimals)
		if err != nil {
			t.Fatalf("to raw %q: %v", tc.amount, err)
		}
		if got := FromRawUnits(raw, tc.decimals); got != tc.want {
			t.Fatalf("round trip %q = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestUnderlyingToNoteRaw(t *testing.T) {
	cases := []struct {
		name       string
		underlying int64
		uDec, nDec int32
		rate       float64
		want       string
	}{
		{name: "rate one same decimals", underlying: 1_000_000, uDec: 6, nDec: 6, rate: 1.0, want: "1000000"},
		{name: "accrued rate floors down", underlying: 1_000_000, uDec: 6, nDec: 6, rate: 1.25, want: "800000"},
		{name: "note has more decimals", underlying: 1_000_000, uDec: 6, nDec: 8, rate: 1.0, want: "100000000"},
		{name: "note has fewer decimals", underlying: 1_000_000, uDec: 8, nDec: 6, rate: 1.0, want: "10000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := UnderlyingToNoteRaw(big.NewInt(tc.underlying), tc.uDec, tc.nDec, tc.rate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := UnderlyingToNoteRaw(big.NewInt(1), 6, 6, 0); err == nil {
		t.Fatal("expected error for zero exchange rate")
	}
	if _, err := UnderlyingToNoteRaw(nil, 6, 6, 1); err == nil {
		t.Fatal("expected error for nil amount")
	}
}

func TestNoteToUnderlyingRaw(t *testing.T) {
	got, err := NoteToUnderlyingRaw(big.NewInt(800000), 6, 6, 1.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "1000000" {
		t.Fatalf("got %s, want 1000000", got)
	}
}

// Converting underlying to notes and back must never yield more underlying
// than was put in, for any rate at or above one.
func TestNoteConversionRoundTripNeverGains(t *testing.T) {
	rates := []float64{1.0, 1.000001, 1.0337, 1.25, 1.9999, 3.5}
	amounts := []int64{1, 7, 999, 1_000_000, 123_456_789, 1 << 50}
	for _, rate := range rates {
		for _, amount := range amounts {
			underlying := big.NewInt(amount)
			note, err := UnderlyingToNoteRaw(underlying, 6, 6, rate)
			if err != nil {
				t.Fatalf("to note at rate %v: %v", rate, err)
			}
			back, err := NoteToUnderlyingRaw(note, 6, 6, rate)
			if err != nil {
				t.Fatalf("back to underlying at rate %v: %v", rate, err)
			}
			if back.Cmp(underlying) > 0 {
				t.Fatalf("rate %v amount %d: round trip gained value, %s > %s", rate, amount, back, underlying)
			}
		}
	}
}
