package engine

import (
	"testing"

	"movelend/chain"
)

func TestParseOperation(t *testing.T) {
	cases := []struct {
		in      string
		want    Operation
		wantErr bool
	}{
		{in: "supply", want: OpSupply},
		{in: "lend", want: OpSupply},
		{in: " WITHDRAW ", want: OpWithdraw},
		{in: "borrow", want: OpBorrow},
		{in: "repay", want: OpRepay},
		{in: "liquidate", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseOperation(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseOperation(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseOperation(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseOperation(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTicketPath(t *testing.T) {
	if got := OpSupply.TicketPath(); got != "lend" {
		t.Fatalf("supply ticket path = %s, want lend", got)
	}
	for _, op := range []Operation{OpWithdraw, OpBorrow, OpRepay} {
		if got := op.TicketPath(); got != op.String() {
			t.Fatalf("%s ticket path = %s", op, got)
		}
	}
}

func TestEntryFunction(t *testing.T) {
	contract, err := chain.ParseAddress("0xc0ffee")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := OpBorrow.EntryFunction(contract)
	if f.Module != "broker" || f.Function != "borrow" {
		t.Fatalf("entry function %+v", f)
	}
	if f.Address != contract {
		t.Fatal("entry function address mismatch")
	}
}

func TestOperationValid(t *testing.T) {
	for _, op := range []Operation{OpSupply, OpWithdraw, OpBorrow, OpRepay} {
		if !op.Valid() {
			t.Fatalf("%s should be valid", op)
		}
	}
	if Operation(42).Valid() {
		t.Fatal("unknown operation should be invalid")
	}
}
