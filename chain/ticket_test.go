package chain

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeTicket(t *testing.T) {
	cases := []struct {
		name    string
		packet  string
		want    []byte
		wantErr bool
	}{
		{name: "with prefix", packet: "0xdeadbeef", want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "without prefix", packet: "deadbeef", want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "whitespace", packet: "  0x00ff  ", want: []byte{0x00, 0xff}},
		{name: "empty", packet: "", wantErr: true},
		{name: "prefix only", packet: "0x", wantErr: true},
		{name: "odd length", packet: "0xabc", wantErr: true},
		{name: "not hex", packet: "0xzz", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeTicket(tc.packet)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTicket) {
					t.Fatalf("got %v, want ErrInvalidTicket", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("got %x, want %x", []byte(got), tc.want)
			}
		})
	}
}

func TestTicketArgumentCopies(t *testing.T) {
	ticket, err := DecodeTicket("0x0102")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	arg := ticket.Argument()
	arg[0] = 0xff
	if ticket[0] != 0x01 {
		t.Fatal("argument aliases the ticket bytes")
	}
}
