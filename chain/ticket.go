package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTicket signals a packet that is not well-formed hex.
var ErrInvalidTicket = errors.New("chain: invalid ticket")

// Ticket is an opaque, backend-issued, single-use authorization packet. Its
// internal structure is never interpreted here; byte fidelity from hex to
// argument is the only requirement. Validity windows and one-time-use are
// enforced by the backend and the on-chain program.
type Ticket []byte

// DecodeTicket parses the hex packet string from a ticket response. The 0x
// prefix is optional; odd-length or non-hex input is rejected.
func DecodeTicket(packet string) (Ticket, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(packet), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty packet", ErrInvalidTicket)
	}
	if len(trimmed)%2 != 0 {
		return nil, fmt.Errorf("%w: odd-length hex", ErrInvalidTicket)
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	return Ticket(raw), nil
}

// Argument wraps the ticket as the entry-function byte-array argument.
func (t Ticket) Argument() ByteArray {
	out := make(ByteArray, len(t))
	copy(out, t)
	return out
}
