package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// AccountAddress is a 32-byte account address on the target chain.
type AccountAddress [32]byte

// ParseAddress decodes a hex address, left-padding the short forms node APIs
// use for special addresses ("0x1", "0xa").
func ParseAddress(s string) (AccountAddress, error) {
	var addr AccountAddress
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "0x") {
		trimmed = "0x" + trimmed
	}
	if len(trimmed) == 2 {
		return addr, fmt.Errorf("address %q is empty", s)
	}
	if len(trimmed)%2 != 0 {
		trimmed = "0x0" + trimmed[2:]
	}
	raw, err := hexutil.Decode(trimmed)
	if err != nil {
		return addr, fmt.Errorf("decode address %q: %w", s, err)
	}
	if len(raw) > len(addr) {
		return addr, fmt.Errorf("address %q exceeds 32 bytes", s)
	}
	copy(addr[len(addr)-len(raw):], raw)
	return addr, nil
}

// Hex renders the full-width 0x form.
func (a AccountAddress) Hex() string {
	return hexutil.Encode(a[:])
}

// IsZero reports whether the address is all zero bytes.
func (a AccountAddress) IsZero() bool {
	return a == AccountAddress{}
}

// MarshalText implements encoding.TextMarshaler for JSON payloads.
func (a AccountAddress) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ChainID identifies the target network. The envelope's chain id is always
// set from configuration; builder defaults are not trusted.
type ChainID uint8

// EntryFunction identifies one contract entry point.
type EntryFunction struct {
	Address  AccountAddress `json:"address"`
	Module   string         `json:"module"`
	Function string         `json:"function"`
}

func (f EntryFunction) String() string {
	return fmt.Sprintf("%s::%s::%s", f.Address.Hex(), f.Module, f.Function)
}

// ByteArray is an entry-function argument carried as an explicit JSON element
// array. encoding/json renders a plain []byte as base64, which the node's
// submit endpoint rejects.
type ByteArray []byte

// MarshalJSON emits the bytes as a numeric array.
func (b ByteArray) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(v)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the numeric-array form.
func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	out := make(ByteArray, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte array element %d out of range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// RawTransaction is the unsigned envelope built around a decoded ticket. One
// envelope is built per attempt and never reused once a signature has been
// produced for a different envelope.
type RawTransaction struct {
	Sender                  AccountAddress `json:"sender"`
	SequenceNumber          uint64         `json:"sequenceNumber"`
	Function                EntryFunction  `json:"function"`
	TypeArguments           []string       `json:"typeArguments"`
	Arguments               []ByteArray    `json:"arguments"`
	MaxGasAmount            uint64         `json:"maxGasAmount"`
	GasUnitPrice            uint64         `json:"gasUnitPrice"`
	ExpirationTimestampSecs uint64         `json:"expirationTimestampSecs"`
	ChainID                 ChainID        `json:"chainId"`
}

// rawTransactionSalt is the fixed domain separator prepended to every
// signing message.
var rawTransactionSalt = sha3.Sum256([]byte("MOVEMENT::RawTransaction"))

// SigningMessage returns the canonical byte message the wallet's signature
// must cover. Pure function of the envelope; no I/O.
func (tx *RawTransaction) SigningMessage() ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction")
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	message := make([]byte, 0, len(rawTransactionSalt)+len(payload))
	message = append(message, rawTransactionSalt[:]...)
	message = append(message, payload...)
	return message, nil
}

// SigningHash returns the hex digest handed to external signers.
func (tx *RawTransaction) SigningHash() (string, error) {
	message, err := tx.SigningMessage()
	if err != nil {
		return "", err
	}
	digest := sha3.Sum256(message)
	return hexutil.Encode(digest[:]), nil
}
