package chain

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignerFunc asks an external wallet for a detached Ed25519 signature over
// the 0x-prefixed hex signing hash. The wallet owns the key; private key
// material never enters this module.
type SignerFunc func(ctx context.Context, signingHash string) ([]byte, error)

// Authenticator pairs the sender's public key with the 64-byte detached
// signature over the envelope's signing message.
type Authenticator struct {
	PublicKey ed25519.PublicKey
	Signature []byte
}

// NewAuthenticator validates key and signature shapes before assembly.
func NewAuthenticator(publicKey, signature []byte) (*Authenticator, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
	}
	if len(signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(signature))
	}
	auth := &Authenticator{
		PublicKey: make(ed25519.PublicKey, ed25519.PublicKeySize),
		Signature: make([]byte, ed25519.SignatureSize),
	}
	copy(auth.PublicKey, publicKey)
	copy(auth.Signature, signature)
	return auth, nil
}

// Verify checks the signature against a message.
func (a *Authenticator) Verify(message []byte) bool {
	if a == nil || len(a.PublicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(a.PublicKey, message, a.Signature)
}

// MarshalJSON renders both fields as 0x hex for the submit endpoint.
func (a Authenticator) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PublicKey string `json:"publicKey"`
		Signature string `json:"signature"`
	}{hexutil.Encode(a.PublicKey), hexutil.Encode(a.Signature)})
}

// SignedTransaction couples an envelope with its authenticator.
type SignedTransaction struct {
	Raw           *RawTransaction `json:"rawTransaction"`
	Authenticator *Authenticator  `json:"authenticator"`
}
