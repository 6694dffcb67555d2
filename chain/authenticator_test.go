package chain

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"strings"
	"testing"
)

func TestAuthenticatorVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	message := []byte("the signing message")
	signature := ed25519.Sign(priv, message)

	auth, err := NewAuthenticator(pub, signature)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	if !auth.Verify(message) {
		t.Fatal("valid signature rejected")
	}
	if auth.Verify([]byte("another message")) {
		t.Fatal("signature accepted for wrong message")
	}
}

func TestNewAuthenticatorShapeChecks(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signature := ed25519.Sign(priv, []byte("m"))

	if _, err := NewAuthenticator(pub[:16], signature); err == nil {
		t.Fatal("short public key accepted")
	}
	if _, err := NewAuthenticator(pub, signature[:32]); err == nil {
		t.Fatal("short signature accepted")
	}
}

func TestNewAuthenticatorCopiesInputs(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	message := []byte("m")
	signature := ed25519.Sign(priv, message)

	auth, err := NewAuthenticator(pub, signature)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	signature[0] ^= 0xff
	if !auth.Verify(message) {
		t.Fatal("authenticator shares storage with caller's signature")
	}
}

func TestAuthenticatorJSON(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth, err := NewAuthenticator(pub, ed25519.Sign(priv, []byte("m")))
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	encoded, err := json.Marshal(auth)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]string
	if err := json.Unmarshal(encoded, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.HasPrefix(fields["publicKey"], "0x") || len(fields["publicKey"]) != 66 {
		t.Fatalf("publicKey field %q", fields["publicKey"])
	}
	if !strings.HasPrefix(fields["signature"], "0x") || len(fields["signature"]) != 130 {
		t.Fatalf("signature field %q", fields["signature"])
	}
}
