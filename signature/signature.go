package signature

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/haileyok/seneca/did"
)

const Size = 64

// substrate compatible signing context for sr25519
var SigningContext = []byte("substrate")

type Signature [Size]byte

func (s Signature) Hex() string {
	return hex.EncodeToString(s[:])
}

func ParseHex(str string) (Signature, error) {
	var sig Signature

	b, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return sig, fmt.Errorf("error decoding signature: %w", err)
	}

	if len(b) != Size {
		return sig, fmt.Errorf("signature must be %d bytes, got %d", Size, len(b))
	}

	copy(sig[:], b)

	return sig, nil
}

type Scheme string

const (
	Sr25519 Scheme = "sr25519"
	Ed25519 Scheme = "ed25519"
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(s)) {
	case Sr25519:
		return Sr25519, nil
	case Ed25519:
		return Ed25519, nil
	default:
		return "", fmt.Errorf("unsupported signature scheme %q", s)
	}
}

// Verifier reports whether sig is a valid signature over msg by the key embedded in acct.
type Verifier interface {
	Verify(msg []byte, sig Signature, acct did.AccountID) bool
}

func NewVerifier(scheme Scheme) (Verifier, error) {
	switch scheme {
	case Sr25519, "":
		return Sr25519Verifier{}, nil
	case Ed25519:
		return Ed25519Verifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}

type Sr25519Verifier struct{}

func (Sr25519Verifier) Verify(msg []byte, sig Signature, acct did.AccountID) bool {
	pub, err := schnorrkel.NewPublicKey(acct)
	if err != nil {
		return false
	}

	var s schnorrkel.Signature
	if err := s.Decode(sig); err != nil {
		return false
	}

	ok, err := pub.Verify(&s, schnorrkel.NewSigningContext(SigningContext, msg))
	if err != nil {
		return false
	}

	return ok
}

type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(msg []byte, sig Signature, acct did.AccountID) bool {
	return ed25519.Verify(ed25519.PublicKey(acct[:]), msg, sig[:])
}
