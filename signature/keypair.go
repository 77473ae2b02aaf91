package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/haileyok/seneca/did"
)

const SeedSize = 32

type KeyPair interface {
	Scheme() Scheme
	Public() did.AccountID
	Seed() [SeedSize]byte
	Sign(msg []byte) (Signature, error)
}

func GenerateKeyPair(scheme Scheme) (KeyPair, error) {
	var seed [SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("error reading seed: %w", err)
	}

	return KeyPairFromSeed(scheme, seed)
}

// KeyPairFromSeed deterministically derives a key pair. For sr25519 the seed is
// treated as a mini secret key and expanded ed25519-style, matching substrate.
func KeyPairFromSeed(scheme Scheme, seed [SeedSize]byte) (KeyPair, error) {
	switch scheme {
	case Sr25519, "":
		msk, err := schnorrkel.NewMiniSecretKeyFromRaw(seed)
		if err != nil {
			return nil, fmt.Errorf("error creating mini secret key: %w", err)
		}

		pub := msk.Public()
		if pub == nil {
			return nil, fmt.Errorf("error deriving public key")
		}

		return &sr25519KeyPair{
			seed: seed,
			sk:   msk.ExpandEd25519(),
			pub:  pub.Encode(),
		}, nil
	case Ed25519:
		priv := ed25519.NewKeyFromSeed(seed[:])

		var pub did.AccountID
		copy(pub[:], priv.Public().(ed25519.PublicKey))

		return &ed25519KeyPair{
			seed: seed,
			priv: priv,
			pub:  pub,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}

type sr25519KeyPair struct {
	seed [SeedSize]byte
	sk   *schnorrkel.SecretKey
	pub  did.AccountID
}

func (kp *sr25519KeyPair) Scheme() Scheme {
	return Sr25519
}

func (kp *sr25519KeyPair) Public() did.AccountID {
	return kp.pub
}

func (kp *sr25519KeyPair) Seed() [SeedSize]byte {
	return kp.seed
}

func (kp *sr25519KeyPair) Sign(msg []byte) (Signature, error) {
	sig, err := kp.sk.Sign(schnorrkel.NewSigningContext(SigningContext, msg))
	if err != nil {
		return Signature{}, fmt.Errorf("error signing: %w", err)
	}

	return sig.Encode(), nil
}

type ed25519KeyPair struct {
	seed [SeedSize]byte
	priv ed25519.PrivateKey
	pub  did.AccountID
}

func (kp *ed25519KeyPair) Scheme() Scheme {
	return Ed25519
}

func (kp *ed25519KeyPair) Public() did.AccountID {
	return kp.pub
}

func (kp *ed25519KeyPair) Seed() [SeedSize]byte {
	return kp.seed
}

func (kp *ed25519KeyPair) Sign(msg []byte) (Signature, error) {
	var sig Signature
	copy(sig[:], ed25519.Sign(kp.priv, msg))
	return sig, nil
}
