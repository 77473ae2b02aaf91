package signature

import (
	"testing"

	"github.com/haileyok/seneca/did"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	for _, scheme := range []Scheme{Sr25519, Ed25519} {
		t.Run(string(scheme), func(t *testing.T) {
			kp, err := GenerateKeyPair(scheme)
			require.NoError(t, err)
			assert.Equal(t, scheme, kp.Scheme())

			v, err := NewVerifier(scheme)
			require.NoError(t, err)

			msg := []byte("Alice Data")
			sig, err := kp.Sign(msg)
			require.NoError(t, err)

			assert.True(t, v.Verify(msg, sig, kp.Public()))
			assert.False(t, v.Verify([]byte("Alice Datb"), sig, kp.Public()))

			other, err := GenerateKeyPair(scheme)
			require.NoError(t, err)
			assert.False(t, v.Verify(msg, sig, other.Public()))

			tampered := sig
			tampered[5] ^= 0x01
			assert.False(t, v.Verify(msg, tampered, kp.Public()))
		})
	}
}

func TestVerifyGarbage(t *testing.T) {
	for _, scheme := range []Scheme{Sr25519, Ed25519} {
		v, err := NewVerifier(scheme)
		require.NoError(t, err)

		kp, err := GenerateKeyPair(scheme)
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			assert.False(t, v.Verify([]byte("msg"), Signature{}, kp.Public()))
		})
	}

	assert.NotPanics(t, func() {
		assert.False(t, Sr25519Verifier{}.Verify([]byte("msg"), Signature{}, did.AccountID{}))
	})
}

func TestKeyPairFromSeed(t *testing.T) {
	var seed [SeedSize]byte
	for i := range seed {
		seed[i] = byte(i)
	}

	for _, scheme := range []Scheme{Sr25519, Ed25519} {
		a, err := KeyPairFromSeed(scheme, seed)
		require.NoError(t, err)
		b, err := KeyPairFromSeed(scheme, seed)
		require.NoError(t, err)

		assert.Equal(t, a.Public(), b.Public())
		assert.Equal(t, seed, a.Seed())

		v, err := NewVerifier(scheme)
		require.NoError(t, err)

		sig, err := a.Sign([]byte("hello"))
		require.NoError(t, err)
		assert.True(t, v.Verify([]byte("hello"), sig, b.Public()))
	}
}

func TestSchemesAreNotInterchangeable(t *testing.T) {
	kp, err := GenerateKeyPair(Ed25519)
	require.NoError(t, err)

	sig, err := kp.Sign([]byte("msg"))
	require.NoError(t, err)

	assert.False(t, Sr25519Verifier{}.Verify([]byte("msg"), sig, kp.Public()))
}

func TestParseHex(t *testing.T) {
	kp, err := GenerateKeyPair(Sr25519)
	require.NoError(t, err)

	sig, err := kp.Sign([]byte("msg"))
	require.NoError(t, err)

	parsed, err := ParseHex(sig.Hex())
	require.NoError(t, err)
	assert.Equal(t, sig, parsed)

	parsed, err = ParseHex("0x" + sig.Hex())
	require.NoError(t, err)
	assert.Equal(t, sig, parsed)

	_, err = ParseHex("abcd")
	assert.Error(t, err)

	_, err = ParseHex("zz")
	assert.Error(t, err)
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("SR25519")
	require.NoError(t, err)
	assert.Equal(t, Sr25519, s)

	s, err = ParseScheme("ed25519")
	require.NoError(t, err)
	assert.Equal(t, Ed25519, s)

	_, err = ParseScheme("secp256k1")
	assert.Error(t, err)

	_, err = NewVerifier("secp256k1")
	assert.Error(t, err)
}
