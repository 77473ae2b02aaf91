package registry

import (
	"encoding/binary"
	"fmt"

	"github.com/near/borsh-go"
)

// EncodeSchema returns the canonical bytes of a schema. These are the bytes a creator signs.
func EncodeSchema(s *VerifiableCredentialSchema) ([]byte, error) {
	b, err := borsh.Serialize(*s)
	if err != nil {
		return nil, fmt.Errorf("error encoding schema: %w", err)
	}
	return b, nil
}

func DecodeSchema(b []byte) (*VerifiableCredentialSchema, error) {
	var s VerifiableCredentialSchema
	if err := borsh.Deserialize(&s, b); err != nil {
		return nil, fmt.Errorf("error decoding schema: %w", err)
	}
	return &s, nil
}

// EncodeCredential returns the canonical bytes of a credential. These are the bytes an issuer signs.
func EncodeCredential(c *VerifiableCredential) ([]byte, error) {
	b, err := borsh.Serialize(*c)
	if err != nil {
		return nil, fmt.Errorf("error encoding credential: %w", err)
	}
	return b, nil
}

func DecodeCredential(b []byte) (*VerifiableCredential, error) {
	var c VerifiableCredential
	if err := borsh.Deserialize(&c, b); err != nil {
		return nil, fmt.Errorf("error decoding credential: %w", err)
	}
	return &c, nil
}

func EncodeSignedSchema(s *SignedSchema) ([]byte, error) {
	b, err := borsh.Serialize(*s)
	if err != nil {
		return nil, fmt.Errorf("error encoding signed schema: %w", err)
	}
	return b, nil
}

func DecodeSignedSchema(b []byte) (*SignedSchema, error) {
	var s SignedSchema
	if err := borsh.Deserialize(&s, b); err != nil {
		return nil, fmt.Errorf("error decoding signed schema: %w", err)
	}
	return &s, nil
}

func EncodeSignedCredential(c *SignedCredential) ([]byte, error) {
	b, err := borsh.Serialize(*c)
	if err != nil {
		return nil, fmt.Errorf("error encoding signed credential: %w", err)
	}
	return b, nil
}

func DecodeSignedCredential(b []byte) (*SignedCredential, error) {
	var c SignedCredential
	if err := borsh.Deserialize(&c, b); err != nil {
		return nil, fmt.Errorf("error decoding signed credential: %w", err)
	}
	return &c, nil
}

// store keys are big endian so byte order matches numeric order

func SchemaKey(id SchemaID) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(id))
}

func CredentialKey(id CredentialID) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(id))
}

func ParseKey(key []byte) (uint32, error) {
	if len(key) != 4 {
		return 0, fmt.Errorf("invalid key length %d", len(key))
	}
	return binary.BigEndian.Uint32(key), nil
}
