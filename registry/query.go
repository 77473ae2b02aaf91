package registry

import (
	"bytes"
	"context"
	"fmt"
)

func (c *Credentials) where(ctx context.Context, match func(*VerifiableCredential) bool) ([]*CredentialEntry, error) {
	var out []*CredentialEntry

	if err := c.store.Iterate(ctx, BucketCredentials, func(key, value []byte) error {
		id, err := ParseKey(key)
		if err != nil {
			return err
		}

		signed, err := DecodeSignedCredential(value)
		if err != nil {
			return fmt.Errorf("credential %d: %w", id, err)
		}

		if match != nil && !match(&signed.Credential) {
			return nil
		}

		out = append(out, &CredentialEntry{ID: CredentialID(id), SignedCredential: *signed, Raw: value})
		return nil
	}); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Credentials) ListCredentials(ctx context.Context) ([]*CredentialEntry, error) {
	return c.where(ctx, nil)
}

func (c *Credentials) CredentialsBySchema(ctx context.Context, schema SchemaID) ([]*CredentialEntry, error) {
	return c.where(ctx, func(vc *VerifiableCredential) bool {
		return vc.Schema == schema
	})
}

// CredentialsBySubject matches on the subject id.
func (c *Credentials) CredentialsBySubject(ctx context.Context, subject []byte) ([]*CredentialEntry, error) {
	return c.where(ctx, func(vc *VerifiableCredential) bool {
		return bytes.Equal(vc.Subject.ID, subject)
	})
}

func (c *Credentials) CredentialsByHolder(ctx context.Context, holder []byte) ([]*CredentialEntry, error) {
	return c.where(ctx, func(vc *VerifiableCredential) bool {
		return bytes.Equal(vc.CredentialHolder, holder)
	})
}

func (c *Credentials) CredentialsByIssuer(ctx context.Context, issuer []byte) ([]*CredentialEntry, error) {
	return c.where(ctx, func(vc *VerifiableCredential) bool {
		return bytes.Equal(vc.Issuer, issuer)
	})
}
