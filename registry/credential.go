package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/signature"
)

type CredentialRegistry interface {
	CreateCredential(ctx context.Context, signer did.AccountID, id CredentialID, credential *VerifiableCredential, sig signature.Signature) error
	UpdateCredential(ctx context.Context, signer did.AccountID, id CredentialID, newData *SignedCredential) error
	DeleteCredential(ctx context.Context, signer did.AccountID, id CredentialID) error
	GetCredential(ctx context.Context, id CredentialID) (*CredentialEntry, error)
	ListCredentials(ctx context.Context) ([]*CredentialEntry, error)
	CredentialsBySchema(ctx context.Context, schema SchemaID) ([]*CredentialEntry, error)
	CredentialsBySubject(ctx context.Context, subject []byte) ([]*CredentialEntry, error)
	CredentialsByHolder(ctx context.Context, holder []byte) ([]*CredentialEntry, error)
	CredentialsByIssuer(ctx context.Context, issuer []byte) ([]*CredentialEntry, error)
	Nonce(ctx context.Context) (uint64, error)
}

type CredentialEntry struct {
	ID CredentialID
	SignedCredential
	// Raw is the stored tuple encoding.
	Raw []byte
}

type schemaGetter interface {
	GetSchema(ctx context.Context, id SchemaID) (*SchemaEntry, error)
}

type Credentials struct {
	*core
	schemas SchemaInterface
}

var _ CredentialRegistry = (*Credentials)(nil)

func NewCredentials(args *Args, schemas SchemaInterface) (*Credentials, error) {
	if schemas == nil {
		return nil, fmt.Errorf("schemas must be set")
	}

	c, err := newCore(args, "credentials")
	if err != nil {
		return nil, err
	}

	return &Credentials{core: c, schemas: schemas}, nil
}

func (c *Credentials) load(ctx context.Context, id CredentialID) (*CredentialEntry, error) {
	raw, err := c.store.Get(ctx, BucketCredentials, CredentialKey(id))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnknownCredential
	}
	if err != nil {
		return nil, fmt.Errorf("error loading credential %d: %w", id, err)
	}

	signed, err := DecodeSignedCredential(raw)
	if err != nil {
		return nil, err
	}

	return &CredentialEntry{ID: id, SignedCredential: *signed, Raw: raw}, nil
}

func (c *Credentials) checkSchema(ctx context.Context, ref SchemaID) error {
	id := c.schemas.ToSchemaID(uint32(ref))

	if err := c.schemas.CheckSchemaIDExists(ctx, id); err != nil {
		return err
	}

	if !c.config.EnforceExpiry {
		return nil
	}

	sg, ok := c.schemas.(schemaGetter)
	if !ok {
		return nil
	}

	schema, err := sg.GetSchema(ctx, id)
	if err != nil {
		return err
	}

	if c.expired(schema.Schema.ExpirationDate) {
		return ErrSchemaExpired
	}

	return nil
}

func (c *Credentials) CreateCredential(ctx context.Context, signer did.AccountID, id CredentialID, credential *VerifiableCredential, sig signature.Signature) error {
	return c.commit(ctx, func(ctx context.Context) (*Event, error) {
		exists, err := c.store.Has(ctx, BucketCredentials, CredentialKey(id))
		if err != nil {
			return nil, fmt.Errorf("error checking credential %d: %w", id, err)
		}
		if exists {
			return nil, ErrCredentialAlreadyExists
		}

		if err := c.checkSchema(ctx, credential.Schema); err != nil {
			return nil, err
		}

		if err := ValidateCredential(credential); err != nil {
			return nil, err
		}

		issuer, err := c.resolve(credential.Issuer)
		if err != nil {
			return nil, err
		}

		if issuer != signer {
			return nil, ErrNotCredentialOwner
		}

		encoded, err := EncodeCredential(credential)
		if err != nil {
			return nil, err
		}

		if err := c.verify(encoded, sig, issuer); err != nil {
			return nil, err
		}

		raw, err := EncodeSignedCredential(&SignedCredential{Signature: sig, Credential: *credential})
		if err != nil {
			return nil, err
		}

		if err := c.store.Put(ctx, BucketCredentials, CredentialKey(id), raw); err != nil {
			return nil, fmt.Errorf("error storing credential %d: %w", id, err)
		}

		return &Event{Kind: CredentialCreated, ID: uint32(id), Record: encoded, Signature: &sig}, nil
	})
}

// UpdateCredential replaces the stored tuple. Ownership comes from the stored
// issuer, never from the replacement payload.
func (c *Credentials) UpdateCredential(ctx context.Context, signer did.AccountID, id CredentialID, newData *SignedCredential) error {
	return c.commit(ctx, func(ctx context.Context) (*Event, error) {
		old, err := c.load(ctx, id)
		if err != nil {
			return nil, err
		}

		owner, err := c.resolve(old.Credential.Issuer)
		if err != nil {
			return nil, err
		}

		if owner != signer {
			return nil, ErrNotCredentialOwner
		}

		if c.expired(old.Credential.ExpirationDate) {
			return nil, ErrCredentialExpired
		}

		raw, err := EncodeSignedCredential(newData)
		if err != nil {
			return nil, err
		}

		if bytes.Equal(raw, old.Raw) {
			return nil, ErrCredentialAlreadyExists
		}

		if newData.Credential.Schema != old.Credential.Schema {
			if err := c.checkSchema(ctx, newData.Credential.Schema); err != nil {
				return nil, err
			}
		}

		if err := ValidateCredential(&newData.Credential); err != nil {
			return nil, err
		}

		issuer, err := c.resolve(newData.Credential.Issuer)
		if err != nil {
			return nil, err
		}

		if issuer != owner {
			return nil, ErrNotCredentialOwner
		}

		if c.config.RequireIncreasingNonce && newData.Credential.Nonce <= old.Credential.Nonce {
			return nil, ErrStaleNonce
		}

		encoded, err := EncodeCredential(&newData.Credential)
		if err != nil {
			return nil, err
		}

		if err := c.verify(encoded, newData.Signature, issuer); err != nil {
			return nil, err
		}

		if err := c.store.Put(ctx, BucketCredentials, CredentialKey(id), raw); err != nil {
			return nil, fmt.Errorf("error storing credential %d: %w", id, err)
		}

		sig := newData.Signature
		return &Event{Kind: CredentialUpdated, ID: uint32(id), Record: encoded, Signature: &sig}, nil
	})
}

func (c *Credentials) DeleteCredential(ctx context.Context, signer did.AccountID, id CredentialID) error {
	return c.commit(ctx, func(ctx context.Context) (*Event, error) {
		old, err := c.load(ctx, id)
		if err != nil {
			return nil, err
		}

		owner, err := c.resolve(old.Credential.Issuer)
		if err != nil {
			return nil, err
		}

		if owner != signer {
			return nil, ErrNotCredentialOwner
		}

		if err := c.store.Delete(ctx, BucketCredentials, CredentialKey(id)); err != nil {
			return nil, fmt.Errorf("error deleting credential %d: %w", id, err)
		}

		return &Event{Kind: CredentialDeleted, ID: uint32(id)}, nil
	})
}

func (c *Credentials) GetCredential(ctx context.Context, id CredentialID) (*CredentialEntry, error) {
	return c.load(ctx, id)
}

func (c *Credentials) Nonce(ctx context.Context) (uint64, error) {
	return c.nonce(ctx)
}
