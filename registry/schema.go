package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/signature"
)

type SchemaRegistry interface {
	CreateSchema(ctx context.Context, signer did.AccountID, id SchemaID, schema *VerifiableCredentialSchema, sig signature.Signature) error
	UpdateSchema(ctx context.Context, signer did.AccountID, id SchemaID, newData *SignedSchema) error
	DeleteSchema(ctx context.Context, signer did.AccountID, id SchemaID) error
	GetSchema(ctx context.Context, id SchemaID) (*SchemaEntry, error)
	ListSchemas(ctx context.Context) ([]*SchemaEntry, error)
	Nonce(ctx context.Context) (uint64, error)
}

// SchemaInterface is what the credential registry needs from the schema registry.
type SchemaInterface interface {
	CheckSchemaIDExists(ctx context.Context, id SchemaID) error
	ToSchemaID(id uint32) SchemaID
}

type SchemaEntry struct {
	ID SchemaID
	SignedSchema
	// Raw is the stored tuple encoding.
	Raw []byte
}

type Schemas struct {
	*core
}

var (
	_ SchemaRegistry  = (*Schemas)(nil)
	_ SchemaInterface = (*Schemas)(nil)
)

func NewSchemas(args *Args) (*Schemas, error) {
	c, err := newCore(args, "schemas")
	if err != nil {
		return nil, err
	}

	return &Schemas{core: c}, nil
}

func (s *Schemas) load(ctx context.Context, id SchemaID) (*SchemaEntry, error) {
	raw, err := s.store.Get(ctx, BucketSchemas, SchemaKey(id))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnknownSchema
	}
	if err != nil {
		return nil, fmt.Errorf("error loading schema %d: %w", id, err)
	}

	signed, err := DecodeSignedSchema(raw)
	if err != nil {
		return nil, err
	}

	return &SchemaEntry{ID: id, SignedSchema: *signed, Raw: raw}, nil
}

func (s *Schemas) CreateSchema(ctx context.Context, signer did.AccountID, id SchemaID, schema *VerifiableCredentialSchema, sig signature.Signature) error {
	return s.commit(ctx, func(ctx context.Context) (*Event, error) {
		exists, err := s.store.Has(ctx, BucketSchemas, SchemaKey(id))
		if err != nil {
			return nil, fmt.Errorf("error checking schema %d: %w", id, err)
		}
		if exists {
			return nil, ErrSchemaAlreadyExists
		}

		if err := ValidateSchema(schema); err != nil {
			return nil, err
		}

		creator, err := s.resolve(schema.Creator)
		if err != nil {
			return nil, err
		}

		if creator != signer {
			return nil, ErrNotSchemaOwner
		}

		encoded, err := EncodeSchema(schema)
		if err != nil {
			return nil, err
		}

		if err := s.verify(encoded, sig, creator); err != nil {
			return nil, err
		}

		raw, err := EncodeSignedSchema(&SignedSchema{Signature: sig, Schema: *schema})
		if err != nil {
			return nil, err
		}

		if err := s.store.Put(ctx, BucketSchemas, SchemaKey(id), raw); err != nil {
			return nil, fmt.Errorf("error storing schema %d: %w", id, err)
		}

		return &Event{Kind: SchemaCreated, ID: uint32(id), Record: encoded, Signature: &sig}, nil
	})
}

// UpdateSchema replaces the stored tuple. Ownership comes from the stored
// creator, and the replacement must be signed by that same owner.
func (s *Schemas) UpdateSchema(ctx context.Context, signer did.AccountID, id SchemaID, newData *SignedSchema) error {
	return s.commit(ctx, func(ctx context.Context) (*Event, error) {
		old, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		owner, err := s.resolve(old.Schema.Creator)
		if err != nil {
			return nil, err
		}

		if owner != signer {
			return nil, ErrNotSchemaOwner
		}

		if s.expired(old.Schema.ExpirationDate) {
			return nil, ErrSchemaExpired
		}

		raw, err := EncodeSignedSchema(newData)
		if err != nil {
			return nil, err
		}

		if bytes.Equal(raw, old.Raw) {
			return nil, ErrSchemaAlreadyExists
		}

		if err := ValidateSchema(&newData.Schema); err != nil {
			return nil, err
		}

		creator, err := s.resolve(newData.Schema.Creator)
		if err != nil {
			return nil, err
		}

		if creator != owner {
			return nil, ErrNotSchemaOwner
		}

		if s.config.RequireIncreasingNonce && newData.Schema.Nonce <= old.Schema.Nonce {
			return nil, ErrStaleNonce
		}

		encoded, err := EncodeSchema(&newData.Schema)
		if err != nil {
			return nil, err
		}

		if err := s.verify(encoded, newData.Signature, creator); err != nil {
			return nil, err
		}

		if err := s.store.Put(ctx, BucketSchemas, SchemaKey(id), raw); err != nil {
			return nil, fmt.Errorf("error storing schema %d: %w", id, err)
		}

		sig := newData.Signature
		return &Event{Kind: SchemaUpdated, ID: uint32(id), Record: encoded, Signature: &sig}, nil
	})
}

func (s *Schemas) DeleteSchema(ctx context.Context, signer did.AccountID, id SchemaID) error {
	return s.commit(ctx, func(ctx context.Context) (*Event, error) {
		old, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		owner, err := s.resolve(old.Schema.Creator)
		if err != nil {
			return nil, err
		}

		if owner != signer {
			return nil, ErrNotSchemaOwner
		}

		if err := s.store.Delete(ctx, BucketSchemas, SchemaKey(id)); err != nil {
			return nil, fmt.Errorf("error deleting schema %d: %w", id, err)
		}

		return &Event{Kind: SchemaDeleted, ID: uint32(id)}, nil
	})
}

func (s *Schemas) GetSchema(ctx context.Context, id SchemaID) (*SchemaEntry, error) {
	return s.load(ctx, id)
}

func (s *Schemas) ListSchemas(ctx context.Context) ([]*SchemaEntry, error) {
	var out []*SchemaEntry

	if err := s.store.Iterate(ctx, BucketSchemas, func(key, value []byte) error {
		id, err := ParseKey(key)
		if err != nil {
			return err
		}

		signed, err := DecodeSignedSchema(value)
		if err != nil {
			return fmt.Errorf("schema %d: %w", id, err)
		}

		out = append(out, &SchemaEntry{ID: SchemaID(id), SignedSchema: *signed, Raw: value})
		return nil
	}); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Schemas) Nonce(ctx context.Context) (uint64, error) {
	return s.nonce(ctx)
}

func (s *Schemas) CheckSchemaIDExists(ctx context.Context, id SchemaID) error {
	ok, err := s.store.Has(ctx, BucketSchemas, SchemaKey(id))
	if err != nil {
		return fmt.Errorf("error checking schema %d: %w", id, err)
	}

	if !ok {
		return ErrSchemaIDDoesNotExist
	}

	return nil
}

func (s *Schemas) ToSchemaID(id uint32) SchemaID {
	return SchemaID(id)
}
