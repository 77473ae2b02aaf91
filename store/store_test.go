package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/models"
	"github.com/haileyok/seneca/registry"
	"github.com/haileyok/seneca/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	db, err := Open(DriverSqlite, filepath.Join(t.TempDir(), "seneca.db"))
	require.NoError(t, err)

	s := New(db)
	require.NoError(t, s.Migrate())

	t.Cleanup(func() {
		if sqldb, err := db.DB(); err == nil {
			sqldb.Close()
		}
	})

	return s
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, registry.BucketSchemas, registry.SchemaKey(1))
	assert.ErrorIs(t, err, registry.ErrNotFound)

	require.NoError(t, s.Put(ctx, registry.BucketSchemas, registry.SchemaKey(1), []byte("one")))
	require.NoError(t, s.Put(ctx, registry.BucketCredentials, registry.SchemaKey(1), []byte("other bucket")))

	v, err := s.Get(ctx, registry.BucketSchemas, registry.SchemaKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	require.NoError(t, s.Put(ctx, registry.BucketSchemas, registry.SchemaKey(1), []byte("uno")))

	v, err = s.Get(ctx, registry.BucketSchemas, registry.SchemaKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("uno"), v)

	ok, err := s.Has(ctx, registry.BucketSchemas, registry.SchemaKey(1))
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := registry.RecordCID([]byte("uno"))
	require.NoError(t, err)

	rec, err := s.GetByCid(ctx, c.String())
	require.NoError(t, err)
	assert.Equal(t, registry.BucketSchemas, rec.Bucket)
	assert.Equal(t, registry.SchemaKey(1), rec.Rkey)

	require.NoError(t, s.Delete(ctx, registry.BucketSchemas, registry.SchemaKey(1)))

	ok, err = s.Has(ctx, registry.BucketSchemas, registry.SchemaKey(1))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.GetByCid(ctx, c.String())
	assert.ErrorIs(t, err, registry.ErrNotFound)

	v, err = s.Get(ctx, registry.BucketCredentials, registry.SchemaKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("other bucket"), v)
}

func TestStoreIterateOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []registry.SchemaID{70000, 3, 256, 1} {
		require.NoError(t, s.Put(ctx, registry.BucketSchemas, registry.SchemaKey(id), []byte("x")))
	}

	var ids []uint32
	require.NoError(t, s.Iterate(ctx, registry.BucketSchemas, func(key, _ []byte) error {
		id, err := registry.ParseKey(key)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	}))

	assert.Equal(t, []uint32{1, 3, 256, 70000}, ids)
}

func TestStoreAtomicRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, registry.BucketMeta, []byte("k"), []byte("before")))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(ctx context.Context) error {
		if err := s.Put(ctx, registry.BucketMeta, []byte("k"), []byte("after")); err != nil {
			return err
		}
		if err := s.Put(ctx, registry.BucketMeta, []byte("new"), []byte("x")); err != nil {
			return err
		}
		return s.Atomic(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	v, err := s.Get(ctx, registry.BucketMeta, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("before"), v)

	_, err = s.Get(ctx, registry.BucketMeta, []byte("new"))
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRegistryOnStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	codec := did.NewCodec()

	args := &registry.Args{
		Store:    s,
		Resolver: codec,
		Verifier: signature.Sr25519Verifier{},
	}

	schemas, err := registry.NewSchemas(args)
	require.NoError(t, err)

	kp, err := signature.GenerateKeyPair(signature.Sr25519)
	require.NoError(t, err)
	creator := codec.Encode(kp.Public())

	schema := &registry.VerifiableCredentialSchema{
		Name:    []byte("Alice Data"),
		Creator: []byte(creator),
		SubjectClaims: []registry.Claim{
			{Property: []byte("name"), Value: []byte("alice"), ClaimType: registry.SubjectClaim},
		},
		Metadata: []byte("v1"),
		Nonce:    1,
	}

	b, err := registry.EncodeSchema(schema)
	require.NoError(t, err)

	// a rejected mutation leaves neither a record nor a nonce behind
	err = schemas.CreateSchema(ctx, kp.Public(), 1, schema, signature.Signature{})
	assert.ErrorIs(t, err, registry.ErrSignatureVerify)

	var count int64
	require.NoError(t, s.DB().Model(&models.Record{}).Count(&count).Error)
	assert.Zero(t, count)

	sig, err := kp.Sign(b)
	require.NoError(t, err)
	require.NoError(t, schemas.CreateSchema(ctx, kp.Public(), 1, schema, sig))

	got, err := schemas.GetSchema(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, sig, got.Signature)

	gotBytes, err := registry.EncodeSchema(&got.Schema)
	require.NoError(t, err)
	assert.Equal(t, b, gotBytes)

	n, err := schemas.Nonce(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	require.NoError(t, schemas.DeleteSchema(ctx, kp.Public(), 1))
	assert.ErrorIs(t, schemas.DeleteSchema(ctx, kp.Public(), 1), registry.ErrUnknownSchema)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x")
	assert.Error(t, err)
}
