package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreBasics(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore()

	_, err := ms.Get(ctx, BucketSchemas, []byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ms.Put(ctx, BucketSchemas, []byte("a"), []byte("1")))

	v, err := ms.Get(ctx, BucketSchemas, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	// returned values are copies
	v[0] = '9'
	v, err = ms.Get(ctx, BucketSchemas, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	ok, err := ms.Has(ctx, BucketSchemas, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ms.Has(ctx, BucketCredentials, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ms.Delete(ctx, BucketSchemas, []byte("a")))
	require.NoError(t, ms.Delete(ctx, BucketSchemas, []byte("a")))

	ok, err = ms.Has(ctx, BucketSchemas, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemStoreIterateOrder(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore()

	for _, id := range []SchemaID{256, 1, 65536, 2} {
		require.NoError(t, ms.Put(ctx, BucketSchemas, SchemaKey(id), []byte{byte(id)}))
	}

	var got []uint32
	require.NoError(t, ms.Iterate(ctx, BucketSchemas, func(key, _ []byte) error {
		id, err := ParseKey(key)
		require.NoError(t, err)
		got = append(got, id)
		return nil
	}))
	assert.Equal(t, []uint32{1, 2, 256, 65536}, got)

	stop := errors.New("stop")
	count := 0
	err := ms.Iterate(ctx, BucketSchemas, func(_, _ []byte) error {
		count++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func TestMemStoreAtomicRollback(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore()

	require.NoError(t, ms.Put(ctx, BucketSchemas, []byte("keep"), []byte("old")))
	require.NoError(t, ms.Put(ctx, BucketSchemas, []byte("gone"), []byte("x")))

	boom := errors.New("boom")
	err := ms.Atomic(ctx, func(ctx context.Context) error {
		require.NoError(t, ms.Put(ctx, BucketSchemas, []byte("keep"), []byte("new")))
		require.NoError(t, ms.Put(ctx, BucketSchemas, []byte("fresh"), []byte("y")))
		require.NoError(t, ms.Delete(ctx, BucketSchemas, []byte("gone")))

		// nested calls join the outer transaction
		return ms.Atomic(ctx, func(ctx context.Context) error {
			v, err := ms.Get(ctx, BucketSchemas, []byte("keep"))
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), v)
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	v, err := ms.Get(ctx, BucketSchemas, []byte("keep"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), v)

	_, err = ms.Get(ctx, BucketSchemas, []byte("fresh"))
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = ms.Get(ctx, BucketSchemas, []byte("gone"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), v)
}

func TestMemStoreAtomicCommit(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore()

	require.NoError(t, ms.Atomic(ctx, func(ctx context.Context) error {
		return ms.Put(ctx, BucketMeta, []byte("k"), []byte("v"))
	}))

	v, err := ms.Get(ctx, BucketMeta, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	assert.Equal(t, 1, ms.Len(BucketMeta))
}
