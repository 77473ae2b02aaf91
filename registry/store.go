package registry

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
)

const (
	BucketSchemas     = "schemas"
	BucketCredentials = "credentials"
	BucketMeta        = "meta"
)

var ErrNotFound = errors.New("not found")

// Store is a byte keyed map split into buckets.
//
// Atomic runs fn so that every Store call made with the context it receives
// either commits together or not at all. Calling Atomic with a context that
// already carries a transaction joins that transaction.
type Store interface {
	Get(ctx context.Context, bucket string, key []byte) ([]byte, error)
	Put(ctx context.Context, bucket string, key, value []byte) error
	Delete(ctx context.Context, bucket string, key []byte) error
	Has(ctx context.Context, bucket string, key []byte) (bool, error)
	// Iterate visits entries in ascending key order. Returning an error from fn stops iteration.
	Iterate(ctx context.Context, bucket string, fn func(key, value []byte) error) error
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type memTxKey struct{}

type memTx struct {
	store *MemStore
	undo  []func()
}

// MemStore is an in-memory Store.
type MemStore struct {
	lk      sync.RWMutex
	buckets map[string]map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{
		buckets: map[string]map[string][]byte{},
	}
}

func (ms *MemStore) tx(ctx context.Context) *memTx {
	tx, ok := ctx.Value(memTxKey{}).(*memTx)
	if !ok || tx.store != ms {
		return nil
	}
	return tx
}

func (ms *MemStore) read(ctx context.Context) func() {
	if ms.tx(ctx) != nil {
		return func() {}
	}
	ms.lk.RLock()
	return ms.lk.RUnlock
}

func (ms *MemStore) write(ctx context.Context) func() {
	if ms.tx(ctx) != nil {
		return func() {}
	}
	ms.lk.Lock()
	return ms.lk.Unlock
}

func (ms *MemStore) Get(ctx context.Context, bucket string, key []byte) ([]byte, error) {
	defer ms.read(ctx)()

	v, ok := ms.buckets[bucket][string(key)]
	if !ok {
		return nil, ErrNotFound
	}

	return bytes.Clone(v), nil
}

func (ms *MemStore) Has(ctx context.Context, bucket string, key []byte) (bool, error) {
	defer ms.read(ctx)()

	_, ok := ms.buckets[bucket][string(key)]
	return ok, nil
}

func (ms *MemStore) Put(ctx context.Context, bucket string, key, value []byte) error {
	defer ms.write(ctx)()

	b, ok := ms.buckets[bucket]
	if !ok {
		b = map[string][]byte{}
		ms.buckets[bucket] = b
	}

	k := string(key)
	prev, existed := b[k]
	if tx := ms.tx(ctx); tx != nil {
		tx.undo = append(tx.undo, func() {
			if existed {
				b[k] = prev
			} else {
				delete(b, k)
			}
		})
	}

	b[k] = bytes.Clone(value)

	return nil
}

func (ms *MemStore) Delete(ctx context.Context, bucket string, key []byte) error {
	defer ms.write(ctx)()

	b, ok := ms.buckets[bucket]
	if !ok {
		return nil
	}

	k := string(key)
	prev, existed := b[k]
	if !existed {
		return nil
	}

	if tx := ms.tx(ctx); tx != nil {
		tx.undo = append(tx.undo, func() {
			b[k] = prev
		})
	}

	delete(b, k)

	return nil
}

func (ms *MemStore) Iterate(ctx context.Context, bucket string, fn func(key, value []byte) error) error {
	unlock := ms.read(ctx)

	b := ms.buckets[bucket]
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = bytes.Clone(b[k])
	}

	unlock()

	for i, k := range keys {
		if err := fn([]byte(k), vals[i]); err != nil {
			return err
		}
	}

	return nil
}

func (ms *MemStore) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if ms.tx(ctx) != nil {
		return fn(ctx)
	}

	ms.lk.Lock()
	defer ms.lk.Unlock()

	tx := &memTx{store: ms}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}

	return nil
}

// Len returns the number of entries in bucket.
func (ms *MemStore) Len(bucket string) int {
	ms.lk.RLock()
	defer ms.lk.RUnlock()
	return len(ms.buckets[bucket])
}
