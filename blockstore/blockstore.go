package blockstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/haileyok/seneca/models"
	"github.com/haileyok/seneca/registry"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
)

var ErrNotFound = errors.New("block not found")

// RecordSource looks up stored registry records by content address.
type RecordSource interface {
	GetByCid(ctx context.Context, c string) (*models.Record, error)
}

// RecordBlockstore is a read only view of registry records as ipld blocks.
// Every record is a raw block whose cid addresses its stored tuple.
type RecordBlockstore struct {
	src RecordSource
}

func New(src RecordSource) *RecordBlockstore {
	return &RecordBlockstore{
		src: src,
	}
}

func (bs *RecordBlockstore) record(ctx context.Context, c cid.Cid) (*models.Record, error) {
	rec, err := bs.src.GetByCid(ctx, c.String())
	if errors.Is(err, registry.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (bs *RecordBlockstore) Get(ctx context.Context, c cid.Cid) (blocks.Block, error) {
	rec, err := bs.record(ctx, c)
	if err != nil {
		return nil, err
	}

	sum, err := c.Prefix().Sum(rec.Value)
	if err != nil {
		return nil, err
	}

	if !sum.Equals(c) {
		return nil, fmt.Errorf("stored record does not match %s", c)
	}

	return blocks.NewBlockWithCid(rec.Value, c)
}

// Bucket reports which registry bucket holds the block.
func (bs *RecordBlockstore) Bucket(ctx context.Context, c cid.Cid) (string, error) {
	rec, err := bs.record(ctx, c)
	if err != nil {
		return "", err
	}
	return rec.Bucket, nil
}

func (bs *RecordBlockstore) Has(ctx context.Context, c cid.Cid) (bool, error) {
	_, err := bs.record(ctx, c)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bs *RecordBlockstore) GetSize(ctx context.Context, c cid.Cid) (int, error) {
	rec, err := bs.record(ctx, c)
	if err != nil {
		return 0, err
	}
	return len(rec.Value), nil
}
