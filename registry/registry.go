package registry

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/signature"
)

// Resolver recovers the account id embedded in a did. *did.Codec and
// *identity.Passport both satisfy it.
type Resolver interface {
	Resolve(did []byte) (did.AccountID, error)
}

type core struct {
	store    Store
	resolver Resolver
	verifier signature.Verifier
	events   EventSink
	config   *Config
	logger   *slog.Logger
	nonceKey []byte
}

func newCore(args *Args, component string) (*core, error) {
	if err := args.defaults(); err != nil {
		return nil, err
	}

	return &core{
		store:    args.Store,
		resolver: args.Resolver,
		verifier: args.Verifier,
		events:   args.Events,
		config:   args.Config,
		logger:   args.Logger.With("component", component),
		nonceKey: []byte(component + "/nonce"),
	}, nil
}

func (c *core) resolve(d []byte) (did.AccountID, error) {
	acct, err := c.resolver.Resolve(d)
	if err != nil {
		if errors.Is(err, ErrInvalidDID) {
			return acct, err
		}
		return acct, fmt.Errorf("%w: %w", ErrInvalidDID, err)
	}
	return acct, nil
}

func (c *core) verify(msg []byte, sig signature.Signature, acct did.AccountID) error {
	if !c.verifier.Verify(msg, sig, acct) {
		return ErrSignatureVerify
	}
	return nil
}

func (c *core) expired(exp Option[Moment]) bool {
	if !c.config.EnforceExpiry {
		return false
	}

	at, ok := exp.Get()
	if !ok {
		return false
	}

	return at <= c.config.now()
}

func (c *core) nonce(ctx context.Context) (uint64, error) {
	b, err := c.store.Get(ctx, BucketMeta, c.nonceKey)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading nonce: %w", err)
	}

	if len(b) != 8 {
		return 0, fmt.Errorf("corrupt nonce of %d bytes", len(b))
	}

	return binary.BigEndian.Uint64(b), nil
}

func (c *core) bumpNonce(ctx context.Context) (uint64, error) {
	n, err := c.nonce(ctx)
	if err != nil {
		return 0, err
	}

	n++

	if err := c.store.Put(ctx, BucketMeta, c.nonceKey, binary.BigEndian.AppendUint64(nil, n)); err != nil {
		return 0, fmt.Errorf("error writing nonce: %w", err)
	}

	return n, nil
}

// commit runs fn in a store transaction and emits its event once the transaction has committed.
func (c *core) commit(ctx context.Context, fn func(ctx context.Context) (*Event, error)) error {
	var evt *Event

	if err := c.store.Atomic(ctx, func(ctx context.Context) error {
		e, err := fn(ctx)
		if err != nil {
			return err
		}

		seq, err := c.bumpNonce(ctx)
		if err != nil {
			return err
		}

		e.Seq = seq
		evt = e

		return nil
	}); err != nil {
		return err
	}

	c.logger.Debug("mutation accepted", "kind", evt.Kind, "id", evt.ID, "seq", evt.Seq)

	c.events.Emit(ctx, evt)

	return nil
}
