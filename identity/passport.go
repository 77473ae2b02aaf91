package identity

import (
	"context"

	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/signature"
)

type BackingCache interface {
	GetDoc(d string) (*DidDoc, bool)
	PutDoc(d string, doc *DidDoc) error
	BustDoc(d string) error

	GetAccount(d string) (did.AccountID, bool)
	PutAccount(d string, acct did.AccountID) error
	BustAccount(d string) error
}

type skipCacheKey struct{}

func WithSkipCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipCacheKey{}, true)
}

// Passport resolves dids through the codec, remembering successful results.
type Passport struct {
	codec  *did.Codec
	scheme signature.Scheme
	bc     BackingCache
}

func NewPassport(codec *did.Codec, scheme signature.Scheme, bc BackingCache) *Passport {
	return &Passport{
		codec:  codec,
		scheme: scheme,
		bc:     bc,
	}
}

func (p *Passport) Resolve(d []byte) (did.AccountID, error) {
	return p.ResolveAccount(context.Background(), string(d))
}

func (p *Passport) ResolveAccount(ctx context.Context, d string) (did.AccountID, error) {
	skipCache, _ := ctx.Value(skipCacheKey{}).(bool)

	if !skipCache {
		cached, ok := p.bc.GetAccount(d)
		if ok {
			return cached, nil
		}
	}

	acct, err := p.codec.ResolveString(d)
	if err != nil {
		return acct, err
	}

	p.bc.PutAccount(d, acct)

	return acct, nil
}

func (p *Passport) FetchDoc(ctx context.Context, d string) (*DidDoc, error) {
	skipCache, _ := ctx.Value(skipCacheKey{}).(bool)

	if !skipCache {
		cached, ok := p.bc.GetDoc(d)
		if ok {
			return cached, nil
		}
	}

	doc, err := BuildDidDoc(p.codec, p.scheme, d)
	if err != nil {
		return nil, err
	}

	p.bc.PutDoc(d, doc)

	return doc, nil
}

func (p *Passport) BustDoc(ctx context.Context, d string) error {
	return p.bc.BustDoc(d)
}

func (p *Passport) BustAccount(ctx context.Context, d string) error {
	return p.bc.BustAccount(d)
}
