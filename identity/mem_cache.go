package identity

import (
	"time"

	"github.com/haileyok/seneca/did"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemCache struct {
	docCache  *expirable.LRU[string, *DidDoc]
	acctCache *expirable.LRU[string, did.AccountID]
}

func NewMemCache(size int, ttl time.Duration) *MemCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	docCache := expirable.NewLRU[string, *DidDoc](size, nil, ttl)
	acctCache := expirable.NewLRU[string, did.AccountID](size, nil, ttl)

	return &MemCache{
		docCache:  docCache,
		acctCache: acctCache,
	}
}

func (mc *MemCache) GetDoc(d string) (*DidDoc, bool) {
	return mc.docCache.Get(d)
}

func (mc *MemCache) PutDoc(d string, doc *DidDoc) error {
	mc.docCache.Add(d, doc)
	return nil
}

func (mc *MemCache) BustDoc(d string) error {
	mc.docCache.Remove(d)
	return nil
}

func (mc *MemCache) GetAccount(d string) (did.AccountID, bool) {
	return mc.acctCache.Get(d)
}

func (mc *MemCache) PutAccount(d string, acct did.AccountID) error {
	mc.acctCache.Add(d, acct)
	return nil
}

func (mc *MemCache) BustAccount(d string) error {
	mc.acctCache.Remove(d)
	return nil
}
