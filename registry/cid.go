package registry

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// RecordCID addresses a stored tuple: cidv1, raw codec, sha2-256.
func RecordCID(raw []byte) (cid.Cid, error) {
	return cid.V1Builder{Codec: cid.Raw, MhType: multihash.SHA2_256}.Sum(raw)
}

func (e *SchemaEntry) CID() (cid.Cid, error) {
	return RecordCID(e.Raw)
}

func (e *CredentialEntry) CID() (cid.Cid, error) {
	return RecordCID(e.Raw)
}
