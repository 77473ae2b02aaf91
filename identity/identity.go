package identity

import (
	"fmt"

	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/signature"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
)

type verificationKeyType struct {
	name string
	// multicodec code prefixed to the raw public key
	codec uint64
}

var verificationKeyTypes = map[signature.Scheme]verificationKeyType{
	signature.Sr25519: {name: "Sr25519VerificationKey2020", codec: 0xef},
	signature.Ed25519: {name: "Ed25519VerificationKey2020", codec: 0xed},
}

// PublicKeyMultibase encodes a public key as base58btc multibase over the
// multicodec-prefixed key bytes.
func PublicKeyMultibase(scheme signature.Scheme, acct did.AccountID) (string, error) {
	kt, ok := verificationKeyTypes[scheme]
	if !ok {
		return "", fmt.Errorf("unsupported signature scheme %q", scheme)
	}

	return multibase.Encode(multibase.Base58BTC, append(varint.ToUvarint(kt.codec), acct.Bytes()...))
}

// BuildDidDoc renders the did document for a registry did. The single
// verification method carries the key the did embeds.
func BuildDidDoc(codec *did.Codec, scheme signature.Scheme, d string) (*DidDoc, error) {
	acct, err := codec.ResolveString(d)
	if err != nil {
		return nil, err
	}

	kt, ok := verificationKeyTypes[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}

	mb, err := PublicKeyMultibase(scheme, acct)
	if err != nil {
		return nil, err
	}

	vmid := d + "#keys-1"

	return &DidDoc{
		Context: []string{
			"https://www.w3.org/ns/did/v1",
			"https://w3id.org/security/suites/ed25519-2020/v1",
		},
		Id: d,
		VerificationMethods: []DidDocVerificationMethod{
			{
				Id:                 vmid,
				Type:               kt.name,
				Controller:         d,
				PublicKeyMultibase: mb,
			},
		},
		Authentication:  []string{vmid},
		AssertionMethod: []string{vmid},
	}, nil
}
