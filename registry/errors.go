package registry

import (
	"errors"

	"github.com/haileyok/seneca/did"
)

var (
	ErrInvalidDID              = did.ErrInvalidDID
	ErrSignatureVerify         = errors.New("signature verification failed")
	ErrNotSchemaOwner          = errors.New("signer is not the schema owner")
	ErrNotCredentialOwner      = errors.New("signer is not the credential owner")
	ErrSchemaAlreadyExists     = errors.New("schema already exists")
	ErrCredentialAlreadyExists = errors.New("credential already exists")
	ErrUnknownSchema           = errors.New("unknown schema")
	ErrUnknownCredential       = errors.New("unknown credential")
	ErrSchemaIDDoesNotExist    = errors.New("schema id does not exist")
	ErrClaimTypeMismatch       = errors.New("claim type does not match its list")
	ErrSchemaExpired           = errors.New("schema has expired")
	ErrCredentialExpired       = errors.New("credential has expired")
	ErrStaleNonce              = errors.New("nonce must increase")
	ErrInvalidRecord           = errors.New("invalid record")
)

var errorNames = []struct {
	err  error
	name string
}{
	{ErrInvalidDID, "InvalidDID"},
	{ErrSignatureVerify, "SignatureVerifyError"},
	{ErrNotSchemaOwner, "NotSchemaOwner"},
	{ErrNotCredentialOwner, "NotCredentialOwner"},
	{ErrSchemaAlreadyExists, "SchemaAlreadyExists"},
	{ErrCredentialAlreadyExists, "CredentialAlreadyExists"},
	{ErrUnknownSchema, "UnknownSchema"},
	{ErrUnknownCredential, "UnknownCredential"},
	{ErrSchemaIDDoesNotExist, "SchemaIdDoesNotExist"},
	{ErrClaimTypeMismatch, "ClaimTypeMismatch"},
	{ErrSchemaExpired, "SchemaExpired"},
	{ErrCredentialExpired, "CredentialExpired"},
	{ErrStaleNonce, "StaleNonce"},
	{ErrInvalidRecord, "InvalidRecord"},
}

// ErrorName returns the wire name of a registry error, or "" if err is not one.
func ErrorName(err error) string {
	for _, en := range errorNames {
		if errors.Is(err, en.err) {
			return en.name
		}
	}
	return ""
}

// ErrorFromName is the inverse of ErrorName. It returns nil for unknown names.
func ErrorFromName(name string) error {
	for _, en := range errorNames {
		if en.name == name {
			return en.err
		}
	}
	return nil
}
