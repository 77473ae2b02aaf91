package registry

import (
	"fmt"

	"github.com/haileyok/seneca/signature"
	"github.com/near/borsh-go"
)

type SchemaID uint32

type CredentialID uint32

// Moment is a unix timestamp in milliseconds.
type Moment uint64

// Option is an optional value. It shares its wire form with a borsh Option:
// a zero byte for none, a one byte followed by the value for some.
type Option[T any] struct {
	Kind    borsh.Enum `borsh_enum:"true"`
	Absent  struct{}
	Present present[T]
}

type present[T any] struct {
	Value T
}

func Some[T any](v T) Option[T] {
	return Option[T]{Kind: 1, Present: present[T]{Value: v}}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) Get() (T, bool) {
	if o.Kind == 0 {
		var zero T
		return zero, false
	}
	return o.Present.Value, true
}

func (o Option[T]) IsSome() bool {
	return o.Kind != 0
}

// Ptr returns nil for none, otherwise a pointer to a copy of the value.
func (o Option[T]) Ptr() *T {
	if o.Kind == 0 {
		return nil
	}
	v := o.Present.Value
	return &v
}

func OptionFromPtr[T any](p *T) Option[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

type AttributeType borsh.Enum

const (
	AttributeInt AttributeType = iota
	AttributeUint
	AttributeFloat
	AttributeHex
	AttributeDateType
	AttributeBase64
	AttributeText
)

var attributeTypeNames = []string{"Int", "Uint", "Float", "Hex", "DateType", "Base64", "Text"}

func (t AttributeType) String() string {
	if int(t) < len(attributeTypeNames) {
		return attributeTypeNames[t]
	}
	return fmt.Sprintf("AttributeType(%d)", t)
}

func (t AttributeType) Valid() bool {
	return int(t) < len(attributeTypeNames)
}

func ParseAttributeType(s string) (AttributeType, error) {
	for i, n := range attributeTypeNames {
		if n == s {
			return AttributeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute type %q", s)
}

// IssuanceType shares its variants with AttributeType.
type IssuanceType = AttributeType

type ClaimType borsh.Enum

const (
	IssuerClaim ClaimType = iota
	SubjectClaim
	CredentialClaim
)

var claimTypeNames = []string{"IssuerClaim", "SubjectClaim", "CredentialClaim"}

func (t ClaimType) String() string {
	if int(t) < len(claimTypeNames) {
		return claimTypeNames[t]
	}
	return fmt.Sprintf("ClaimType(%d)", t)
}

func (t ClaimType) Valid() bool {
	return int(t) < len(claimTypeNames)
}

func ParseClaimType(s string) (ClaimType, error) {
	for i, n := range claimTypeNames {
		if n == s {
			return ClaimType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown claim type %q", s)
}

type Attribute struct {
	Name          []byte
	AttributeType AttributeType
}

type IssuanceRequirement struct {
	Name         []byte
	IssuanceType IssuanceType
}

type Claim struct {
	SchemaID            Option[SchemaID]
	Property            []byte
	Value               []byte
	ClaimType           ClaimType
	IssuanceRequirement Option[[]IssuanceRequirement]
}

type Subject struct {
	ID    []byte
	Claim []Claim
}

type VerifiableCredentialSchema struct {
	Name             []byte
	Creator          []byte
	Public           bool
	CreationDate     Moment
	ExpirationDate   Option[Moment]
	MandatoryFields  []Attribute
	IssuerClaims     []Claim
	SubjectClaims    []Claim
	CredentialClaims []Claim
	Metadata         []byte
	Nonce            uint64
}

type VerifiableCredential struct {
	Context          []byte
	Schema           SchemaID
	Issuer           []byte
	IssuanceDate     Option[Moment]
	ExpirationDate   Option[Moment]
	Subject          Subject
	CredentialHolder []byte
	Nonce            uint64
}

// SignedSchema is the stored tuple for a schema.
type SignedSchema struct {
	Signature signature.Signature
	Schema    VerifiableCredentialSchema
}

// SignedCredential is the stored tuple for a credential.
type SignedCredential struct {
	Signature  signature.Signature
	Credential VerifiableCredential
}
