package api

import (
	"github.com/haileyok/seneca/registry"
)

type Attribute struct {
	Name          Bytes  `json:"name"`
	AttributeType string `json:"attributeType"`
}

type IssuanceRequirement struct {
	Name         Bytes  `json:"name"`
	IssuanceType string `json:"issuanceType"`
}

type Claim struct {
	SchemaID            *uint32                `json:"schemaId,omitempty"`
	Property            Bytes                  `json:"property"`
	Value               Bytes                  `json:"value"`
	ClaimType           string                 `json:"claimType"`
	IssuanceRequirement *[]IssuanceRequirement `json:"issuanceRequirement,omitempty"`
}

type Subject struct {
	ID    Bytes   `json:"id"`
	Claim []Claim `json:"claim"`
}

type Schema struct {
	Name             Bytes       `json:"name"`
	Creator          Bytes       `json:"creator"`
	Public           bool        `json:"public"`
	CreationDate     uint64      `json:"creationDate"`
	ExpirationDate   *uint64     `json:"expirationDate,omitempty"`
	MandatoryFields  []Attribute `json:"mandatoryFields"`
	IssuerClaims     []Claim     `json:"issuerClaims"`
	SubjectClaims    []Claim     `json:"subjectClaims"`
	CredentialClaims []Claim     `json:"credentialClaims"`
	Metadata         Bytes       `json:"metadata"`
	Nonce            uint64      `json:"nonce"`
}

type Credential struct {
	Context          Bytes   `json:"context"`
	Schema           uint32  `json:"schema"`
	Issuer           Bytes   `json:"issuer"`
	IssuanceDate     *uint64 `json:"issuanceDate,omitempty"`
	ExpirationDate   *uint64 `json:"expirationDate,omitempty"`
	Subject          Subject `json:"subject"`
	CredentialHolder Bytes   `json:"credentialHolder"`
	Nonce            uint64  `json:"nonce"`
}

type SchemaView struct {
	ID        uint32 `json:"id"`
	Cid       string `json:"cid"`
	Signature string `json:"signature"`
	Schema    Schema `json:"schema"`
}

type CredentialView struct {
	ID         uint32     `json:"id"`
	Cid        string     `json:"cid"`
	Signature  string     `json:"signature"`
	Credential Credential `json:"credential"`
}

type CreateSessionRequest struct {
	Did       string `json:"did" validate:"required,did"`
	IssuedAt  uint64 `json:"issuedAt" validate:"required"`
	Signature string `json:"signature" validate:"required,hexsig"`
}

type CreateSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
}

type CreateSchemaRequest struct {
	ID        uint32 `json:"id"`
	Schema    Schema `json:"schema"`
	Signature string `json:"signature" validate:"required,hexsig"`
}

type CreateCredentialRequest struct {
	ID         uint32     `json:"id"`
	Credential Credential `json:"credential"`
	Signature  string     `json:"signature" validate:"required,hexsig"`
}

type DeleteRequest struct {
	ID uint32 `json:"id"`
}

type MutationResponse struct {
	ID    uint32 `json:"id"`
	Cid   string `json:"cid,omitempty"`
	Nonce uint64 `json:"nonce"`
}

type ListSchemasResponse struct {
	Schemas []SchemaView `json:"schemas"`
}

type ListCredentialsResponse struct {
	Credentials []CredentialView `json:"credentials"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func optionPtr(o registry.Option[registry.Moment]) *uint64 {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	u := uint64(v)
	return &u
}

func optionFrom(p *uint64) registry.Option[registry.Moment] {
	if p == nil {
		return registry.None[registry.Moment]()
	}
	return registry.Some(registry.Moment(*p))
}
