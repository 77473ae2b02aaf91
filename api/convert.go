package api

import (
	"fmt"

	"github.com/haileyok/seneca/registry"
)

func attributesFrom(attrs []registry.Attribute) []Attribute {
	out := []Attribute{}
	for _, a := range attrs {
		out = append(out, Attribute{
			Name:          Bytes(a.Name),
			AttributeType: a.AttributeType.String(),
		})
	}
	return out
}

func claimsFrom(claims []registry.Claim) []Claim {
	out := []Claim{}
	for _, c := range claims {
		claim := Claim{
			Property:  Bytes(c.Property),
			Value:     Bytes(c.Value),
			ClaimType: c.ClaimType.String(),
		}

		if id, ok := c.SchemaID.Get(); ok {
			u := uint32(id)
			claim.SchemaID = &u
		}

		if reqs, ok := c.IssuanceRequirement.Get(); ok {
			list := []IssuanceRequirement{}
			for _, r := range reqs {
				list = append(list, IssuanceRequirement{
					Name:         Bytes(r.Name),
					IssuanceType: r.IssuanceType.String(),
				})
			}
			claim.IssuanceRequirement = &list
		}

		out = append(out, claim)
	}
	return out
}

func FromSchema(s *registry.VerifiableCredentialSchema) Schema {
	return Schema{
		Name:             Bytes(s.Name),
		Creator:          Bytes(s.Creator),
		Public:           s.Public,
		CreationDate:     uint64(s.CreationDate),
		ExpirationDate:   optionPtr(s.ExpirationDate),
		MandatoryFields:  attributesFrom(s.MandatoryFields),
		IssuerClaims:     claimsFrom(s.IssuerClaims),
		SubjectClaims:    claimsFrom(s.SubjectClaims),
		CredentialClaims: claimsFrom(s.CredentialClaims),
		Metadata:         Bytes(s.Metadata),
		Nonce:            s.Nonce,
	}
}

func FromCredential(c *registry.VerifiableCredential) Credential {
	return Credential{
		Context:        Bytes(c.Context),
		Schema:         uint32(c.Schema),
		Issuer:         Bytes(c.Issuer),
		IssuanceDate:   optionPtr(c.IssuanceDate),
		ExpirationDate: optionPtr(c.ExpirationDate),
		Subject: Subject{
			ID:    Bytes(c.Subject.ID),
			Claim: claimsFrom(c.Subject.Claim),
		},
		CredentialHolder: Bytes(c.CredentialHolder),
		Nonce:            c.Nonce,
	}
}

func FromSchemaEntry(e *registry.SchemaEntry) (*SchemaView, error) {
	c, err := e.CID()
	if err != nil {
		return nil, err
	}

	return &SchemaView{
		ID:        uint32(e.ID),
		Cid:       c.String(),
		Signature: e.Signature.Hex(),
		Schema:    FromSchema(&e.Schema),
	}, nil
}

func FromCredentialEntry(e *registry.CredentialEntry) (*CredentialView, error) {
	c, err := e.CID()
	if err != nil {
		return nil, err
	}

	return &CredentialView{
		ID:         uint32(e.ID),
		Cid:        c.String(),
		Signature:  e.Signature.Hex(),
		Credential: FromCredential(&e.Credential),
	}, nil
}

func nilIfEmpty(s Bytes) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}

func attributesTo(attrs []Attribute) ([]registry.Attribute, error) {
	var out []registry.Attribute
	for _, a := range attrs {
		t, err := registry.ParseAttributeType(a.AttributeType)
		if err != nil {
			return nil, err
		}
		out = append(out, registry.Attribute{Name: nilIfEmpty(a.Name), AttributeType: t})
	}
	return out, nil
}

func claimsTo(claims []Claim) ([]registry.Claim, error) {
	var out []registry.Claim
	for _, c := range claims {
		ct, err := registry.ParseClaimType(c.ClaimType)
		if err != nil {
			return nil, err
		}

		claim := registry.Claim{
			SchemaID:            registry.None[registry.SchemaID](),
			Property:            nilIfEmpty(c.Property),
			Value:               nilIfEmpty(c.Value),
			ClaimType:           ct,
			IssuanceRequirement: registry.None[[]registry.IssuanceRequirement](),
		}

		if c.SchemaID != nil {
			claim.SchemaID = registry.Some(registry.SchemaID(*c.SchemaID))
		}

		if c.IssuanceRequirement != nil {
			var reqs []registry.IssuanceRequirement
			for _, r := range *c.IssuanceRequirement {
				it, err := registry.ParseAttributeType(r.IssuanceType)
				if err != nil {
					return nil, err
				}
				reqs = append(reqs, registry.IssuanceRequirement{Name: nilIfEmpty(r.Name), IssuanceType: it})
			}
			claim.IssuanceRequirement = registry.Some(reqs)
		}

		out = append(out, claim)
	}
	return out, nil
}

// ToSchema converts the json form back into a record. Byte fields become nil
// when empty so the result encodes identically to a decoded record.
func ToSchema(s *Schema) (*registry.VerifiableCredentialSchema, error) {
	mandatory, err := attributesTo(s.MandatoryFields)
	if err != nil {
		return nil, fmt.Errorf("invalid mandatory field: %w", err)
	}

	issuer, err := claimsTo(s.IssuerClaims)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer claim: %w", err)
	}

	subject, err := claimsTo(s.SubjectClaims)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	credential, err := claimsTo(s.CredentialClaims)
	if err != nil {
		return nil, fmt.Errorf("invalid credential claim: %w", err)
	}

	return &registry.VerifiableCredentialSchema{
		Name:             nilIfEmpty(s.Name),
		Creator:          nilIfEmpty(s.Creator),
		Public:           s.Public,
		CreationDate:     registry.Moment(s.CreationDate),
		ExpirationDate:   optionFrom(s.ExpirationDate),
		MandatoryFields:  mandatory,
		IssuerClaims:     issuer,
		SubjectClaims:    subject,
		CredentialClaims: credential,
		Metadata:         nilIfEmpty(s.Metadata),
		Nonce:            s.Nonce,
	}, nil
}

func ToCredential(c *Credential) (*registry.VerifiableCredential, error) {
	claims, err := claimsTo(c.Subject.Claim)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	return &registry.VerifiableCredential{
		Context:        nilIfEmpty(c.Context),
		Schema:         registry.SchemaID(c.Schema),
		Issuer:         nilIfEmpty(c.Issuer),
		IssuanceDate:   optionFrom(c.IssuanceDate),
		ExpirationDate: optionFrom(c.ExpirationDate),
		Subject: registry.Subject{
			ID:    nilIfEmpty(c.Subject.ID),
			Claim: claims,
		},
		CredentialHolder: nilIfEmpty(c.CredentialHolder),
		Nonce:            c.Nonce,
	}, nil
}
