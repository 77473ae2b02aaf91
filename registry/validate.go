package registry

import "fmt"

func validateClaims(list string, claims []Claim, want ClaimType) error {
	for i, c := range claims {
		if err := validateClaim(c); err != nil {
			return fmt.Errorf("%s claim %d: %w", list, i, err)
		}

		if c.ClaimType != want {
			return fmt.Errorf("%w: %s claim %d is a %s", ErrClaimTypeMismatch, list, i, c.ClaimType)
		}
	}
	return nil
}

func validateClaim(c Claim) error {
	if !c.ClaimType.Valid() {
		return fmt.Errorf("%w: unknown claim type %d", ErrInvalidRecord, c.ClaimType)
	}

	reqs, _ := c.IssuanceRequirement.Get()
	for i, r := range reqs {
		if !r.IssuanceType.Valid() {
			return fmt.Errorf("%w: issuance requirement %d has unknown type %d", ErrInvalidRecord, i, r.IssuanceType)
		}
	}

	return nil
}

// ValidateSchema checks enum ranges and that every claim sits in the list matching its type.
func ValidateSchema(s *VerifiableCredentialSchema) error {
	for i, a := range s.MandatoryFields {
		if !a.AttributeType.Valid() {
			return fmt.Errorf("%w: mandatory field %d has unknown type %d", ErrInvalidRecord, i, a.AttributeType)
		}
	}

	if err := validateClaims("issuer", s.IssuerClaims, IssuerClaim); err != nil {
		return err
	}

	if err := validateClaims("subject", s.SubjectClaims, SubjectClaim); err != nil {
		return err
	}

	return validateClaims("credential", s.CredentialClaims, CredentialClaim)
}

func ValidateCredential(c *VerifiableCredential) error {
	for i, cl := range c.Subject.Claim {
		if err := validateClaim(cl); err != nil {
			return fmt.Errorf("subject claim %d: %w", i, err)
		}
	}
	return nil
}
