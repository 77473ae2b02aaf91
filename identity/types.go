package identity

type DidDoc struct {
	Context             []string                   `json:"@context"`
	Id                  string                     `json:"id"`
	VerificationMethods []DidDocVerificationMethod `json:"verificationMethod"`
	Authentication      []string                   `json:"authentication"`
	AssertionMethod     []string                   `json:"assertionMethod"`
	Service             []DidDocService            `json:"service,omitempty"`
}

type DidDocVerificationMethod struct {
	Id                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

type DidDocService struct {
	Id              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}
