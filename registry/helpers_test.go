package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/signature"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	lk     sync.Mutex
	events []*Event
}

func (r *recorder) Emit(_ context.Context, evt *Event) {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) all() []*Event {
	r.lk.Lock()
	defer r.lk.Unlock()
	return append([]*Event(nil), r.events...)
}

type actor struct {
	kp  signature.KeyPair
	did string
}

func newActor(t *testing.T, codec *did.Codec) *actor {
	kp, err := signature.GenerateKeyPair(signature.Sr25519)
	require.NoError(t, err)

	return &actor{kp: kp, did: codec.Encode(kp.Public())}
}

func (a *actor) account() did.AccountID {
	return a.kp.Public()
}

func (a *actor) signSchema(t *testing.T, s *VerifiableCredentialSchema) signature.Signature {
	b, err := EncodeSchema(s)
	require.NoError(t, err)

	sig, err := a.kp.Sign(b)
	require.NoError(t, err)

	return sig
}

func (a *actor) signCredential(t *testing.T, c *VerifiableCredential) signature.Signature {
	b, err := EncodeCredential(c)
	require.NoError(t, err)

	sig, err := a.kp.Sign(b)
	require.NoError(t, err)

	return sig
}

type fixture struct {
	store       *MemStore
	events      *recorder
	codec       *did.Codec
	config      *Config
	schemas     *Schemas
	credentials *Credentials
	alice       *actor
	bob         *actor
}

func newFixture(t *testing.T, cfg *Config) *fixture {
	if cfg == nil {
		cfg = &Config{}
	}

	f := &fixture{
		store:  NewMemStore(),
		events: &recorder{},
		codec:  did.NewCodec(),
		config: cfg,
	}

	args := func() *Args {
		return &Args{
			Store:    f.store,
			Resolver: f.codec,
			Verifier: signature.Sr25519Verifier{},
			Events:   f.events,
			Config:   f.config,
		}
	}

	var err error
	f.schemas, err = NewSchemas(args())
	require.NoError(t, err)

	f.credentials, err = NewCredentials(args(), f.schemas)
	require.NoError(t, err)

	f.alice = newActor(t, f.codec)
	f.bob = newActor(t, f.codec)

	return f
}

func aliceSchema(creator string) *VerifiableCredentialSchema {
	return &VerifiableCredentialSchema{
		Name:         []byte("Alice Data"),
		Creator:      []byte(creator),
		Public:       false,
		CreationDate: Moment(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()),
		MandatoryFields: []Attribute{
			{Name: []byte("name"), AttributeType: AttributeText},
			{Name: []byte("dob"), AttributeType: AttributeDateType},
		},
		IssuerClaims: []Claim{
			{SchemaID: Some(SchemaID(1)), Property: []byte("issuer"), Value: []byte("seneca"), ClaimType: IssuerClaim},
		},
		SubjectClaims: []Claim{
			{
				Property:  []byte("age"),
				Value:     []byte("30"),
				ClaimType: SubjectClaim,
				IssuanceRequirement: Some([]IssuanceRequirement{
					{Name: []byte("age"), IssuanceType: AttributeUint},
				}),
			},
		},
		CredentialClaims: []Claim{
			{Property: []byte("type"), Value: []byte("kyc"), ClaimType: CredentialClaim},
		},
		Metadata: []byte("v1"),
		Nonce:    1,
	}
}

func aliceCredential(issuer, holder string, schema SchemaID) *VerifiableCredential {
	return &VerifiableCredential{
		Context:      []byte("https://www.w3.org/2018/credentials/v1"),
		Schema:       schema,
		Issuer:       []byte(issuer),
		IssuanceDate: Some(Moment(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli())),
		Subject: Subject{
			ID: []byte(holder),
			Claim: []Claim{
				{Property: []byte("age"), Value: []byte("30"), ClaimType: SubjectClaim},
			},
		},
		CredentialHolder: []byte(holder),
		Nonce:            1,
	}
}

func (f *fixture) createSchema(t *testing.T, a *actor, id SchemaID) *VerifiableCredentialSchema {
	s := aliceSchema(a.did)
	require.NoError(t, f.schemas.CreateSchema(context.Background(), a.account(), id, s, a.signSchema(t, s)))
	return s
}

func (f *fixture) createCredential(t *testing.T, a *actor, id CredentialID, holder string, schema SchemaID) *VerifiableCredential {
	c := aliceCredential(a.did, holder, schema)
	require.NoError(t, f.credentials.CreateCredential(context.Background(), a.account(), id, c, a.signCredential(t, c)))
	return c
}
