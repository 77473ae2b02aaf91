package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/util"
	"github.com/haileyok/seneca/api"
	"github.com/haileyok/seneca/registry"
	"github.com/haileyok/seneca/signature"
)

// Error is a non-200 response from the registry. It matches the registry
// sentinel of the same name under errors.Is.
type Error struct {
	StatusCode int
	Name       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("registry returned %d: %s", e.StatusCode, e.Name)
}

func (e *Error) Is(target error) bool {
	err := registry.ErrorFromName(e.Name)
	return err != nil && err == target
}

type Client struct {
	h *http.Client

	service string
	did     string
	kp      signature.KeyPair
	token   string
}

type ClientArgs struct {
	H       *http.Client
	Service string
	// Did and KeyPair identify the caller. Both are needed for sessions and
	// for signing records.
	Did     string
	KeyPair signature.KeyPair
}

func NewClient(args *ClientArgs) (*Client, error) {
	if args.Service == "" {
		return nil, fmt.Errorf("service must be set")
	}

	if args.H == nil {
		args.H = util.RobustHTTPClient()
	}

	return &Client{
		h:       args.H,
		service: strings.TrimSuffix(args.Service, "/"),
		did:     args.Did,
		kp:      args.KeyPair,
	}, nil
}

func (c *Client) Did() string {
	return c.did
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	u := c.service + "/xrpc/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}

	if in != nil {
		req.Header.Add("content-type", "application/json")
	}

	if c.token != "" {
		req.Header.Add("authorization", "Bearer "+c.token)
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != 200 {
		var er api.ErrorResponse
		if err := json.Unmarshal(b, &er); err != nil || er.Error == "" {
			er.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Name: er.Error}
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(b, out)
}

// ServerDid reads the registry's own did from its well-known document.
func (c *Client) ServerDid(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.service+"/.well-known/did.json", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", &Error{StatusCode: resp.StatusCode, Name: http.StatusText(resp.StatusCode)}
	}

	var doc struct {
		Id string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", err
	}

	return doc.Id, nil
}

// CreateSession proves control of the client did to the server identified by
// audience and keeps the returned access token for later calls.
func (c *Client) CreateSession(ctx context.Context, audience string) error {
	if c.kp == nil || c.did == "" {
		return fmt.Errorf("did and keypair must be set to create a session")
	}

	challenge := api.SessionChallenge{
		Did:      []byte(c.did),
		Audience: []byte(audience),
		IssuedAt: uint64(time.Now().UnixMilli()),
	}

	msg, err := challenge.Bytes()
	if err != nil {
		return err
	}

	sig, err := c.kp.Sign(msg)
	if err != nil {
		return err
	}

	var resp api.CreateSessionResponse
	if err := c.do(ctx, "POST", "registry.createSession", nil, &api.CreateSessionRequest{
		Did:       c.did,
		IssuedAt:  challenge.IssuedAt,
		Signature: sig.Hex(),
	}, &resp); err != nil {
		return err
	}

	c.token = resp.AccessJwt

	return nil
}

func (c *Client) DeleteSession(ctx context.Context) error {
	if err := c.do(ctx, "POST", "registry.deleteSession", nil, nil, nil); err != nil {
		return err
	}

	c.token = ""

	return nil
}

func (c *Client) sign(msg []byte) (string, error) {
	if c.kp == nil {
		return "", fmt.Errorf("keypair must be set to sign records")
	}

	sig, err := c.kp.Sign(msg)
	if err != nil {
		return "", err
	}

	return sig.Hex(), nil
}

func (c *Client) schemaRequest(id uint32, schema *registry.VerifiableCredentialSchema) (*api.CreateSchemaRequest, error) {
	b, err := registry.EncodeSchema(schema)
	if err != nil {
		return nil, err
	}

	sig, err := c.sign(b)
	if err != nil {
		return nil, err
	}

	return &api.CreateSchemaRequest{
		ID:        id,
		Schema:    api.FromSchema(schema),
		Signature: sig,
	}, nil
}

func (c *Client) credentialRequest(id uint32, vc *registry.VerifiableCredential) (*api.CreateCredentialRequest, error) {
	b, err := registry.EncodeCredential(vc)
	if err != nil {
		return nil, err
	}

	sig, err := c.sign(b)
	if err != nil {
		return nil, err
	}

	return &api.CreateCredentialRequest{
		ID:         id,
		Credential: api.FromCredential(vc),
		Signature:  sig,
	}, nil
}

// CreateSchema signs schema with the client key and publishes it under id.
func (c *Client) CreateSchema(ctx context.Context, id uint32, schema *registry.VerifiableCredentialSchema) (*api.MutationResponse, error) {
	req, err := c.schemaRequest(id, schema)
	if err != nil {
		return nil, err
	}

	var resp api.MutationResponse
	if err := c.do(ctx, "POST", "registry.createSchema", nil, req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) UpdateSchema(ctx context.Context, id uint32, schema *registry.VerifiableCredentialSchema) (*api.MutationResponse, error) {
	req, err := c.schemaRequest(id, schema)
	if err != nil {
		return nil, err
	}

	var resp api.MutationResponse
	if err := c.do(ctx, "POST", "registry.updateSchema", nil, req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) DeleteSchema(ctx context.Context, id uint32) (*api.MutationResponse, error) {
	var resp api.MutationResponse
	if err := c.do(ctx, "POST", "registry.deleteSchema", nil, &api.DeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) GetSchema(ctx context.Context, id uint32) (*api.SchemaView, error) {
	var resp api.SchemaView
	if err := c.do(ctx, "GET", "registry.getSchema", url.Values{"id": {strconv.FormatUint(uint64(id), 10)}}, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) ListSchemas(ctx context.Context) ([]api.SchemaView, error) {
	var resp api.ListSchemasResponse
	if err := c.do(ctx, "GET", "registry.listSchemas", nil, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Schemas, nil
}

func (c *Client) CreateCredential(ctx context.Context, id uint32, vc *registry.VerifiableCredential) (*api.MutationResponse, error) {
	req, err := c.credentialRequest(id, vc)
	if err != nil {
		return nil, err
	}

	var resp api.MutationResponse
	if err := c.do(ctx, "POST", "registry.createCredential", nil, req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) UpdateCredential(ctx context.Context, id uint32, vc *registry.VerifiableCredential) (*api.MutationResponse, error) {
	req, err := c.credentialRequest(id, vc)
	if err != nil {
		return nil, err
	}

	var resp api.MutationResponse
	if err := c.do(ctx, "POST", "registry.updateCredential", nil, req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) DeleteCredential(ctx context.Context, id uint32) (*api.MutationResponse, error) {
	var resp api.MutationResponse
	if err := c.do(ctx, "POST", "registry.deleteCredential", nil, &api.DeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) GetCredential(ctx context.Context, id uint32) (*api.CredentialView, error) {
	var resp api.CredentialView
	if err := c.do(ctx, "GET", "registry.getCredential", url.Values{"id": {strconv.FormatUint(uint64(id), 10)}}, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

type CredentialQuery struct {
	Schema  *uint32
	Holder  string
	Issuer  string
	Subject string
}

func (c *Client) ListCredentials(ctx context.Context, q *CredentialQuery) ([]api.CredentialView, error) {
	params := url.Values{}
	if q != nil {
		if q.Schema != nil {
			params.Set("schema", strconv.FormatUint(uint64(*q.Schema), 10))
		}
		if q.Holder != "" {
			params.Set("holder", q.Holder)
		}
		if q.Issuer != "" {
			params.Set("issuer", q.Issuer)
		}
		if q.Subject != "" {
			params.Set("subject", q.Subject)
		}
	}

	var resp api.ListCredentialsResponse
	if err := c.do(ctx, "GET", "registry.listCredentials", params, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Credentials, nil
}
