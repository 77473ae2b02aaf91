package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/haileyok/seneca/api"
	"github.com/haileyok/seneca/client"
	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/registry"
	"github.com/haileyok/seneca/server"
	"github.com/haileyok/seneca/signature"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyFile(t *testing.T, kf keyFile) string {
	b, err := json.Marshal(kf)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, b, 0600))

	return path
}

func writeJson(t *testing.T, v any) string {
	b, err := json.Marshal(v)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, b, 0600))

	return path
}

func newServer(t *testing.T) string {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key, err := jwk.FromRaw(privKey)
	require.NoError(t, err)

	b, err := json.Marshal(key)
	require.NoError(t, err)

	dir := t.TempDir()
	jwkPath := filepath.Join(dir, "jwk.json")
	require.NoError(t, os.WriteFile(jwkPath, b, 0600))

	s, err := server.New(&server.Args{
		Addr:     ":0",
		DbName:   filepath.Join(dir, "seneca.db"),
		Did:      "did:web:registry.example.com",
		Hostname: "registry.example.com",
		JwkPath:  jwkPath,
	})
	require.NoError(t, err)

	h, err := s.Handler()
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	return ts.URL
}

func TestLoadKeyFile(t *testing.T) {
	kp, err := signature.GenerateKeyPair(signature.Ed25519)
	require.NoError(t, err)

	seed := kp.Seed()
	d := did.NewCodec().Encode(kp.Public())

	kf, loaded, err := loadKeyFile(writeKeyFile(t, keyFile{
		Scheme: string(signature.Ed25519),
		Seed:   hex.EncodeToString(seed[:]),
		Did:    d,
	}))
	require.NoError(t, err)
	assert.Equal(t, d, kf.Did)
	assert.Equal(t, kp.Public(), loaded.Public())

	_, _, err = loadKeyFile(writeKeyFile(t, keyFile{
		Scheme: string(signature.Sr25519),
		Seed:   "abcd",
	}))
	assert.Error(t, err)

	_, _, err = loadKeyFile(writeKeyFile(t, keyFile{
		Scheme: "rsa",
		Seed:   hex.EncodeToString(seed[:]),
	}))
	assert.Error(t, err)
}

func TestPublishAndDelete(t *testing.T) {
	ctx := context.Background()
	service := newServer(t)

	keyPath := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, newApp().Run([]string{"admin", "create-keypair", "--out", keyPath}))

	kf, kp, err := loadKeyFile(keyPath)
	require.NoError(t, err)

	run := func(args ...string) error {
		return newApp().Run(append([]string{"admin"}, args...))
	}

	schemaPath := writeJson(t, &api.Schema{
		Name:     "Alice Data",
		Metadata: api.Bytes([]byte{0x00, 0xff}),
		SubjectClaims: []api.Claim{
			{Property: "name", Value: "alice", ClaimType: registry.SubjectClaim.String()},
		},
		Nonce: 1,
	})

	require.NoError(t, run("publish-schema", "--server", service, "--key", keyPath, "--id", "7", "--in", schemaPath))

	reader, err := client.NewClient(&client.ClientArgs{Service: service, Did: kf.Did, KeyPair: kp})
	require.NoError(t, err)

	got, err := reader.GetSchema(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, kf.Did, string(got.Schema.Creator))
	assert.Equal(t, api.Bytes([]byte{0x00, 0xff}), got.Schema.Metadata)

	credPath := writeJson(t, &api.Credential{
		Schema:           7,
		Subject:          api.Subject{ID: api.Bytes(kf.Did)},
		CredentialHolder: api.Bytes(kf.Did),
		Nonce:            1,
	})

	require.NoError(t, run("publish-credential", "--server", service, "--key", keyPath, "--id", "3", "--in", credPath))

	cv, err := reader.GetCredential(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, kf.Did, string(cv.Credential.Issuer))

	require.NoError(t, run("delete-credential", "--server", service, "--key", keyPath, "--id", "3"))
	require.NoError(t, run("delete-schema", "--server", service, "--key", keyPath, "--id", "7"))

	_, err = reader.GetSchema(ctx, 7)
	assert.ErrorIs(t, err, registry.ErrUnknownSchema)

	assert.ErrorIs(t, run("delete-schema", "--server", service, "--key", keyPath, "--id", "7"), registry.ErrUnknownSchema)
}

func TestRecordIDOutOfRange(t *testing.T) {
	service := newServer(t)

	keyPath := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, newApp().Run([]string{"admin", "create-keypair", "--out", keyPath}))

	kf, kp, err := loadKeyFile(keyPath)
	require.NoError(t, err)

	c, err := client.NewClient(&client.ClientArgs{Service: service, Did: kf.Did, KeyPair: kp})
	require.NoError(t, err)

	aud, err := c.ServerDid(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.CreateSession(context.Background(), aud))

	schema := &registry.VerifiableCredentialSchema{Name: []byte("one"), Creator: []byte(kf.Did), Nonce: 1}
	_, err = c.CreateSchema(context.Background(), 1, schema)
	require.NoError(t, err)

	// 1<<32 + 1 must not wrap around to id 1
	tooBig := strconv.FormatUint(1<<32+1, 10)

	for _, cmd := range []string{"delete-schema", "delete-credential"} {
		err := newApp().Run([]string{"admin", cmd, "--server", service, "--key", keyPath, "--id", tooBig})
		assert.ErrorContains(t, err, "out of range", cmd)
	}

	schemaPath := writeJson(t, &api.Schema{Name: "two", Nonce: 2})
	err = newApp().Run([]string{"admin", "publish-schema", "--update", "--server", service, "--key", keyPath, "--id", tooBig, "--in", schemaPath})
	assert.ErrorContains(t, err, "out of range")

	got, err := c.GetSchema(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got.Schema.Name))
}
