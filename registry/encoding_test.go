package registry

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionWireForm(t *testing.T) {
	none, err := borsh.Serialize(None[Moment]())
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, none)

	some, err := borsh.Serialize(Some(Moment(0x0102)))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0x02, 0x01, 0, 0, 0, 0, 0, 0}, some)

	// identical to a plain pointer option
	v := uint64(0x0102)
	ptr, err := borsh.Serialize(struct{ V *uint64 }{V: &v})
	require.NoError(t, err)
	assert.Equal(t, ptr, some)

	var decoded Option[Moment]
	require.NoError(t, borsh.Deserialize(&decoded, none))
	assert.False(t, decoded.IsSome())
	assert.Nil(t, decoded.Ptr())

	require.NoError(t, borsh.Deserialize(&decoded, some))
	got, ok := decoded.Get()
	assert.True(t, ok)
	assert.Equal(t, Moment(0x0102), got)

	assert.Error(t, borsh.Deserialize(&decoded, []byte{2}))
}

func TestOptionFromPtr(t *testing.T) {
	assert.False(t, OptionFromPtr[Moment](nil).IsSome())

	m := Moment(5)
	o := OptionFromPtr(&m)
	assert.Equal(t, Some(Moment(5)), o)
	assert.Equal(t, &m, o.Ptr())
}

func TestSchemaEncodingLayout(t *testing.T) {
	s := &VerifiableCredentialSchema{
		Name:         []byte("A"),
		Creator:      []byte("B"),
		Public:       true,
		CreationDate: 3,
		Nonce:        4,
	}

	b, err := EncodeSchema(s)
	require.NoError(t, err)

	var want bytes.Buffer
	want.Write([]byte{1, 0, 0, 0, 'A'})
	want.Write([]byte{1, 0, 0, 0, 'B'})
	want.Write([]byte{1})
	want.Write([]byte{3, 0, 0, 0, 0, 0, 0, 0})
	want.Write([]byte{0})
	want.Write([]byte{0, 0, 0, 0})
	want.Write([]byte{0, 0, 0, 0})
	want.Write([]byte{0, 0, 0, 0})
	want.Write([]byte{0, 0, 0, 0})
	want.Write([]byte{0, 0, 0, 0})
	want.Write([]byte{4, 0, 0, 0, 0, 0, 0, 0})

	assert.Equal(t, want.Bytes(), b)
}

func TestSchemaEncodingStable(t *testing.T) {
	s := aliceSchema("did:seneca:5GFEtniprMeFuh8HcoVrWxz4aQtv6T5V9bkENSnfPYhY4p8H")
	s.ExpirationDate = Some(Moment(99))

	b, err := EncodeSchema(s)
	require.NoError(t, err)

	decoded, err := DecodeSchema(b)
	require.NoError(t, err)
	assert.Equal(t, *s, *decoded)

	again, err := EncodeSchema(decoded)
	require.NoError(t, err)
	assert.Equal(t, b, again)

	_, err = DecodeSchema(b[:len(b)-3])
	assert.Error(t, err)
}

func TestCredentialEncodingStable(t *testing.T) {
	c := aliceCredential("did:seneca:a", "did:seneca:b", 12)

	signed := &SignedCredential{Credential: *c}
	signed.Signature[0] = 0xaa

	b, err := EncodeSignedCredential(signed)
	require.NoError(t, err)
	assert.Equal(t, byte(0xaa), b[0])

	decoded, err := DecodeSignedCredential(b)
	require.NoError(t, err)
	assert.Equal(t, *signed, *decoded)

	record, err := EncodeCredential(c)
	require.NoError(t, err)
	assert.Equal(t, record, b[64:])

	back, err := DecodeCredential(record)
	require.NoError(t, err)
	assert.Equal(t, *c, *back)

	_, err = DecodeCredential(record[:len(record)-1])
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1, 0}, SchemaKey(256))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, CredentialKey(CredentialID(^uint32(0))))

	id, err := ParseKey(SchemaKey(123456))
	require.NoError(t, err)
	assert.Equal(t, uint32(123456), id)

	_, err = ParseKey([]byte{1, 2})
	assert.Error(t, err)
}

func TestErrorName(t *testing.T) {
	assert.Equal(t, "SignatureVerifyError", ErrorName(ErrSignatureVerify))
	assert.Equal(t, "NotSchemaOwner", ErrorName(fmt.Errorf("wrapped: %w", ErrNotSchemaOwner)))
	assert.Equal(t, "SchemaIdDoesNotExist", ErrorName(ErrSchemaIDDoesNotExist))
	assert.Equal(t, "", ErrorName(errors.New("other")))
	assert.Equal(t, "", ErrorName(nil))
}

func TestErrorFromName(t *testing.T) {
	for _, en := range errorNames {
		assert.Equal(t, en.err, ErrorFromName(ErrorName(en.err)))
	}
	assert.Nil(t, ErrorFromName("InvalidToken"))
}
