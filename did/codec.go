package did

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	DefaultMethod = "seneca"
	DefaultPrefix = 42

	// prefix byte, 32 byte key, 2 byte checksum
	decodedLen  = 35
	checksumLen = 2
)

var ErrInvalidDID = errors.New("invalid did")

var ss58Pre = []byte("SS58PRE")

// AccountID is the raw 32 byte public key embedded in a did.
type AccountID [32]byte

func (a AccountID) Bytes() []byte {
	return a[:]
}

func (a AccountID) String() string {
	return fmt.Sprintf("%x", a[:])
}

type Codec struct {
	// Method, when set, must match the did method segment.
	Method string
	// VerifyChecksum rejects identifiers whose trailing two bytes are not a valid ss58 checksum.
	VerifyChecksum bool
	// Prefix is the network byte written by Encode.
	Prefix uint8
}

func NewCodec() *Codec {
	return &Codec{
		Prefix: DefaultPrefix,
	}
}

// Resolve extracts the account id from a did of the form did:<method>:<base58>.
func (c *Codec) Resolve(did []byte) (AccountID, error) {
	var acct AccountID

	if !utf8.Valid(did) {
		return acct, fmt.Errorf("%w: not valid utf-8", ErrInvalidDID)
	}

	pts := strings.Split(string(did), ":")
	if len(pts) < 3 {
		return acct, fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidDID, len(pts))
	}

	if pts[0] != "did" {
		return acct, fmt.Errorf("%w: missing did scheme", ErrInvalidDID)
	}

	if c.Method != "" && pts[1] != c.Method {
		return acct, fmt.Errorf("%w: unsupported method %q", ErrInvalidDID, pts[1])
	}

	ident := strings.TrimSpace(pts[2])
	if ident == "" {
		return acct, fmt.Errorf("%w: empty identifier", ErrInvalidDID)
	}

	decoded, err := base58.Decode(ident)
	if err != nil {
		return acct, fmt.Errorf("%w: error decoding identifier: %w", ErrInvalidDID, err)
	}

	if len(decoded) != decodedLen {
		return acct, fmt.Errorf("%w: decoded identifier is %d bytes, expected %d", ErrInvalidDID, len(decoded), decodedLen)
	}

	if c.VerifyChecksum {
		sum := checksum(decoded[0], decoded[1:33])
		if !bytes.Equal(sum, decoded[33:]) {
			return acct, fmt.Errorf("%w: checksum mismatch", ErrInvalidDID)
		}
	}

	copy(acct[:], decoded[1:33])

	return acct, nil
}

func (c *Codec) ResolveString(did string) (AccountID, error) {
	return c.Resolve([]byte(did))
}

// Encode renders acct as a did using the codec's method and prefix.
func (c *Codec) Encode(acct AccountID) string {
	method := c.Method
	if method == "" {
		method = DefaultMethod
	}

	return "did:" + method + ":" + c.Address(acct)
}

// Address returns the bare ss58 address for acct.
func (c *Codec) Address(acct AccountID) string {
	buf := make([]byte, 0, decodedLen)
	buf = append(buf, c.Prefix)
	buf = append(buf, acct[:]...)
	buf = append(buf, checksum(c.Prefix, acct[:])...)

	return base58.Encode(buf)
}

func checksum(prefix byte, key []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Pre)
	h.Write([]byte{prefix})
	h.Write(key)
	return h.Sum(nil)[:checksumLen]
}
