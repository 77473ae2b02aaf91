package api

import (
	"fmt"

	"github.com/near/borsh-go"
)

// SessionChallenge is what a caller signs to open a session. Audience is the
// server did and IssuedAt is unix milliseconds.
type SessionChallenge struct {
	Did      []byte
	Audience []byte
	IssuedAt uint64
}

func (c *SessionChallenge) Bytes() ([]byte, error) {
	b, err := borsh.Serialize(*c)
	if err != nil {
		return nil, fmt.Errorf("error encoding session challenge: %w", err)
	}
	return b, nil
}
