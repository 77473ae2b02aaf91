package api

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	lexutil "github.com/bluesky-social/indigo/lex/util"
)

// Bytes is a record byte field. It is written as a plain json string when it
// holds valid utf-8 and as {"$bytes": "<base64>"} otherwise, so arbitrary
// bytes survive a round trip unchanged.
type Bytes string

func (b Bytes) MarshalJSON() ([]byte, error) {
	if utf8.ValidString(string(b)) {
		return json.Marshal(string(b))
	}
	return lexutil.LexBytes(b).MarshalJSON()
}

func (b *Bytes) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)

	if len(raw) > 0 && raw[0] == '{' {
		var lb lexutil.LexBytes
		if err := lb.UnmarshalJSON(raw); err != nil {
			return err
		}
		*b = Bytes(lb)
		return nil
	}

	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}

	if s == nil {
		*b = ""
		return nil
	}

	*b = Bytes(*s)
	return nil
}
