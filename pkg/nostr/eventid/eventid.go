package eventid

import (
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/hex"
)

// Len is the length of an event ID in bytes.
const Len = 32

// T is the SHA256 hash in hexadecimal of the canonical form of an event.
type T string

func (ei T) String() string { return string(ei) }

// Bytes returns the raw hash, or nil if the ID is not valid hex.
func (ei T) Bytes() (b []byte) {
	var err error
	if b, err = hex.Dec(string(ei)); err != nil {
		return nil
	}
	return
}

// New inspects a string and ensures it is a valid, 64 character long
// hexadecimal string, returns the string coerced to the type.
func New(s string) (ei T, err error) {
	ei = T(s)
	if err = ei.Validate(); err != nil {
		return "", err
	}
	return
}

// FromBytes encodes a raw 32 byte hash.
func FromBytes(b []byte) (ei T, err error) {
	if len(b) != Len {
		return "", fmt.Errorf("event ID invalid length: got %d expect %d",
			len(b), Len)
	}
	return T(hex.Enc(b)), nil
}

// Validate checks the T string is lower case hex and 64 characters long.
func (ei T) Validate() (err error) {
	if len(ei) != Len*2 {
		return fmt.Errorf("event ID invalid length: got %d expect %d",
			len(ei), Len*2)
	}
	for i := 0; i < len(ei); i++ {
		c := ei[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return fmt.Errorf("event ID has non-hex character %q", c)
		}
	}
	return
}
