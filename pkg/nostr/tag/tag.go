package tag

import (
	"github.com/Hubmakerlabs/scream/pkg/nostr/wire/text"
)

// The tag position meanings so they are clear when reading.
const (
	Key = iota
	Value
	Relay
)

// T is a list of strings with a literal ordering.
//
// Not a set, there can be repeating elements.
type T []string

// Key returns the first element of the tag, or an empty string.
func (t T) Key() string {
	if len(t) > Key {
		return t[Key]
	}
	return ""
}

// Value returns the second element of the tag, or an empty string.
func (t T) Value() string {
	if len(t) > Value {
		return t[Value]
	}
	return ""
}

// AppendJSON writes the tag as a JSON array of strings without whitespace.
func (t T) AppendJSON(dst []byte) []byte {
	dst = append(dst, '[')
	for i, s := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = text.EscapeString(dst, s)
	}
	return append(dst, ']')
}
