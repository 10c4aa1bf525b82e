package tags

import (
	"github.com/Hubmakerlabs/scream/pkg/nostr/tag"
)

// T is a list of T - which are lists of string elements with ordering and no
// uniqueness constraint (not a set).
type T []tag.T

// GetFirst gets the first tag in tags with the given key.
func (t T) GetFirst(key string) *tag.T {
	for i := range t {
		if t[i].Key() == key {
			return &t[i]
		}
	}
	return nil
}

// AppendJSON writes the tags as a JSON array of arrays. A nil T is written as
// an empty array, never null.
func (t T) AppendJSON(dst []byte) []byte {
	dst = append(dst, '[')
	for i := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = t[i].AppendJSON(dst)
	}
	return append(dst, ']')
}

// Clone returns a deep copy.
func (t T) Clone() (c T) {
	if t == nil {
		return
	}
	c = make(T, len(t))
	for i := range t {
		c[i] = append(tag.T(nil), t[i]...)
	}
	return
}
