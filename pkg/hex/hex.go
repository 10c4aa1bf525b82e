// Package hex is a shortened form of the standard hex encoding functions.
package hex

import (
	"encoding/hex"
)

var Enc = hex.EncodeToString
var Dec = hex.DecodeString

// DecLen decodes s and fails unless it yields exactly n bytes.
func DecLen(s string, n int) (b []byte, err error) {
	if len(s) != n*2 {
		return nil, hex.ErrLength
	}
	return hex.DecodeString(s)
}
