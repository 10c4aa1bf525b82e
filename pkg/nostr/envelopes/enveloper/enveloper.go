package enveloper

import (
	"encoding/json"
	"fmt"
)

// I is the interface of envelopes: JSON arrays whose first element is a
// label identifying the message type.
type I interface {
	Label() string
	fmt.Stringer
	json.Marshaler
	json.Unmarshaler
}
