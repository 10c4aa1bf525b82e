package closedenvelope

import (
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/enveloper"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/labels"
	"github.com/Hubmakerlabs/scream/pkg/nostr/wire/text"
	"github.com/tidwall/gjson"
)

// T is sent by a relay when it ends a subscription on its own initiative.
type T struct {
	ID     string
	Reason string
}

var _ enveloper.I = (*T)(nil)

func (env *T) Label() string { return labels.CLOSED }

func (env *T) String() (s string) {
	b, _ := env.MarshalJSON()
	return string(b)
}

func (env *T) MarshalJSON() ([]byte, error) {
	b := []byte(`["` + labels.CLOSED + `",`)
	b = text.EscapeString(b, env.ID)
	b = append(b, ',')
	b = text.EscapeString(b, env.Reason)
	return append(b, ']'), nil
}

func (env *T) UnmarshalJSON(b []byte) error {
	arr := gjson.ParseBytes(b).Array()
	if len(arr) < 3 || arr[0].Str != labels.CLOSED {
		return fmt.Errorf("failed to decode CLOSED envelope: '%s'", string(b))
	}
	env.ID = arr[1].Str
	env.Reason = arr[2].String()
	return nil
}
