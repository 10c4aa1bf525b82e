package noticeenvelope

import (
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/enveloper"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/labels"
	"github.com/Hubmakerlabs/scream/pkg/nostr/wire/text"
	"github.com/tidwall/gjson"
)

// T is a relay message intended to be shown to users in a nostr
// client interface.
type T struct {
	Text string
}

var _ enveloper.I = (*T)(nil)

func (env *T) Label() string { return labels.NOTICE }

func (env *T) String() (s string) {
	b, _ := env.MarshalJSON()
	return string(b)
}

func (env *T) MarshalJSON() ([]byte, error) {
	b := []byte(`["` + labels.NOTICE + `",`)
	b = text.EscapeString(b, env.Text)
	return append(b, ']'), nil
}

func (env *T) UnmarshalJSON(b []byte) error {
	arr := gjson.ParseBytes(b).Array()
	if len(arr) < 2 || arr[0].Str != labels.NOTICE {
		return fmt.Errorf("failed to decode NOTICE envelope: '%s'", string(b))
	}
	env.Text = arr[1].String()
	return nil
}
