package eventenvelope

import (
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/enveloper"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/labels"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/nostr/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var _ enveloper.I = (*T)(nil)

// T is the wrapper expected by a relay around an event.
type T struct {
	// The SubscriptionID field is only set on relay to client messages, a
	// client publishing an event leaves it empty.
	SubscriptionID string
	// The Event is here a pointer because it should not be copied unnecessarily.
	Event *event.T
}

func (env *T) Label() string { return labels.EVENT }

func (env *T) String() (s string) {
	b, _ := env.MarshalJSON()
	return string(b)
}

// MarshalJSON returns ["EVENT",<event>] or ["EVENT","<sub>",<event>].
func (env *T) MarshalJSON() ([]byte, error) {
	if env.Event == nil {
		return nil, fmt.Errorf("cannot marshal event envelope with nil event")
	}
	w := jwriter.Writer{}
	w.RawString(`["` + labels.EVENT + `",`)
	if env.SubscriptionID != "" {
		w.Buffer.AppendBytes(text.EscapeString(nil, env.SubscriptionID))
		w.RawByte(',')
	}
	env.Event.MarshalEasyJSON(&w)
	w.RawByte(']')
	return w.Buffer.BuildBytes(), nil
}

// UnmarshalJSON accepts both the two and three element forms.
func (env *T) UnmarshalJSON(b []byte) (err error) {
	arr := gjson.ParseBytes(b).Array()
	if len(arr) < 2 || arr[0].Str != labels.EVENT {
		return fmt.Errorf("failed to decode EVENT envelope: '%s'", string(b))
	}
	raw := arr[1]
	if len(arr) > 2 {
		env.SubscriptionID = arr[1].Str
		raw = arr[2]
	}
	env.Event = &event.T{}
	return env.Event.UnmarshalJSON([]byte(raw.Raw))
}
