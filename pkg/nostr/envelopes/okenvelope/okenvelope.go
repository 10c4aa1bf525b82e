package okenvelope

import (
	"fmt"
	"strings"

	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/enveloper"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/labels"
	"github.com/Hubmakerlabs/scream/pkg/nostr/eventid"
	"github.com/Hubmakerlabs/scream/pkg/nostr/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// Reason is the machine readable prefix of an OK message.
type Reason string

const (
	PoW         Reason = "pow"
	Duplicate   Reason = "duplicate"
	Blocked     Reason = "blocked"
	RateLimited Reason = "rate-limited"
	Invalid     Reason = "invalid"
	Error       Reason = "error"
)

var _ enveloper.I = (*T)(nil)

// T is a relay message sent in response to an EventEnvelope to
// indicate acceptance (OK is true), rejection and provide a human readable
// Reason for clients to display to users, with the first word being a machine
// readable reason type, as listed in the Reason constants above,
// followed by ": " and a human readable message.
type T struct {
	ID     eventid.T
	OK     bool
	Reason string
}

func (env *T) Label() (l string) { return labels.OK }

func (env *T) String() (s string) {
	b, _ := env.MarshalJSON()
	return string(b)
}

// MarshalJSON returns the JSON encoded form of the envelope.
func (env *T) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	w.RawString(`["` + labels.OK + `",`)
	w.Buffer.AppendBytes(text.EscapeString(nil, env.ID.String()))
	w.RawByte(',')
	w.Bool(env.OK)
	w.RawByte(',')
	w.Buffer.AppendBytes(text.EscapeString(nil, env.Reason))
	w.RawByte(']')
	return w.Buffer.BuildBytes(), nil
}

// UnmarshalJSON decodes ["OK","<id>",<bool>,"<reason>"]. Some relays omit the
// reason on success, so three elements are accepted.
func (env *T) UnmarshalJSON(b []byte) (err error) {
	arr := gjson.ParseBytes(b).Array()
	if len(arr) < 3 || arr[0].Str != labels.OK {
		return fmt.Errorf("failed to decode OK envelope: missing fields: '%s'",
			string(b))
	}
	if env.ID, err = eventid.New(strings.ToLower(arr[1].Str)); err != nil {
		return fmt.Errorf("OK envelope has invalid event ID: %w", err)
	}
	switch arr[2].Type {
	case gjson.True:
		env.OK = true
	case gjson.False:
		env.OK = false
	default:
		return fmt.Errorf("unexpected value in OK envelope OK field '%s'",
			arr[2].Raw)
	}
	env.Reason = ""
	if len(arr) > 3 {
		env.Reason = arr[3].String()
	}
	return
}

// Prefix returns the machine readable part of the reason, or "" if there is
// none.
func (env *T) Prefix() Reason {
	if idx := strings.Index(env.Reason, ":"); idx > 0 &&
		!strings.ContainsRune(env.Reason[:idx], ' ') {
		return Reason(env.Reason[:idx])
	}
	if !strings.ContainsRune(env.Reason, ' ') {
		return Reason(env.Reason)
	}
	return ""
}

// Message takes a string message that is to be sent in an `OK` or `CLOSED`
// command and prefixes it with "<prefix>: " if it doesn't already have an
// acceptable prefix.
func Message(reason Reason, msg string) string {
	if idx := strings.Index(msg, ": "); idx == -1 ||
		strings.IndexByte(msg[0:idx], ' ') != -1 {
		return string(reason) + ": " + msg
	}
	return msg
}
