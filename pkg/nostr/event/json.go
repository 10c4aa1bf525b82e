package event

import (
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/nostr/eventid"
	"github.com/Hubmakerlabs/scream/pkg/nostr/kind"
	"github.com/Hubmakerlabs/scream/pkg/nostr/tag"
	"github.com/Hubmakerlabs/scream/pkg/nostr/tags"
	"github.com/Hubmakerlabs/scream/pkg/nostr/timestamp"
	"github.com/Hubmakerlabs/scream/pkg/nostr/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// Serialize renders the event as a compact JSON object in the conventional
// field order.
func (ev *T) Serialize() []byte {
	w := jwriter.Writer{}
	ev.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes()
}

// MarshalEasyJSON writes the event to an easyjson writer so envelopes can
// embed it without an intermediate copy.
func (ev *T) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.Buffer.AppendBytes(text.EscapeString(nil, ev.ID.String()))
	w.RawString(`,"pubkey":`)
	w.Buffer.AppendBytes(text.EscapeString(nil, ev.PubKey))
	w.RawString(`,"created_at":`)
	w.Int64(ev.CreatedAt.I64())
	w.RawString(`,"kind":`)
	w.Uint16(ev.Kind.ToUint16())
	w.RawString(`,"tags":`)
	w.Buffer.AppendBytes(ev.Tags.AppendJSON(nil))
	w.RawString(`,"content":`)
	w.Buffer.AppendBytes(text.EscapeString(nil, ev.Content))
	w.RawString(`,"sig":`)
	w.Buffer.AppendBytes(text.EscapeString(nil, ev.Sig))
	w.RawByte('}')
}

func (ev *T) MarshalJSON() ([]byte, error) { return ev.Serialize(), nil }

func (ev *T) String() string { return string(ev.Serialize()) }

// UnmarshalJSON decodes an event object. Unknown fields are ignored; the
// id and signature are not verified, see CheckSignature.
func (ev *T) UnmarshalJSON(b []byte) (err error) {
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("invalid JSON in event: '%s'", string(b))
	}
	r := gjson.ParseBytes(b)
	if !r.IsObject() {
		return fmt.Errorf("event is not a JSON object: '%s'", string(b))
	}
	*ev = T{}
	var k int64
	r.ForEach(func(key, value gjson.Result) bool {
		switch key.Str {
		case "id":
			ev.ID = eventid.T(value.Str)
		case "pubkey":
			ev.PubKey = value.Str
		case "created_at":
			ev.CreatedAt = timestamp.FromUnix(value.Int())
		case "kind":
			if k = value.Int(); k < 0 || k > 0xffff {
				err = fmt.Errorf("event kind out of range: %d", k)
				return false
			}
			ev.Kind = kind.T(k)
		case "tags":
			if !value.IsArray() {
				err = fmt.Errorf("event tags is not an array")
				return false
			}
			ev.Tags = tags.T{}
			for _, tv := range value.Array() {
				if !tv.IsArray() {
					err = fmt.Errorf("event tag is not an array: %s", tv.Raw)
					return false
				}
				t := tag.T{}
				for _, s := range tv.Array() {
					t = append(t, s.String())
				}
				ev.Tags = append(ev.Tags, t)
			}
		case "content":
			ev.Content = value.Str
		case "sig":
			ev.Sig = value.Str
		}
		return true
	})
	return
}
