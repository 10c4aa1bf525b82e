// Package envelopes identifies and decodes the messages a relay sends to a
// client.
package envelopes

import (
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/closedenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/enveloper"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/eventenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/labels"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/noticeenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/okenvelope"
	"github.com/tidwall/gjson"
)

// Identify returns the label of an envelope without decoding the rest of it.
func Identify(b []byte) (label string, err error) {
	r := gjson.ParseBytes(b)
	if !r.IsArray() {
		return "", fmt.Errorf("envelope is not a JSON array: '%s'", string(b))
	}
	first := r.Get("0")
	if first.Type != gjson.String || first.Str == "" {
		return "", fmt.Errorf("cannot read envelope without a label: '%s'",
			string(b))
	}
	return first.Str, nil
}

// ProcessEnvelope decodes a relay message. Labels that a publishing client
// has no use for return a nil envelope and no error.
func ProcessEnvelope(b []byte) (env enveloper.I, label string, err error) {
	if label, err = Identify(b); err != nil {
		return
	}
	switch label {
	case labels.OK:
		env = &okenvelope.T{}
	case labels.NOTICE:
		env = &noticeenvelope.T{}
	case labels.CLOSED:
		env = &closedenvelope.T{}
	case labels.EVENT:
		env = &eventenvelope.T{}
	default:
		return nil, label, nil
	}
	if err = env.UnmarshalJSON(b); err != nil {
		return nil, label, err
	}
	return
}
