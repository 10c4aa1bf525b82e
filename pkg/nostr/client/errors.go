package client

import (
	"errors"
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/okenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/eventid"
)

// ErrPublishTimeout is returned when the relay does not acknowledge an event
// before the publish deadline.
var ErrPublishTimeout = errors.New("timed out waiting for relay acknowledgement")

// ConnectionError reports a relay that could not be reached, refused the
// websocket handshake, or dropped the connection.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("relay %s: connection failed: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RejectedError is an OK message with the accepted flag false. Reason is the
// relay's text unmodified.
type RejectedError struct {
	URL    string
	ID     eventid.T
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("relay %s rejected event %s", e.URL, e.ID)
	}
	return fmt.Sprintf("relay %s rejected event %s: %s", e.URL, e.ID, e.Reason)
}

// Prefix returns the machine readable reason type, such as "rate-limited".
func (e *RejectedError) Prefix() okenvelope.Reason {
	env := okenvelope.T{Reason: e.Reason}
	return env.Prefix()
}
