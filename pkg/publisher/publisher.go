// Package publisher sends a text note to a relay under a fresh, single use
// identity and reports the relay's acknowledgement.
package publisher

import (
	"io"
	"os"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/Hubmakerlabs/scream/pkg/nostr/bech32encoding"
	"github.com/Hubmakerlabs/scream/pkg/nostr/client"
	"github.com/Hubmakerlabs/scream/pkg/nostr/connection"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/nostr/keys"
	"github.com/Hubmakerlabs/scream/pkg/nostr/timestamp"
	"github.com/Hubmakerlabs/scream/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

// DefaultRelay is used when no relay is configured.
const DefaultRelay = "wss://nostr.mutinywallet.com"

// I publishes content and returns the acknowledged note.
type I interface {
	Publish(c context.T, content string) (*Result, error)
}

// Config controls where and how notes are sent. Zero values select the
// defaults.
type Config struct {
	RelayURL       string
	Transport      connection.Transport
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	// Entropy is the source of secret keys, frand when nil.
	Entropy io.Reader
	// Now stamps created_at, time.Now when nil.
	Now func() time.Time
}

// Result is an acknowledged note.
type Result struct {
	ID     []byte
	IDHex  string
	Note   string
	Author string
	Event  *event.T
}

// Client is safe for concurrent use; each Publish is independent.
type Client struct {
	cfg Config
}

var _ I = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.RelayURL == "" {
		cfg.RelayURL = DefaultRelay
	}
	if cfg.Transport == "" {
		cfg.Transport = connection.Default
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = client.DefaultConnectTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = client.DefaultPublishTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{cfg: cfg}
}

func (p *Client) Config() Config { return p.cfg }

// Publish generates a key pair, connects to the relay, builds and signs a
// kind 1 note with the current time, sends it and waits for the relay's OK.
// The key pair is wiped and the connection closed before returning.
func (p *Client) Publish(c context.T, content string) (res *Result, err error) {
	if err = event.CheckContent(content); err != nil {
		return
	}
	var kp *keys.Pair
	if kp, err = keys.Generate(p.cfg.Entropy); chk.E(err) {
		return
	}
	defer kp.Zero()
	// the connection lives on c, only the handshake is bounded
	rl := client.NewRelay(c, p.cfg.RelayURL,
		client.WithTransport(p.cfg.Transport))
	defer func() { chk.D(rl.Close()) }()
	cc, cancel := context.Timeout(c, p.cfg.ConnectTimeout)
	err = rl.Connect(cc)
	cancel()
	if err != nil {
		log.D.F("connect to %s: %v", p.cfg.RelayURL, err)
		return
	}
	var ev *event.T
	if ev, err = event.Build(content, kp,
		timestamp.FromTime(p.cfg.Now())); chk.E(err) {
		return
	}
	pc, pcancel := context.Timeout(c, p.cfg.PublishTimeout)
	defer pcancel()
	if _, err = rl.Publish(pc, ev); err != nil {
		log.D.F("publish %s to %s: %v", ev.ID, rl.URL(), err)
		return
	}
	id := ev.ID.Bytes()
	res = &Result{ID: id, IDHex: ev.ID.String(), Event: ev}
	if res.Note, err = bech32encoding.EncodeNote(id); chk.E(err) {
		return nil, err
	}
	if res.Author, err = bech32encoding.EncodePubKey(kp.Pub); chk.E(err) {
		return nil, err
	}
	log.I.F("published %s to %s", res.Note, rl.URL())
	return
}
