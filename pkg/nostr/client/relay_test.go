package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/Hubmakerlabs/scream/pkg/nostr/connection"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/okenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/nostr/keys"
	"github.com/Hubmakerlabs/scream/pkg/nostr/timestamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func textNote(t *testing.T, content string) *event.T {
	t.Helper()
	kp, err := keys.Generate(nil)
	require.NoError(t, err)
	defer kp.Zero()
	ev, err := event.Build(content, kp, timestamp.Now())
	require.NoError(t, err)
	return ev
}

// ackingRelay answers every EVENT with an OK carrying accept and reason, then
// keeps the connection open until the client leaves.
func ackingRelay(t *testing.T, accept bool, reason string,
	received chan<- *event.T) *httptest.Server {

	return newWebsocketServer(func(conn *websocket.Conn) {
		var raw []json.RawMessage
		if err := websocket.JSON.Receive(conn, &raw); err != nil {
			t.Errorf("websocket.JSON.Receive: %v", err)
			return
		}
		ev := parseEventMessage(t, raw)
		if received != nil {
			received <- ev
		}
		res := []any{"OK", ev.ID.String(), accept, reason}
		if err := websocket.JSON.Send(conn, res); err != nil {
			t.Errorf("websocket.JSON.Send: %v", err)
		}
		discardingHandler(conn)
	})
}

func TestPublish(t *testing.T) {
	for _, tr := range connection.Transports() {
		t.Run(string(tr), func(t *testing.T) {
			ev := textNote(t, "hello")
			received := make(chan *event.T, 1)
			ws := ackingRelay(t, true, "", received)
			defer ws.Close()

			rl, err := Connect(context.Bg(), ws.URL, WithTransport(tr))
			require.NoError(t, err)
			assert.Equal(t, Connected, rl.Status())
			ok, err := rl.Publish(context.Bg(), ev)
			require.NoError(t, err)
			assert.True(t, ok.OK)
			assert.Equal(t, ev.ID, ok.ID)

			// the relay saw exactly the event that was built
			got := <-received
			assert.Equal(t, string(ev.Serialize()), string(got.Serialize()))
			valid, err := got.CheckSignature()
			require.NoError(t, err)
			assert.True(t, valid)

			require.NoError(t, rl.Close())
			assert.Equal(t, Disconnected, rl.Status())
			require.NoError(t, rl.Close())
		})
	}
}

func TestPublishRejected(t *testing.T) {
	ws := ackingRelay(t, false, "rate-limited: slow down", nil)
	defer ws.Close()

	rl, err := Connect(context.Bg(), ws.URL)
	require.NoError(t, err)
	defer rl.Close()
	ok, err := rl.Publish(context.Bg(), textNote(t, "hello"))
	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "rate-limited: slow down", rej.Reason)
	assert.Equal(t, okenvelope.RateLimited, rej.Prefix())
	require.NotNil(t, ok)
	assert.False(t, ok.OK)
}

func TestPublishTimeout(t *testing.T) {
	// a relay that reads everything and never answers
	ws := newWebsocketServer(discardingHandler)
	defer ws.Close()

	rl, err := Connect(context.Bg(), ws.URL)
	require.NoError(t, err)
	defer rl.Close()
	c, cancel := context.Timeout(context.Bg(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = rl.Publish(c, textNote(t, "hello"))
	assert.ErrorIs(t, err, ErrPublishTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishConnectionLost(t *testing.T) {
	ws := newWebsocketServer(func(conn *websocket.Conn) {
		var raw []json.RawMessage
		_ = websocket.JSON.Receive(conn, &raw)
		conn.Close()
	})
	defer ws.Close()

	rl, err := Connect(context.Bg(), ws.URL)
	require.NoError(t, err)
	defer rl.Close()
	c, cancel := context.Timeout(context.Bg(), 3*time.Second)
	defer cancel()
	_, err = rl.Publish(c, textNote(t, "hello"))
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Eventually(t, func() bool { return rl.Status() == Failed },
		time.Second, 10*time.Millisecond)

	// further publishes fail immediately
	_, err = rl.Publish(c, textNote(t, "again"))
	assert.ErrorAs(t, err, &ce)
}

func TestConnectFailure(t *testing.T) {
	ws := newWebsocketServer(discardingHandler)
	url := ws.URL
	ws.Close()

	rl, err := Connect(context.Bg(), url)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, Failed, rl.Status())

	// a plain http endpoint refuses the upgrade
	plain := httptest.NewServer(http.NotFoundHandler())
	defer plain.Close()
	_, err = Connect(context.Bg(), plain.URL)
	assert.ErrorAs(t, err, &ce)

	_, err = Connect(context.Bg(), "wss://")
	assert.ErrorAs(t, err, &ce)
}

func TestConnectContextCanceled(t *testing.T) {
	ws := newWebsocketServer(discardingHandler)
	defer ws.Close()

	c, cancel := context.Cancel(context.Bg())
	cancel()
	_, err := Connect(c, ws.URL)
	var ce *ConnectionError
	assert.ErrorAs(t, err, &ce)
}

func TestCancelClosesConnection(t *testing.T) {
	ws := newWebsocketServer(discardingHandler)
	defer ws.Close()

	c, cancel := context.Cancel(context.Bg())
	rl, err := Connect(c, ws.URL)
	require.NoError(t, err)
	cancel()
	assert.Eventually(t, func() bool { return !rl.IsConnected() },
		time.Second, 10*time.Millisecond)
}

func TestNotice(t *testing.T) {
	for _, tr := range connection.Transports() {
		t.Run(string(tr), func(t *testing.T) {
			// sent as soon as the upgrade completes, typically in the same
			// segment as the handshake response
			ws := newWebsocketServer(func(conn *websocket.Conn) {
				_ = websocket.JSON.Send(conn, []any{"NOTICE", "be nice"})
				discardingHandler(conn)
			})
			defer ws.Close()

			notices := make(chan string, 1)
			rl, err := Connect(context.Bg(), ws.URL, WithTransport(tr),
				WithNoticeHandler(func(n string) { notices <- n }))
			require.NoError(t, err)
			defer rl.Close()
			select {
			case n := <-notices:
				assert.Equal(t, "be nice", n)
			case <-time.After(3 * time.Second):
				t.Fatal("no notice received")
			}
		})
	}
}

func TestPublishAfterGreeting(t *testing.T) {
	for _, tr := range connection.Transports() {
		t.Run(string(tr), func(t *testing.T) {
			ws := newWebsocketServer(func(conn *websocket.Conn) {
				_ = websocket.JSON.Send(conn, []any{"NOTICE", "welcome"})
				_ = websocket.JSON.Send(conn, []any{"AUTH", "challenge"})
				var raw []json.RawMessage
				if err := websocket.JSON.Receive(conn, &raw); err != nil {
					t.Errorf("websocket.JSON.Receive: %v", err)
					return
				}
				ev := parseEventMessage(t, raw)
				_ = websocket.JSON.Send(conn,
					[]any{"OK", ev.ID.String(), true, ""})
				discardingHandler(conn)
			})
			defer ws.Close()

			notices := make(chan string, 1)
			rl, err := Connect(context.Bg(), ws.URL, WithTransport(tr),
				WithNoticeHandler(func(n string) { notices <- n }))
			require.NoError(t, err)
			defer rl.Close()
			ev := textNote(t, "after greeting")
			ok, err := rl.Publish(context.Bg(), ev)
			require.NoError(t, err)
			assert.True(t, ok.OK)
			assert.Equal(t, "welcome", <-notices)
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "status(9)", Status(9).String())
	assert.True(t, errors.Is(&ConnectionError{Err: io.EOF}, io.EOF))
}

func discardingHandler(conn *websocket.Conn) {
	io.ReadAll(conn) // discard all input
}

func newWebsocketServer(handler func(*websocket.Conn)) *httptest.Server {
	return httptest.NewServer(&websocket.Server{
		Handshake: anyOriginHandshake,
		Handler:   handler,
	})
}

// anyOriginHandshake is an alternative to default in golang.org/x/net/websocket
// which checks for origin. nostr client sends no origin and it makes no difference
// for the tests here anyway.
var anyOriginHandshake = func(conf *websocket.Config, r *http.Request) error {
	return nil
}

func parseEventMessage(t *testing.T, raw []json.RawMessage) *event.T {
	t.Helper()
	if len(raw) < 2 {
		t.Fatalf("len(raw) = %d; want at least 2", len(raw))
	}
	var typ string
	json.Unmarshal(raw[0], &typ)
	if typ != "EVENT" {
		t.Errorf("typ = %q; want EVENT", typ)
	}
	var ev event.T
	if err := json.Unmarshal(raw[1], &ev); err != nil {
		t.Errorf("json.Unmarshal(`%s`): %v", string(raw[1]), err)
	}
	return &ev
}
