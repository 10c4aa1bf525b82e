// Package client is a nostr relay connection for publishing events.
package client

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/Hubmakerlabs/scream/pkg/nostr/connection"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/closedenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/enveloper"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/eventenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/noticeenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/okenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/nostr/normalize"
	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/puzpuzpuz/xsync/v2"
)

var log, chk = slog.New(os.Stderr)

const (
	DefaultConnectTimeout = 7 * time.Second
	DefaultPublishTimeout = 4 * time.Second
	PingInterval          = 29 * time.Second
	writeTimeout          = 5 * time.Second
)

type Status int32

const (
	Disconnected Status = iota
	Connecting
	Connected
	Failed
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

type T struct {
	closeMutex              sync.Mutex
	url                     string
	transport               connection.Transport
	RequestHeader           http.Header // e.g. for origin header
	Connection              connection.I
	status                  atomic.Int32
	connectionError         error
	ConnectionContext       context.T // will be canceled when connection closes
	ConnectionContextCancel context.F
	noticeHandler           func(notice string)
	okCallbacks             *xsync.MapOf[string, func(env *okenvelope.T)]
	writeQueue              chan writeRequest
}

type writeRequest struct {
	msg    []byte
	answer chan error
}

// NewRelay returns a new relay. The relay connection will be closed when the
// context is canceled.
func NewRelay(c context.T, url string, opts ...Option) *T {
	ctx, cancel := context.Cancel(c)
	r := &T{
		url:                     url,
		transport:               connection.Default,
		ConnectionContext:       ctx,
		ConnectionContextCancel: cancel,
		okCallbacks:             xsync.NewMapOf[func(env *okenvelope.T)](),
		writeQueue:              make(chan writeRequest),
	}
	for _, opt := range opts {
		switch o := opt.(type) {
		case WithNoticeHandler:
			r.noticeHandler = o
		case WithTransport:
			if o != "" {
				r.transport = connection.Transport(o)
			}
		case WithRequestHeader:
			r.RequestHeader = http.Header(o)
		}
	}
	return r
}

// Connect returns a relay object connected to url. Cancelling c closes the
// connection, as does r.Close().
func Connect(c context.T, url string, opts ...Option) (*T, error) {
	r := NewRelay(c, url, opts...)
	err := r.Connect(c)
	return r, err
}

// When instantiating relay connections, some options may be passed.

// Option is the type of the argument passed for that.
type Option interface {
	IsRelayOption()
}

// WithNoticeHandler just takes notices and is expected to do something with
// them. when not given, defaults to logging the notices. It is called from the
// read loop and must not block.
type WithNoticeHandler func(notice string)

func (_ WithNoticeHandler) IsRelayOption() {}

// WithTransport selects the websocket implementation.
type WithTransport connection.Transport

func (_ WithTransport) IsRelayOption() {}

// WithRequestHeader adds headers to the websocket handshake.
type WithRequestHeader http.Header

func (_ WithRequestHeader) IsRelayOption() {}

var (
	_ Option = (WithNoticeHandler)(nil)
	_ Option = WithTransport("")
	_ Option = (WithRequestHeader)(nil)
)

// String just returns the relay URL.
func (r *T) String() string { return r.url }

func (r *T) URL() string { return r.url }

func (r *T) Status() Status { return Status(r.status.Load()) }

// ConnectionError returns what ended the connection, if it failed.
func (r *T) ConnectionError() error {
	r.closeMutex.Lock()
	defer r.closeMutex.Unlock()
	return r.connectionError
}

// IsConnected returns true if the connection to this relay seems to be active.
func (r *T) IsConnected() bool {
	return r.Status() == Connected && r.ConnectionContext.Err() == nil
}

// Connect tries to establish a websocket connection to r.URL. If the context
// has no deadline, the attempt is bounded by DefaultConnectTimeout.
func (r *T) Connect(c context.T) (err error) {
	if r.ConnectionContext == nil || r.okCallbacks == nil {
		return fmt.Errorf("relay must be initialized with a call to NewRelay()")
	}
	var url string
	if url, err = normalize.RelayURL(r.url); chk.D(err) {
		r.status.Store(int32(Failed))
		return &ConnectionError{URL: r.url, Err: err}
	}
	r.url = url
	if _, ok := c.Deadline(); !ok {
		var cancel context.F
		c, cancel = context.Timeout(c, DefaultConnectTimeout)
		defer cancel()
	}
	r.status.Store(int32(Connecting))
	var conn connection.I
	if conn, err = connection.Dial(c, r.transport, r.url,
		r.RequestHeader); err != nil {

		log.D.F("{%s} error opening websocket: %v", r.url, err)
		r.fail(err)
		return &ConnectionError{URL: r.url, Err: err}
	}
	r.closeMutex.Lock()
	if r.ConnectionContextCancel == nil || r.ConnectionContext.Err() != nil {
		r.closeMutex.Unlock()
		chk.D(conn.Close())
		return &ConnectionError{URL: r.url, Err: context.Canceled}
	}
	r.Connection = conn
	r.status.Store(int32(Connected))
	r.closeMutex.Unlock()
	log.D.F("{%s} connected with %s", r.url, r.transport)
	ticker := time.NewTicker(PingInterval)
	// to be used when the connection is closed
	go func() {
		<-r.ConnectionContext.Done()
		ticker.Stop()
		chk.D(r.close(Disconnected, nil))
	}()
	// queue all write operations here so we don't do mutex spaghetti
	go func() {
		var err error
		for {
			select {
			case <-ticker.C:
				if err = conn.Ping(); err != nil {
					log.D.F("{%s} error writing ping: %v; closing websocket",
						r.url, err)
					chk.D(r.close(Failed, err))
					return
				}
			case wr := <-r.writeQueue:
				// all write requests will go through this to prevent races
				if err = conn.WriteMessage(wr.msg); err != nil {
					wr.answer <- err
				}
				close(wr.answer)
			case <-r.ConnectionContext.Done():
				return
			}
		}
	}()
	// general message reader loop
	go r.MessageReadLoop(conn)
	return nil
}

func (r *T) MessageReadLoop(conn connection.I) {
	buf := new(bytes.Buffer)
	var err error
	for {
		buf.Reset()
		if err = conn.ReadMessage(r.ConnectionContext, buf); err != nil {
			chk.D(r.close(Failed, err))
			return
		}
		message := buf.Bytes()
		log.T.F("{%s} received %s", r.url, message)
		var env enveloper.I
		if env, _, err = envelopes.ProcessEnvelope(message); chk.D(err) {
			continue
		}
		if env == nil {
			continue
		}
		switch env := env.(type) {
		case *noticeenvelope.T:
			if r.noticeHandler != nil {
				r.noticeHandler(env.Text)
			} else {
				log.I.F("NOTICE from %s: '%s'", r.url, env.Text)
			}
		case *closedenvelope.T:
			log.D.F("{%s} subscription %s closed: %s", r.url, env.ID,
				env.Reason)
		case *eventenvelope.T:
			log.D.F("{%s} ignoring event %s for subscription '%s'", r.url,
				env.Event.ID, env.SubscriptionID)
		case *okenvelope.T:
			if okCallback, exist := r.okCallbacks.Load(env.ID.String()); exist {
				okCallback(env)
			} else {
				log.D.F("{%s} got an unexpected OK message for event %s",
					r.url, env.ID)
			}
		}
	}
}

// Write queues a message to be sent to the relay. The returned channel yields
// an error or is closed once the message has been written.
func (r *T) Write(msg []byte) (ch chan error) {
	ch = make(chan error, 1)
	select {
	case r.writeQueue <- writeRequest{msg: msg, answer: ch}:
	case <-r.ConnectionContext.Done():
		ch <- fmt.Errorf("connection closed")
	case <-time.After(writeTimeout):
		ch <- fmt.Errorf("write timed out")
	}
	return
}

// Publish sends an "EVENT" command to the relay r as in NIP-01 and waits for an
// OK response. If c has no deadline the wait is bounded by
// DefaultPublishTimeout.
func (r *T) Publish(c context.T, ev *event.T) (ok *okenvelope.T, err error) {
	if !r.IsConnected() {
		cause := r.ConnectionError()
		if cause == nil {
			cause = errors.New("not connected")
		}
		return nil, &ConnectionError{URL: r.url, Err: cause}
	}
	var cancel context.F
	if _, has := c.Deadline(); !has {
		c, cancel = context.Timeout(c, DefaultPublishTimeout)
	} else {
		c, cancel = context.Cancel(c)
	}
	defer cancel()
	id := ev.ID.String()
	result := make(chan *okenvelope.T, 1)
	r.okCallbacks.Store(id, func(env *okenvelope.T) {
		select {
		case result <- env:
		default:
		}
	})
	defer r.okCallbacks.Delete(id)
	var enb []byte
	if enb, err = (&eventenvelope.T{Event: ev}).MarshalJSON(); chk.E(err) {
		return
	}
	log.T.F("{%s} sending %s", r.url, enb)
	if err = <-r.Write(enb); err != nil {
		return nil, &ConnectionError{URL: r.url, Err: err}
	}
	select {
	case ok = <-result:
	case <-c.Done():
		select {
		case ok = <-result:
		default:
			if errors.Is(c.Err(), context.Deadline) {
				return nil, ErrPublishTimeout
			}
			return nil, c.Err()
		}
	case <-r.ConnectionContext.Done():
		select {
		case ok = <-result:
		default:
			cause := r.ConnectionError()
			if cause == nil {
				cause = errors.New("connection closed before acknowledgement")
			}
			return nil, &ConnectionError{URL: r.url, Err: cause}
		}
	}
	if !ok.OK {
		log.D.F("{%s} rejected %s: %s", r.url, id, ok.Reason)
		return ok, &RejectedError{URL: r.url, ID: ok.ID, Reason: ok.Reason}
	}
	return ok, nil
}

// Close ends the connection. It is safe to call more than once.
func (r *T) Close() error { return r.close(Disconnected, nil) }

func (r *T) fail(cause error) { chk.D(r.close(Failed, cause)) }

func (r *T) close(s Status, cause error) (err error) {
	r.closeMutex.Lock()
	defer r.closeMutex.Unlock()
	if r.ConnectionContextCancel == nil {
		return nil
	}
	if cause != nil {
		r.connectionError = cause
	}
	r.status.Store(int32(s))
	r.ConnectionContextCancel()
	r.ConnectionContextCancel = nil
	if r.Connection != nil {
		err = r.Connection.Close()
	}
	return
}
