// Package connection provides the websocket transports a relay client can
// run over. Every transport presents the same message oriented interface.
package connection

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/Hubmakerlabs/scream/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

// MaxMessageSize is the largest frame a transport will buffer for writing
// and the read limit set where the library supports one.
const MaxMessageSize = 512000

// I is a connected websocket carrying text messages.
//
// WriteMessage and Ping must not be called concurrently with each other,
// ReadMessage is called from a single reader.
type I interface {
	WriteMessage(data []byte) error
	ReadMessage(c context.T, buf io.Writer) error
	Ping() error
	Close() error
}

// Transport names a websocket implementation.
type Transport string

const (
	Gobwas   Transport = "gobwas"
	Fasthttp Transport = "fasthttp"
	Gorilla  Transport = "gorilla"
)

// Default is the transport used when none is configured.
const Default = Gobwas

// Dialer opens a connection to url.
type Dialer func(c context.T, url string, header http.Header) (I, error)

var dialers = map[Transport]Dialer{
	Gobwas:   NewGobwas,
	Fasthttp: NewFasthttp,
	Gorilla:  NewGorilla,
}

// Transports lists the known transport names.
func Transports() (t []Transport) {
	return []Transport{Gobwas, Fasthttp, Gorilla}
}

// ParseTransport resolves a configured transport name, "" selects Default.
func ParseTransport(s string) (t Transport, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	t = Transport(s)
	if _, ok := dialers[t]; !ok {
		return "", fmt.Errorf("unknown websocket transport '%s', use one of %v",
			s, Transports())
	}
	return
}

// Dial connects to url with the named transport.
func Dial(c context.T, t Transport, url string,
	header http.Header) (conn I, err error) {

	if t == "" {
		t = Default
	}
	d, ok := dialers[t]
	if !ok {
		return nil, fmt.Errorf("unknown websocket transport '%s'", t)
	}
	log.T.F("dialing %s with %s", url, t)
	return d(c, url, header)
}
