package connection

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/gorilla/websocket"
)

// GorillaConn is a client connection on github.com/gorilla/websocket.
type GorillaConn struct {
	conn *websocket.Conn
}

var _ I = (*GorillaConn)(nil)

func NewGorilla(c context.T, url string, header http.Header) (I, error) {
	dialer := *websocket.DefaultDialer
	dialer.EnableCompression = true
	conn, resp, err := dialer.DialContext(c, url, header)
	if resp != nil && resp.Body != nil {
		chk.D(resp.Body.Close())
	}
	if chk.D(err) {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	conn.SetReadLimit(MaxMessageSize)
	return &GorillaConn{conn: conn}, nil
}

func (g *GorillaConn) WriteMessage(data []byte) (err error) {
	if err = g.conn.WriteMessage(websocket.TextMessage, data); chk.D(err) {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return
}

func (g *GorillaConn) ReadMessage(c context.T, buf io.Writer) (err error) {
	for {
		select {
		case <-c.Done():
			return c.Err()
		default:
		}
		var typ int
		var r io.Reader
		if typ, r, err = g.conn.NextReader(); chk.D(err) {
			chk.D(g.conn.Close())
			return fmt.Errorf("failed to advance frame: %w", err)
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		if _, err = io.Copy(buf, r); chk.D(err) {
			return fmt.Errorf("failed to read message: %w", err)
		}
		return nil
	}
}

func (g *GorillaConn) Ping() error {
	return g.conn.WriteControl(websocket.PingMessage, nil,
		time.Now().Add(5*time.Second))
}

func (g *GorillaConn) Close() error { return g.conn.Close() }
