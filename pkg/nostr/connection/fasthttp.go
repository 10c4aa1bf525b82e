package connection

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/fasthttp/websocket"
)

// FasthttpConn is a client connection on github.com/fasthttp/websocket.
type FasthttpConn struct {
	conn *websocket.Conn
}

var _ I = (*FasthttpConn)(nil)

func NewFasthttp(c context.T, url string, header http.Header) (I, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  45 * time.Second,
		EnableCompression: true,
	}
	conn, resp, err := dialer.DialContext(c, url, header)
	if resp != nil && resp.Body != nil {
		chk.D(resp.Body.Close())
	}
	if chk.D(err) {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	conn.SetReadLimit(MaxMessageSize)
	return &FasthttpConn{conn: conn}, nil
}

func (f *FasthttpConn) WriteMessage(data []byte) (err error) {
	if err = f.conn.WriteMessage(websocket.TextMessage, data); chk.D(err) {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return
}

func (f *FasthttpConn) ReadMessage(c context.T, buf io.Writer) (err error) {
	for {
		select {
		case <-c.Done():
			return c.Err()
		default:
		}
		var typ int
		var r io.Reader
		if typ, r, err = f.conn.NextReader(); chk.D(err) {
			chk.D(f.conn.Close())
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

func (f *FasthttpConn) Ping() error {
	return f.conn.WriteControl(websocket.PingMessage, nil,
		time.Now().Add(5*time.Second))
}

func (f *FasthttpConn) Close() error { return f.conn.Close() }
