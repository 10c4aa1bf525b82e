package connection

import (
	"bufio"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/gobwas/httphead"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsflate"
	"github.com/gobwas/ws/wsutil"
)

// GobwasConn is a client connection on github.com/gobwas/ws, negotiating
// permessage-deflate when the relay offers it.
type GobwasConn struct {
	Conn              net.Conn
	enableCompression bool
	controlHandler    wsutil.FrameHandlerFunc
	flateReader       *wsflate.Reader
	reader            *wsutil.Reader
	flateWriter       *wsflate.Writer
	writer            *wsutil.Writer
	msgStateR         wsflate.MessageState
	msgStateW         wsflate.MessageState
}

var _ I = (*GobwasConn)(nil)

func NewGobwas(c context.T, url string, header http.Header) (I, error) {
	g := &GobwasConn{}
	dialer := ws.Dialer{
		Header: ws.HandshakeHeaderHTTP(header),
		Extensions: []httphead.Option{
			wsflate.DefaultParameters.Option(),
		},
	}
	var hs ws.Handshake
	var br *bufio.Reader
	var err error
	if g.Conn, br, hs, err = dialer.Dial(c, url); chk.D(err) {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	if br != nil {
		// frames the relay sent together with the handshake response
		g.Conn = &bufferedConn{Conn: g.Conn, br: br}
	}
	state := ws.StateClientSide
	for _, extension := range hs.Extensions {
		if string(extension.Name) == wsflate.ExtensionName {
			g.enableCompression = true
			state |= ws.StateExtended
			break
		}
	}
	if g.enableCompression {
		g.msgStateW.SetCompressed(true)
		g.flateReader = wsflate.NewReader(nil,
			func(r io.Reader) wsflate.Decompressor {
				return flate.NewReader(r)
			})
		g.flateWriter = wsflate.NewWriter(nil,
			func(w io.Writer) wsflate.Compressor {
				fw, err := flate.NewWriter(w, 4)
				if chk.D(err) {
					log.E.F("failed to create flate writer: %v", err)
				}
				return fw
			})
	}
	g.controlHandler = wsutil.ControlFrameHandler(g.Conn, ws.StateClientSide)
	g.reader = &wsutil.Reader{
		Source:         g.Conn,
		State:          state,
		OnIntermediate: g.controlHandler,
		CheckUTF8:      false,
		Extensions:     []wsutil.RecvExtension{&g.msgStateR},
	}
	g.writer = wsutil.NewWriterSize(g.Conn, state, ws.OpText, MaxMessageSize)
	g.writer.SetExtensions(&g.msgStateW)
	return g, nil
}

func (g *GobwasConn) WriteMessage(data []byte) (err error) {
	if g.enableCompression {
		g.flateWriter.Reset(g.writer)
		if _, err = io.Copy(g.flateWriter, bytes.NewReader(data)); chk.D(err) {
			return fmt.Errorf("failed to write message: %w", err)
		}
		if err = g.flateWriter.Close(); chk.D(err) {
			return fmt.Errorf("failed to close flate writer: %w", err)
		}
	} else {
		if _, err = io.Copy(g.writer, bytes.NewReader(data)); chk.D(err) {
			return fmt.Errorf("failed to write message: %w", err)
		}
	}
	if err = g.writer.Flush(); chk.D(err) {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

func (g *GobwasConn) ReadMessage(c context.T, buf io.Writer) (err error) {
	for {
		select {
		case <-c.Done():
			return c.Err()
		default:
		}
		var h ws.Header
		if h, err = g.reader.NextFrame(); chk.D(err) {
			chk.D(g.Conn.Close())
			return fmt.Errorf("failed to advance frame: %w", err)
		}
		if h.OpCode.IsControl() {
			if err = g.controlHandler(h, g.reader); chk.D(err) {
				return fmt.Errorf("failed to handle control frame: %w", err)
			}
		} else if h.OpCode == ws.OpBinary || h.OpCode == ws.OpText {
			break
		}
		if err = g.reader.Discard(); chk.D(err) {
			return fmt.Errorf("failed to discard: %w", err)
		}
	}
	if g.enableCompression && g.msgStateR.IsCompressed() {
		g.flateReader.Reset(g.reader)
		if _, err = io.Copy(buf, g.flateReader); chk.D(err) {
			return fmt.Errorf("failed to read message: %w", err)
		}
	} else {
		if _, err = io.Copy(buf, g.reader); chk.D(err) {
			return fmt.Errorf("failed to read message: %w", err)
		}
	}
	return nil
}

func (g *GobwasConn) Ping() error {
	return wsutil.WriteClientMessage(g.Conn, ws.OpPing, nil)
}

func (g *GobwasConn) Close() error { return g.Conn.Close() }

// bufferedConn reads what the handshake left in br before reading the socket.
// Only the read loop calls Read.
type bufferedConn struct {
	net.Conn
	br *bufio.Reader
}

func (b *bufferedConn) Read(p []byte) (n int, err error) {
	if b.br != nil {
		if b.br.Buffered() > 0 {
			return b.br.Read(p)
		}
		ws.PutReader(b.br)
		b.br = nil
	}
	return b.Conn.Read(p)
}
