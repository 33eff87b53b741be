package requester

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/fuucckk/Fenjing/pkg/defaults"
)

// TCP sends raw request bytes over a single connection and captures
// everything the target writes back. It exists for request templates that
// must reach the wire byte-exact: deliberately malformed framing, duplicate
// headers, and other shapes the standard client would normalize away.
type TCP struct {
	addr        string
	useTLS      bool
	serverName  string
	dialTimeout time.Duration
	readTimeout time.Duration
}

// NewTCP builds a raw sender for addr (host:port). serverName is the TLS
// SNI value and may be empty for plain connections.
func NewTCP(addr string, useTLS bool, serverName string) *TCP {
	return &TCP{
		addr:        addr,
		useTLS:      useTLS,
		serverName:  serverName,
		dialTimeout: defaults.DialTimeoutSeconds * time.Second,
		readTimeout: defaults.TimeoutSeconds * time.Second,
	}
}

// Send writes raw to a fresh connection and reads until the server closes
// or the read deadline expires. Data read before a timeout is returned:
// many servers leave the connection open after answering, and the bytes in
// hand are the response.
func (t *TCP) Send(ctx context.Context, raw []byte) (string, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return "", fmt.Errorf("requester: dial %s: %w", t.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(t.readTimeout))
	}

	if _, err := conn.Write(raw); err != nil {
		return "", fmt.Errorf("requester: write %s: %w", t.addr, err)
	}

	data, err := io.ReadAll(io.LimitReader(conn, defaults.MaxBodyBytes))
	if err != nil && len(data) == 0 {
		return "", fmt.Errorf("requester: read %s: %w", t.addr, err)
	}
	return string(data), nil
}

// dial opens the connection, wrapping it in a Chrome-fingerprint TLS client
// when TLS is on. A generic Go TLS handshake is itself a WAF signal; the
// mimicked fingerprint keeps the probe traffic looking like a browser.
func (t *TCP) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: t.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, err
	}
	if !t.useTLS {
		return conn, nil
	}

	cfg := &utls.Config{
		ServerName:         t.serverName,
		InsecureSkipVerify: true,
	}
	tlsConn := utls.UClient(conn, cfg, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
