package whois_tools

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

const (
	// DefaultDialTimeout bounds connection setup.
	DefaultDialTimeout = 10 * time.Second
	// DefaultReadTimeout bounds the whole exchange once connected.
	DefaultReadTimeout = 30 * time.Second
)

// Connection is an open exchange with one WHOIS server.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// Transport performs the raw network operations of a WHOIS exchange. The
// resolver never touches sockets directly.
type Transport interface {
	Connect(ctx context.Context, host, port string) (Connection, error)
	WriteLine(conn Connection, line string) error
	ReadAll(conn Connection) (string, error)
	Close(conn Connection) error
}

// PortLookup resolves a symbolic service name to a port. *net.Resolver
// satisfies it.
type PortLookup interface {
	LookupPort(ctx context.Context, network, service string) (int, error)
}

// TCPTransportOptions configures a TCPTransport.
type TCPTransportOptions struct {
	// DialTimeout limits how long connecting may take. Defaults to DefaultDialTimeout.
	DialTimeout time.Duration
	// ReadTimeout is the deadline for writing the query and reading the full
	// answer. Defaults to DefaultReadTimeout.
	ReadTimeout time.Duration
	// Dialer opens the TCP connections. Defaults to a plain net.Dialer; use
	// NewProxyDialer to go through SOCKS5.
	Dialer proxy.ContextDialer
}

// TCPTransport is the production Transport: one TCP connection per exchange.
type TCPTransport struct {
	opt TCPTransportOptions
}

var _ Transport = (*TCPTransport)(nil)

// NewTCPTransport returns a transport that dials WHOIS servers over TCP.
func NewTCPTransport(opt TCPTransportOptions) *TCPTransport {
	if opt.DialTimeout <= 0 {
		opt.DialTimeout = DefaultDialTimeout
	}
	if opt.ReadTimeout <= 0 {
		opt.ReadTimeout = DefaultReadTimeout
	}
	if opt.Dialer == nil {
		opt.Dialer = &net.Dialer{}
	}
	return &TCPTransport{opt: opt}
}

// Connect dials host:port. The returned connection carries a deadline of
// ReadTimeout, or the context deadline if that comes first.
func (t *TCPTransport) Connect(ctx context.Context, host, port string) (Connection, error) {
	dialCtx, cancel := context.WithTimeout(ctx, t.opt.DialTimeout)
	defer cancel()

	conn, err := t.opt.Dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.opt.ReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

// WriteLine sends line terminated by CRLF.
func (t *TCPTransport) WriteLine(conn Connection, line string) error {
	_, err := io.WriteString(conn, line+"\r\n")
	return err
}

// ReadAll reads until the server closes the connection.
func (t *TCPTransport) ReadAll(conn Connection) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Close releases the connection.
func (t *TCPTransport) Close(conn Connection) error {
	return conn.Close()
}

// NewProxyDialer returns a dialer that sends connections through the SOCKS5
// proxy at addr. When suffixes is non-empty only servers whose host name ends
// in one of them are proxied, everything else is dialled directly.
func NewProxyDialer(addr, username, password string, suffixes []string) (proxy.ContextDialer, error) {
	var auth *proxy.Auth
	if username != "" {
		auth = &proxy.Auth{User: username, Password: password}
	}
	d, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create socks5 dialer for %s", addr)
	}
	proxied, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.Errorf("socks5 dialer for %s does not support contexts", addr)
	}

	var cleaned []string
	for _, s := range suffixes {
		s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".")
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return proxied, nil
	}
	return &suffixDialer{proxied: proxied, direct: &net.Dialer{}, suffixes: cleaned}, nil
}

// suffixDialer proxies only the hosts matching one of its suffixes.
type suffixDialer struct {
	proxied  proxy.ContextDialer
	direct   proxy.ContextDialer
	suffixes []string
}

func (d *suffixDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if d.useProxy(address) {
		return d.proxied.DialContext(ctx, network, address)
	}
	return d.direct.DialContext(ctx, network, address)
}

func (d *suffixDialer) useProxy(address string) bool {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, s := range d.suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
