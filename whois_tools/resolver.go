package whois_tools

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KincaidYang/nicwhois/server_lists"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxHops is the longest referral chain followed by default.
	DefaultMaxHops = 8

	whoisService   = "whois"
	nicnameService = "nicname"
	// wellKnownPort is what both service names are registered to. It is used
	// when the local services database does not know a name.
	wellKnownPort = "43"
)

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Transport Transport
	Ports     PortLookup
	Directory server_lists.Directory
	MaxHops   int
	Metrics   *Metrics
}

// Resolver sends a query to a server and follows the referrals found in the
// answers, one connection at a time.
type Resolver struct {
	transport Transport
	ports     PortLookup
	directory server_lists.Directory
	maxHops   int
	metrics   *Metrics
}

// NewResolver returns a resolver. Missing options get defaults: a
// TCPTransport, the system port lookup, the default directory and
// DefaultMaxHops.
func NewResolver(opt ResolverOptions) *Resolver {
	if opt.Transport == nil {
		opt.Transport = NewTCPTransport(TCPTransportOptions{})
	}
	if opt.Ports == nil {
		opt.Ports = net.DefaultResolver
	}
	if opt.MaxHops <= 0 {
		opt.MaxHops = DefaultMaxHops
	}
	return &Resolver{
		transport: opt.Transport,
		ports:     opt.Ports,
		directory: server_lists.DefaultDirectory().Merge(opt.Directory),
		maxHops:   opt.MaxHops,
		metrics:   opt.Metrics,
	}
}

// Resolve queries server and every server it refers to, and returns the
// answers concatenated in the order they were received. Any failure aborts
// the chain and no partial text is returned.
func (r *Resolver) Resolve(ctx context.Context, server, query string) (string, error) {
	var (
		buf     strings.Builder
		chain   []string
		visited = make(map[string]struct{})
	)

	host := server
	for {
		key := hostKey(host)
		if _, ok := visited[key]; ok {
			return "", &ReferralLoopError{Chain: append(chain, host)}
		}
		if len(chain) >= r.maxHops {
			return "", &TooManyHopsError{Max: r.maxHops, Chain: append(chain, host)}
		}
		visited[key] = struct{}{}
		chain = append(chain, host)

		text, err := r.Fetch(ctx, host, query)
		if err != nil {
			return "", err
		}
		buf.WriteString(text)

		next, ok := r.referral(host, text)
		if !ok {
			return buf.String(), nil
		}
		log := logger(host, query).WithField("referral", next)
		if hostKey(next) == key {
			log.Debug("server refers to itself, done")
			return buf.String(), nil
		}
		log.Debug("following referral")
		r.metrics.observeReferral()
		host = next
	}
}

// Fetch performs a single exchange with server without following referrals.
func (r *Resolver) Fetch(ctx context.Context, server, query string) (string, error) {
	start := time.Now()
	text, err := r.fetch(ctx, server, query)
	r.metrics.observeRoundTrip(err, time.Since(start))
	return text, err
}

func (r *Resolver) fetch(ctx context.Context, server, query string) (string, error) {
	log := logger(server, query)

	conn, err := r.connect(ctx, server)
	if err != nil {
		return "", err
	}
	defer r.release(server, conn)

	log.Debug("sending query")
	if err := r.transport.WriteLine(conn, query); err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Server: server, Op: "write", Err: err}
		}
		return "", &WriteError{Server: server, Err: err}
	}

	text, err := r.transport.ReadAll(conn)
	if err != nil {
		if isTimeout(err) {
			return "", &TimeoutError{Server: server, Op: "read", Err: err}
		}
		return "", &ReadError{Server: server, Err: err}
	}
	log.WithField("bytes", len(text)).Debug("received response")
	return text, nil
}

// connect opens a connection to server. A server given as host:port is
// dialled as is, otherwise the whois service port is tried first and the
// nicname one second.
func (r *Resolver) connect(ctx context.Context, server string) (Connection, error) {
	if host, port, err := net.SplitHostPort(server); err == nil {
		conn, err := r.transport.Connect(ctx, host, port)
		if err != nil {
			return nil, connectError(server, err)
		}
		return conn, nil
	}

	var (
		lastErr error
		tried   = make(map[string]bool)
	)
	for _, service := range []string{whoisService, nicnameService} {
		port := r.servicePort(ctx, service)
		if tried[port] {
			continue
		}
		tried[port] = true

		conn, err := r.transport.Connect(ctx, server, port)
		if err == nil {
			return conn, nil
		}
		Log.WithFields(logrus.Fields{
			"server":  server,
			"service": service,
			"port":    port,
		}).WithError(err).Debug("connect failed")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, connectError(server, lastErr)
}

func (r *Resolver) servicePort(ctx context.Context, service string) string {
	port, err := r.ports.LookupPort(ctx, "tcp", service)
	if err != nil || port <= 0 {
		return wellKnownPort
	}
	return strconv.Itoa(port)
}

// release closes the connection. The answer has already been read, so a
// failure here is only logged.
func (r *Resolver) release(server string, conn Connection) {
	if err := r.transport.Close(conn); err != nil {
		Log.WithField("server", server).WithError(err).Debug("close failed")
	}
}

// referral looks for the next server to ask in an answer from host.
func (r *Resolver) referral(host, text string) (string, bool) {
	if next, ok := FindReferral(text); ok {
		return next, true
	}
	if hostKey(host) == hostKey(r.directory.ARIN) {
		return FindRegistryMention(text, r.directory.IPRegistries())
	}
	return "", false
}

func connectError(server string, err error) error {
	if isTimeout(err) {
		return &TimeoutError{Server: server, Op: "connect", Err: err}
	}
	return &ConnectionError{Server: server, Err: err}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func hostKey(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}
