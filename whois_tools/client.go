package whois_tools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/KincaidYang/nicwhois/server_lists"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ErrUnknownDatabase is returned by QueryDatabase for a name it does not know.
var ErrUnknownDatabase = errors.New("unknown whois database")

// ClientOptions configures a Client. The zero value gives a working client
// talking TCP to the default servers.
type ClientOptions struct {
	// Directory overrides entries of the default server directory.
	Directory server_lists.Directory
	Transport Transport
	Ports     PortLookup
	// Authoritative enables the registrar lookup for answers that match
	// several records.
	Authoritative bool
	// MaxHops caps the referral chain. Defaults to DefaultMaxHops.
	MaxHops int
	Metrics *Metrics
	// Punycode converts internationalized names to their ASCII form.
	Punycode bool
	// RegistrableDomain reduces host names to the registrable domain,
	// www.example.com becomes example.com.
	RegistrableDomain bool
}

// Client looks up domains, IP addresses and handles.
type Client struct {
	directory     server_lists.Directory
	resolver      *Resolver
	metrics       *Metrics
	authoritative bool
	punycode      bool
	registrable   bool
}

// NewClient returns a client ready for use. It is safe for concurrent use.
func NewClient(opt ClientOptions) *Client {
	directory := server_lists.DefaultDirectory().Merge(opt.Directory)
	return &Client{
		directory: directory,
		resolver: NewResolver(ResolverOptions{
			Transport: opt.Transport,
			Ports:     opt.Ports,
			Directory: directory,
			MaxHops:   opt.MaxHops,
			Metrics:   opt.Metrics,
		}),
		metrics:       opt.Metrics,
		authoritative: opt.Authoritative,
		punycode:      opt.Punycode,
		registrable:   opt.RegistrableDomain,
	}
}

// WithAuthoritative returns a copy of the client with authoritative mode set
// to on. The receiver is left unchanged.
func (c *Client) WithAuthoritative(on bool) *Client {
	cp := *c
	cp.authoritative = on
	return &cp
}

// Authoritative reports whether authoritative mode is enabled.
func (c *Client) Authoritative() bool { return c.authoritative }

// Directory returns the servers the client uses.
func (c *Client) Directory() server_lists.Directory { return c.directory }

// SelectServer returns the server a query would be sent to first.
func (c *Client) SelectServer(query string) string {
	return c.directory.SelectServer(c.normalize(query))
}

// Query looks up domain. Prefix the query with "!" to search the InterNIC
// handle database, suffix it with "-arin" for the ARIN handle database. When
// server is empty the server is chosen from the query.
func (c *Client) Query(ctx context.Context, domain, server string) (string, error) {
	text, err := c.query(ctx, domain, server)
	c.metrics.observeQuery(err)
	return text, err
}

// QueryAPNIC uses the Asia/Pacific Network Information Centre database.
func (c *Client) QueryAPNIC(ctx context.Context, domain string) (string, error) {
	return c.Query(ctx, domain, c.directory.APNIC)
}

// QueryIPv6 uses the IPv6 resource centre database.
func (c *Client) QueryIPv6(ctx context.Context, domain string) (string, error) {
	return c.Query(ctx, domain, c.directory.IPv6)
}

// QueryRADB uses the Route Arbiter database.
func (c *Client) QueryRADB(ctx context.Context, ipAddress string) (string, error) {
	return c.Query(ctx, ipAddress, c.directory.RADB)
}

// QueryDatabase dispatches by database name: "apnic", "ipv6" or "radb". An
// empty name behaves like Query without an explicit server.
func (c *Client) QueryDatabase(ctx context.Context, db, domain string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(db)) {
	case "":
		return c.Query(ctx, domain, "")
	case "apnic":
		return c.QueryAPNIC(ctx, domain)
	case "ipv6":
		return c.QueryIPv6(ctx, domain)
	case "radb":
		return c.QueryRADB(ctx, domain)
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownDatabase, db)
}

func (c *Client) query(ctx context.Context, domain, server string) (string, error) {
	query := c.normalize(domain)
	if server == "" {
		server = c.directory.SelectServer(query)
	}

	log := logger(server, query)
	log.Info("querying whois")

	text, err := c.resolver.Resolve(ctx, server, query)
	if err != nil {
		log.WithError(err).Warn("whois query failed")
		return "", err
	}

	if c.authoritative && IsAmbiguous(text) {
		return c.singleOut(ctx, query)
	}
	return text, nil
}

// singleOut asks the registrar database for the exact record and queries the
// registrar server it names. Only that server's answer is returned.
func (c *Client) singleOut(ctx context.Context, query string) (string, error) {
	registrar := c.directory.Registrar
	logger(registrar, query).Debug("answer matches several records, asking the registrar database")

	answer, err := c.resolver.Fetch(ctx, registrar, "="+query)
	if err != nil {
		return "", err
	}

	chunk, ok := DomainNameChunk(answer)
	if !ok {
		return "", &AmbiguousResponseError{Query: query, Reason: "registrar database answer has no 'Domain Name:' record"}
	}
	target, ok := FindReferral(chunk)
	if !ok {
		return "", &AmbiguousResponseError{Query: query, Reason: "registrar record names no 'Whois Server:'"}
	}

	logger(target, query).Debug("querying authoritative registrar")
	return c.resolver.Resolve(ctx, target, query)
}

// normalize trims the query and applies the optional name rewrites. Handles
// and IP addresses are never rewritten.
func (c *Client) normalize(domain string) string {
	query := strings.TrimSpace(domain)
	if !c.punycode && !c.registrable {
		return query
	}
	if isHandle(query) || net.ParseIP(query) != nil {
		return query
	}

	if c.punycode {
		if ascii, err := idna.ToASCII(query); err == nil {
			query = ascii
		}
	}
	if c.registrable && strings.Contains(query, ".") && !numericTLD(query) {
		if d, err := publicsuffix.EffectiveTLDPlusOne(query); err == nil {
			query = d
		}
	}
	return query
}

func isHandle(query string) bool {
	return strings.HasPrefix(query, "!") || strings.HasSuffix(strings.ToLower(query), "-arin")
}

func numericTLD(query string) bool {
	label := query[strings.LastIndex(query, ".")+1:]
	if label == "" {
		return false
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
