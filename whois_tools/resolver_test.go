package whois_tools

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/KincaidYang/nicwhois/server_lists"
	"github.com/stretchr/testify/require"
)

func newTestResolver(tr Transport, ports PortLookup) *Resolver {
	return NewResolver(ResolverOptions{Transport: tr, Ports: ports})
}

func TestResolveWithoutReferral(t *testing.T) {
	answer := "Domain Name: EXAMPLE.COM\r\nRegistrar: Example Registrar\r\n"
	tr := newFakeTransport(map[string]string{"com.whois-servers.net": answer})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "com.whois-servers.net", "example.com")
	require.NoError(t, err)
	require.Equal(t, answer, text)
	require.Equal(t, []string{
		"connect com.whois-servers.net:43",
		"write com.whois-servers.net",
		"read com.whois-servers.net",
		"close com.whois-servers.net",
	}, tr.calls)
	require.Equal(t, []string{"com.whois-servers.net example.com"}, tr.queries)
}

func TestResolveFollowsReferral(t *testing.T) {
	hop1 := "Domain Name: EXAMPLE.COM\n   Whois Server:   example.net  \n"
	hop2 := "Registrant: Example Org\n"
	tr := newFakeTransport(map[string]string{
		"com.whois-servers.net": hop1,
		"example.net":           hop2,
	})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "com.whois-servers.net", "example.com")
	require.NoError(t, err)
	require.Equal(t, hop1+hop2, text)
	require.Equal(t, []string{
		"com.whois-servers.net example.com",
		"example.net example.com",
	}, tr.queries)

	// The first connection is released before the referral is dialled.
	require.Equal(t, []string{
		"connect com.whois-servers.net:43",
		"write com.whois-servers.net",
		"read com.whois-servers.net",
		"close com.whois-servers.net",
		"connect example.net:43",
		"write example.net",
		"read example.net",
		"close example.net",
	}, tr.calls)
}

func TestResolveOnlyFirstReferralCounts(t *testing.T) {
	tr := newFakeTransport(map[string]string{
		"a": "Whois Server: b\nWhois Server: c\n",
		"b": "end of b\n",
		"c": "end of c\n",
	})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "a", "q")
	require.NoError(t, err)
	require.Equal(t, "Whois Server: b\nWhois Server: c\nend of b\n", text)
	require.Equal(t, []string{"a q", "b q"}, tr.queries)
}

func TestResolveReferralLoop(t *testing.T) {
	tr := newFakeTransport(map[string]string{
		"whois.a.example": "Whois Server: whois.b.example\n",
		"whois.b.example": "Whois Server: WHOIS.A.EXAMPLE\n",
	})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "whois.a.example", "example.com")
	require.Empty(t, text)
	var loopErr *ReferralLoopError
	require.True(t, errors.As(err, &loopErr))
	require.Equal(t, []string{"whois.a.example", "whois.b.example", "WHOIS.A.EXAMPLE"}, loopErr.Chain)
	require.Len(t, tr.queries, 2)
}

func TestResolveSelfReferralEndsChain(t *testing.T) {
	answer := "Registrar WHOIS Server: ignored\nWhois Server: whois.registrar.example\n"
	tr := newFakeTransport(map[string]string{"whois.registrar.example": answer})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "whois.registrar.example", "example.com")
	require.NoError(t, err)
	require.Equal(t, answer, text)
	require.Len(t, tr.queries, 1)
}

func TestResolveTooManyHops(t *testing.T) {
	tr := newFakeTransport(map[string]string{
		"h0": "Whois Server: h1\n",
		"h1": "Whois Server: h2\n",
		"h2": "Whois Server: h3\n",
		"h3": "done\n",
	})
	r := NewResolver(ResolverOptions{Transport: tr, Ports: defaultPorts, MaxHops: 3})

	_, err := r.Resolve(context.Background(), "h0", "q")
	var hopsErr *TooManyHopsError
	require.True(t, errors.As(err, &hopsErr))
	require.Equal(t, 3, hopsErr.Max)
	require.Equal(t, []string{"h0", "h1", "h2", "h3"}, hopsErr.Chain)
	require.Len(t, tr.queries, 3)
}

func TestResolveWriteErrorSkipsRead(t *testing.T) {
	tr := newFakeTransport(map[string]string{"whois.example": "never read"})
	tr.writeErr["whois.example"] = errors.New("broken pipe")
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "whois.example", "example.com")
	require.Empty(t, text)
	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	require.Equal(t, "whois.example", writeErr.Server)
	require.NotContains(t, tr.calls, "read whois.example")
	require.Contains(t, tr.calls, "close whois.example")
}

func TestResolveReadError(t *testing.T) {
	tr := newFakeTransport(map[string]string{"whois.example": ""})
	tr.readErr["whois.example"] = errors.New("connection reset by peer")
	r := newTestResolver(tr, defaultPorts)

	_, err := r.Resolve(context.Background(), "whois.example", "example.com")
	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	require.Contains(t, tr.calls, "close whois.example")
}

func TestResolveReadTimeout(t *testing.T) {
	tr := newFakeTransport(map[string]string{"whois.example": ""})
	tr.readErr["whois.example"] = os.ErrDeadlineExceeded
	r := newTestResolver(tr, defaultPorts)

	_, err := r.Resolve(context.Background(), "whois.example", "example.com")
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	require.Equal(t, "read", timeoutErr.Op)
	require.True(t, errors.Is(err, os.ErrDeadlineExceeded))
}

func TestResolveReferralErrorDiscardsText(t *testing.T) {
	tr := newFakeTransport(map[string]string{
		"com.whois-servers.net": "Whois Server: whois.down.example\n",
	})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "com.whois-servers.net", "example.com")
	require.Empty(t, text)
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	require.Equal(t, "whois.down.example", connErr.Server)
}

func TestResolveCloseErrorIgnored(t *testing.T) {
	tr := newFakeTransport(map[string]string{"whois.example": "answer\n"})
	tr.closeErr = errors.New("close failed")
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "whois.example", "example.com")
	require.NoError(t, err)
	require.Equal(t, "answer\n", text)
}

func TestResolveARINRegistryMention(t *testing.T) {
	d := server_lists.DefaultDirectory()
	tr := newFakeTransport(map[string]string{
		d.ARIN:  "NetRange: 193.0.0.0 - 193.0.7.255\nComment: see whois.ripe.net for details\n",
		d.RIPE:  "inetnum: 193.0.0.0 - 193.0.7.255\n",
		"other": "Comment: see whois.ripe.net for details\n",
	})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), d.ARIN, "193.0.0.1")
	require.NoError(t, err)
	require.Contains(t, text, "inetnum:")
	require.Equal(t, []string{d.ARIN + " 193.0.0.1", d.RIPE + " 193.0.0.1"}, tr.queries)

	// Only ARIN answers are searched for bare registry names.
	tr.queries = nil
	text, err = r.Resolve(context.Background(), "other", "193.0.0.1")
	require.NoError(t, err)
	require.NotContains(t, text, "inetnum:")
	require.Equal(t, []string{"other 193.0.0.1"}, tr.queries)
}

func TestResolveARINPrefersWhoisServerLabel(t *testing.T) {
	d := server_lists.DefaultDirectory()
	tr := newFakeTransport(map[string]string{
		d.ARIN:            "Comment: whois.apnic.net\nWhois Server: rwhois.example\n",
		"rwhois.example":  "rwhois answer\n",
		"whois.apnic.net": "apnic answer\n",
	})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), d.ARIN, "192.0.2.1")
	require.NoError(t, err)
	require.Contains(t, text, "rwhois answer")
	require.NotContains(t, text, "apnic answer")
}

func TestConnectFallsBackToNicname(t *testing.T) {
	tr := newFakeTransport(map[string]string{"whois.example": "answer\n"})
	tr.connectErr["whois.example:43"] = errors.New("connection refused")
	r := newTestResolver(tr, staticPorts{"whois": 43, "nicname": 4343})

	text, err := r.Resolve(context.Background(), "whois.example", "example.com")
	require.NoError(t, err)
	require.Equal(t, "answer\n", text)
	require.Equal(t, "connect whois.example:43", tr.calls[0])
	require.Equal(t, "connect whois.example:4343", tr.calls[1])
}

func TestConnectFailsOnBothPorts(t *testing.T) {
	tr := newFakeTransport(map[string]string{})
	r := newTestResolver(tr, staticPorts{"whois": 43, "nicname": 4343})

	_, err := r.Resolve(context.Background(), "whois.example", "example.com")
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	require.Equal(t, []string{"connect whois.example:43", "connect whois.example:4343"}, tr.calls)
}

func TestConnectUnknownServicesUseWellKnownPort(t *testing.T) {
	tr := newFakeTransport(map[string]string{})
	r := newTestResolver(tr, staticPorts{})

	_, err := r.Resolve(context.Background(), "whois.example", "example.com")
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	// Both names fall back to 43, which is dialled once.
	require.Equal(t, []string{"connect whois.example:43"}, tr.calls)
}

func TestConnectExplicitPort(t *testing.T) {
	tr := newFakeTransport(map[string]string{"127.0.0.1": "local\n"})
	r := newTestResolver(tr, defaultPorts)

	text, err := r.Resolve(context.Background(), "127.0.0.1:4343", "example.com")
	require.NoError(t, err)
	require.Equal(t, "local\n", text)
	require.Equal(t, "connect 127.0.0.1:4343", tr.calls[0])
}

func TestConnectTimeout(t *testing.T) {
	tr := newFakeTransport(map[string]string{})
	tr.connectErr["whois.example:43"] = context.DeadlineExceeded
	r := newTestResolver(tr, defaultPorts)

	_, err := r.Resolve(context.Background(), "whois.example", "example.com")
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	require.Equal(t, "connect", timeoutErr.Op)
}
