package whois_tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// fakeConn is a scripted connection to one host.
type fakeConn struct {
	host    string
	reader  *strings.Reader
	written bytes.Buffer
}

func (c *fakeConn) Read(p []byte) (int, error)  { return c.reader.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error) { return c.written.Write(p) }
func (c *fakeConn) Close() error                { return nil }

// fakeTransport answers every host from a fixed table and records what the
// resolver asked it to do.
type fakeTransport struct {
	mu sync.Mutex

	responses  map[string]string // host -> answer
	connectErr map[string]error  // host:port -> error
	writeErr   map[string]error  // host -> error
	readErr    map[string]error  // host -> error
	closeErr   error

	calls   []string
	queries []string // "host query"
}

var _ Transport = (*fakeTransport)(nil)

func newFakeTransport(responses map[string]string) *fakeTransport {
	return &fakeTransport{
		responses:  responses,
		connectErr: make(map[string]error),
		writeErr:   make(map[string]error),
		readErr:    make(map[string]error),
	}
}

func (t *fakeTransport) record(format string, args ...interface{}) {
	t.calls = append(t.calls, fmt.Sprintf(format, args...))
}

func (t *fakeTransport) Connect(ctx context.Context, host, port string) (Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("connect %s:%s", host, port)
	if err, ok := t.connectErr[host+":"+port]; ok {
		return nil, err
	}
	answer, ok := t.responses[host]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &fakeConn{host: host, reader: strings.NewReader(answer)}, nil
}

func (t *fakeTransport) WriteLine(conn Connection, line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := conn.(*fakeConn)
	t.record("write %s", c.host)
	if err, ok := t.writeErr[c.host]; ok {
		return err
	}
	t.queries = append(t.queries, c.host+" "+line)
	_, err := c.Write([]byte(line + "\r\n"))
	return err
}

func (t *fakeTransport) ReadAll(conn Connection) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := conn.(*fakeConn)
	t.record("read %s", c.host)
	if err, ok := t.readErr[c.host]; ok {
		return "", err
	}
	var buf bytes.Buffer
	_, err := buf.ReadFrom(c.reader)
	return buf.String(), err
}

func (t *fakeTransport) Close(conn Connection) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("close %s", conn.(*fakeConn).host)
	return t.closeErr
}

// staticPorts is a services database with a fixed content.
type staticPorts map[string]int

func (p staticPorts) LookupPort(ctx context.Context, network, service string) (int, error) {
	if port, ok := p[service]; ok {
		return port, nil
	}
	return 0, fmt.Errorf("unknown service %s/%s", network, service)
}

var defaultPorts = staticPorts{"whois": 43, "nicname": 43}
