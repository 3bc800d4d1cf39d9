package mcp_tools

import (
	"context"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"

	"github.com/KincaidYang/nicwhois/config"
	"github.com/KincaidYang/nicwhois/whois_tools"
)

const serverName = "nicwhois"

// QueryInput are the arguments of the whois_query tool.
type QueryInput struct {
	Query         string `json:"query" jsonschema:"domain name, IP address or handle to look up. Prefix with ! for InterNIC handles"`
	Server        string `json:"server,omitempty" jsonschema:"whois server to ask instead of the one chosen for the query, host or host:port"`
	Authoritative *bool  `json:"authoritative,omitempty" jsonschema:"resolve answers matching several records through the registrar database"`
	DB            string `json:"db,omitempty" jsonschema:"fixed database to use: apnic, ipv6 or radb"`
}

// QueryOutput is the result of the whois_query tool.
type QueryOutput struct {
	Server   string `json:"server" jsonschema:"the first server asked"`
	Response string `json:"response" jsonschema:"raw whois text of every server in the referral chain"`
}

// SelectInput are the arguments of the whois_select_server tool.
type SelectInput struct {
	Query string `json:"query" jsonschema:"domain name, IP address or handle"`
}

// SelectOutput is the result of the whois_select_server tool.
type SelectOutput struct {
	Server string `json:"server" jsonschema:"whois server the query would be sent to first"`
}

type tools struct {
	client *whois_tools.Client
}

// NewServer returns an MCP server exposing the whois client as tools.
func NewServer(client *whois_tools.Client) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: config.Version}, nil)
	t := &tools{client: client}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "whois_query",
		Description: "Look up a domain, IP address or handle over the WHOIS protocol, following referrals to the registrar's server.",
	}, t.query)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "whois_select_server",
		Description: "Show which WHOIS server a query would be sent to, without contacting it.",
	}, t.selectServer)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// RunStdio serves the tools on stdin/stdout until ctx is done or the client
// disconnects.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (t *tools) query(ctx context.Context, req *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, QueryOutput{}, errors.New("query is required")
	}
	server := strings.TrimSpace(in.Server)
	if server != "" && in.DB != "" {
		return nil, QueryOutput{}, errors.New("server and db cannot be combined")
	}

	c := t.client
	if in.Authoritative != nil {
		c = c.WithAuthoritative(*in.Authoritative)
	}

	var (
		text string
		err  error
	)
	switch {
	case in.DB != "":
		server, err = databaseServer(c, in.DB)
		if err != nil {
			return nil, QueryOutput{}, err
		}
		text, err = c.QueryDatabase(ctx, in.DB, query)
	default:
		if server == "" {
			server = c.SelectServer(query)
		}
		text, err = c.Query(ctx, query, server)
	}
	if err != nil {
		return nil, QueryOutput{}, err
	}

	return nil, QueryOutput{Server: server, Response: text}, nil
}

func (t *tools) selectServer(ctx context.Context, req *mcp.CallToolRequest, in SelectInput) (*mcp.CallToolResult, SelectOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, SelectOutput{}, errors.New("query is required")
	}
	return nil, SelectOutput{Server: t.client.SelectServer(query)}, nil
}

func databaseServer(c *whois_tools.Client, db string) (string, error) {
	d := c.Directory()
	switch strings.ToLower(strings.TrimSpace(db)) {
	case "apnic":
		return d.APNIC, nil
	case "ipv6":
		return d.IPv6, nil
	case "radb":
		return d.RADB, nil
	}
	return "", errors.Wrapf(whois_tools.ErrUnknownDatabase, "%s", db)
}
