package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/KincaidYang/nicwhois/config"
	"github.com/KincaidYang/nicwhois/mcp_tools"
	"github.com/KincaidYang/nicwhois/whois_tools"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type queryOptions struct {
	server        string
	db            string
	authoritative bool
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "nicwhois",
		Short: "WHOIS client that follows referrals to the authoritative server",
		Long: `WHOIS client that follows referrals to the authoritative server.

The first server is picked from the query: "!" handles go to the
InterNIC handle database, "-arin" handles and numeric TLDs to ARIN,
everything else to <tld>.whois-servers.net. Referrals found in the
answers are followed and all answers are printed in order.

With --authoritative, answers that match several records are resolved
through the registrar database and only the registrar's answer is kept.
`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (yaml, json or toml)")

	load := func() (*config.Config, io.Closer, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, nil, err
		}
		closer, err := config.SetupLogging(whois_tools.Log, cfg.Log)
		if err != nil {
			return nil, nil, err
		}
		return cfg, closer, nil
	}

	var opt queryOptions
	query := &cobra.Command{
		Use:     "query <domain|ip|handle>",
		Short:   "Look up a domain, IP address or handle",
		Example: "  nicwhois query example.com\n  nicwhois query --db radb 192.0.2.1\n  nicwhois query '!NS1234'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			if cmd.Flags().Changed("authoritative") {
				cfg.Authoritative = opt.authoritative
			}
			return runQuery(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], opt)
		},
	}
	query.Flags().StringVarP(&opt.server, "server", "s", "", "query this server instead of the one chosen for the query")
	query.Flags().StringVar(&opt.db, "db", "", "fixed database: apnic, ipv6 or radb")
	query.Flags().BoolVarP(&opt.authoritative, "authoritative", "a", false, "resolve answers matching several records through the registrar")

	selectCmd := &cobra.Command{
		Use:   "select <domain|ip|handle>",
		Short: "Print the server a query would be sent to first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			client, err := cfg.NewClient(nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.SelectServer(args[0]))
			return nil
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()
			return runServer(cfg)
		},
	}

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the lookup tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := load()
			if err != nil {
				return err
			}
			defer closer.Close()

			client, err := cfg.NewClient(prometheus.NewRegistry())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcp_tools.RunStdio(ctx, mcp_tools.NewServer(client))
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nicwhois %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
		},
	}

	root.AddCommand(query, selectCmd, serve, mcpCmd, version)
	return root
}

func runQuery(ctx context.Context, w io.Writer, cfg *config.Config, q string, opt queryOptions) error {
	if opt.server != "" && opt.db != "" {
		return fmt.Errorf("--server and --db cannot be combined")
	}
	client, err := cfg.NewClient(nil)
	if err != nil {
		return err
	}

	var text string
	if opt.db != "" {
		text, err = client.QueryDatabase(ctx, opt.db, q)
	} else {
		text, err = client.Query(ctx, q, opt.server)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
