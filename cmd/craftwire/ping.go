package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/craftwire/internal/errors"
	"github.com/vango-dev/craftwire/pkg/client"
)

func pingCmd() *cobra.Command {
	var (
		configPath string
		server     string
		timeout    time.Duration
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Query a server's status",
		Long: `Query a server's status: version, player count, description and
round-trip latency. No account is needed.

Examples:
  craftwire ping --server localhost
  craftwire ping --server [::1]:25566 --timeout 5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.Server = server
			}
			if cfg.Server == "" {
				return errors.New("CW105")
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeouts.Handshake = timeout.String()
			}
			// Status needs no account.
			cfg.Offline = true

			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, verbose)
			if err != nil {
				return err
			}
			ccfg, err := cfg.ClientConfig(os.Getenv)
			if err != nil {
				return err
			}
			ccfg.Logger = logger

			conn, err := client.New(cfg.Server, ccfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			status, err := conn.Ping(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), conn.Address().String(), status)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to craftwire.json")
	f.StringVarP(&server, "server", "s", "", "Server host or host:port")
	f.DurationVarP(&timeout, "timeout", "t", 0, "Give up after this long")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	return cmd
}

// printStatus writes a status response as an aligned table.
func printStatus(w io.Writer, address string, s *client.ServerStatus) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Server:      %s\n", address)
	fmt.Fprintf(w, "  Version:     %s (protocol %d)\n", s.Version.Name, s.Version.Protocol)
	fmt.Fprintf(w, "  Players:     %d/%d\n", s.Players.Online, s.Players.Max)
	if len(s.Players.Sample) > 0 {
		names := make([]string, len(s.Players.Sample))
		for i, p := range s.Players.Sample {
			names[i] = p.Name
		}
		fmt.Fprintf(w, "               %s\n", strings.Join(names, ", "))
	}
	if desc := s.DescriptionText(); desc != "" {
		fmt.Fprintf(w, "  Description: %s\n", desc)
	}
	fmt.Fprintf(w, "  Latency:     %s\n", s.Latency.Round(time.Millisecond))
	fmt.Fprintln(w)
}
