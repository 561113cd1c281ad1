package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/craftwire/internal/config"
	"github.com/vango-dev/craftwire/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, classify(err))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "craftwire",
		Short: "A Minecraft protocol 47 client",
		Long: `craftwire connects to Minecraft 1.8 servers (protocol 47).

It logs in online or offline, prints chat, sends stdin lines as chat
and can record every packet to a capture file or S3 object.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		connectCmd(),
		pingCmd(),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads path, or craftwire.json in the working directory when
// path is empty. A missing default file yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if _, err := os.Stat(config.ConfigFileName); err == nil {
		return config.LoadFile(config.ConfigFileName)
	}
	return config.New(), nil
}

// newLogger builds the command's text logger. verbose forces debug.
func newLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
