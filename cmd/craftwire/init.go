package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/craftwire/internal/config"
	"github.com/vango-dev/craftwire/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		path     string
		server   string
		username string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a craftwire.json with default settings",
		Long: `Write a craftwire.json with default settings to the working directory.

Examples:
  craftwire init --server localhost --username Steve
  craftwire init --path ./bots/steve.json --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("CW104").
					WithDetail(path + " already exists").
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			cfg.Server = server
			cfg.Username = username
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&path, "path", "p", config.ConfigFileName, "File to write")
	f.StringVarP(&server, "server", "s", "", "Server host or host:port")
	f.StringVarP(&username, "username", "u", "", "Username to log in with")
	f.BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
