package main

import (
	"context"
	"fmt"

	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file template for the user to fill in.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s Config template written to %s\n", successStyle.Render("✓"), configPath)
	r.writePlain("Fill in the navidrome credentials and enable the playlists you want,\n")
	r.writePlain("or supply them via environment variables (NAVIDROME_URL, LASTFM_USERNAME, ...).\n")
	r.writePlain("Then run 'navidrofm status' to verify connectivity.\n")

	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a configuration file template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
