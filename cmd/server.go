package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// ServerStatus pings the media server and reports scan state.
func (r *Runner) ServerStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	r.writeHeader("Server Status")
	r.writePlain("%s Connected to %s as %s\n",
		successStyle.Render("✓"), r.config.Navidrome.URL, r.config.Navidrome.Username)

	status, err := r.server.GetScanStatus(ctx)
	if err != nil {
		return err
	}
	if status.Scanning {
		r.writePlain("Library scan in progress (%d entries)\n", status.Count)
	} else {
		r.writePlain("Library idle, %d entries indexed\n", status.Count)
	}

	return nil
}

// ServerPlaylists lists the server's playlists, marking the managed ones.
func (r *Runner) ServerPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	playlists, err := r.server.GetPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	managed := make(map[string]struct{}, len(r.config.Playlists))
	for _, pl := range r.config.Playlists {
		managed[pl.Name] = struct{}{}
	}

	r.writeHeader("Playlists")
	for _, pl := range playlists {
		marker := " "
		if _, ok := managed[pl.Name]; ok {
			marker = "*"
		}
		r.writePlain("%s %s (%d tracks) [%s]\n", marker, pl.Name, pl.SongCount, pl.ID)
	}
	r.writePlain("\n* managed by navidrofm\n")

	return nil
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Check media server connectivity and scan state",
		Action: r.ServerStatus,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List server playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Action: r.ServerPlaylists,
	}
}
