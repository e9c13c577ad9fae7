package main

import (
	"context"
	"fmt"

	"github.com/4rft5/NavidroFM/internal/formatter"
	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/urfave/cli/v3"
)

// Export dumps a server playlist's track listing to a portable format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("playlist")
	format := cmd.String("format")
	outputPath := cmd.String("output")

	if err := r.connect(ctx); err != nil {
		return err
	}

	playlists, err := r.server.GetPlaylists(ctx)
	if err != nil {
		return err
	}

	var playlistID string
	for _, pl := range playlists {
		if pl.Name == name {
			playlistID = pl.ID
			break
		}
	}
	if playlistID == "" {
		return fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
	}

	full, err := r.server.GetPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}

	data, err := formatter.Export(full.Name, format, full.Entries)
	if err != nil {
		return err
	}

	if outputPath == "" {
		return r.writePlain("%s", data)
	}
	if err := formatter.SaveToFile(outputPath, data); err != nil {
		return err
	}

	r.logger.Info("playlist exported", "playlist", name, "format", format, "path", outputPath)
	r.writePlain("%s Exported %d tracks to %s\n", successStyle.Render("✓"), len(full.Entries), outputPath)
	return nil
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a server playlist to CSV, Markdown, or M3U",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist name on the server",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (csv, md, m3u)",
				Value:   formatter.FormatCSV,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path; omit to print to stdout",
			},
		},
		Action: r.Export,
	}
}
