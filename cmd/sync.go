package main

import (
	"context"
	"fmt"
	"time"

	"github.com/4rft5/NavidroFM/internal/catalog"
	"github.com/4rft5/NavidroFM/internal/downloader"
	"github.com/4rft5/NavidroFM/internal/feeds"
	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/4rft5/NavidroFM/internal/subsonic"
	"github.com/4rft5/NavidroFM/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// SyncRun syncs one playlist or every enabled playlist. A second concurrent
// run exits cleanly instead of racing the first over the same directories.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	acquired, err := r.lock.TryAcquire()
	if err != nil {
		return fmt.Errorf("checking run lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", shared.ErrLockHeld, r.lock.Path())
	}
	defer r.lock.Release()

	if err := r.buildEngine(ctx); err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.PhaseFetchCandidates:
				r.writePlain("\n%s\n", update.Message)
			case tasks.PhaseAcquireTracks:
				r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.PhaseScanLibrary, tasks.PhaseResolveTracks, tasks.PhasePublishPlaylist:
				r.writePlain("  %s\n", update.Message)
			case tasks.PhaseComplete:
				r.writePlain("%s\n", successStyle.Render("✓ "+update.Message))
			case tasks.PhaseError:
				r.writePlain("%s\n", warnStyle.Render("✗ "+update.Message))
			}
		}
	}()

	key := cmd.String("playlist")
	if key == "" {
		key = cmd.Args().First()
	}
	if key == "all" {
		key = ""
	}

	var results []*tasks.SyncResult
	if key != "" {
		res, err := r.engine.SyncPlaylist(ctx, key, progressCh)
		close(progressCh)
		if err != nil {
			// A playlist that fails mid-sync is reported, not fatal; only
			// requests the engine cannot start (unknown key, missing feed)
			// abort the run.
			if res == nil {
				return err
			}
			r.logger.Error("playlist sync failed", "playlist", key, "err", err)
		}
		results = append(results, res)
	} else {
		results = r.engine.SyncAll(ctx, progressCh)
		close(progressCh)
	}

	r.writePlain("\n")
	r.writeHeader("Sync Summary")
	for _, res := range results {
		switch {
		case res == nil:
		case res.Err != nil:
			r.writePlain("%s\n", warnStyle.Render(fmt.Sprintf("✗ %s: %v", res.Key, res.Err)))
		case res.Skipped:
			r.writePlain("- %s: disabled\n", res.Key)
		default:
			r.writePlain("%s %s: %d/%d tracks (%d downloaded, %d already in library)\n",
				successStyle.Render("✓"), res.Name, res.Published, res.Requested,
				res.Downloaded, res.AlreadyPresent)
		}
	}

	return nil
}

// buildEngine wires the sync engine from config unless one was injected.
func (r *Runner) buildEngine(ctx context.Context) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if err := r.connect(ctx); err != nil {
		return err
	}
	if r.engine != nil {
		return nil
	}

	cat := catalog.NewClient(r.config.Downloads.YTMusicProxyURL)
	if r.config.Downloads.YTMusicAuthFile != "" {
		cat.SetAuthFile(r.config.Downloads.YTMusicAuthFile)
	}

	dl := downloader.New(
		r.config.Downloads.CookieFile,
		time.Duration(r.config.Downloads.DownloadTimeoutSecs)*time.Second,
		r.logger,
	)

	feedMap := make(map[string]feeds.Feed, len(r.config.Playlists))
	for key, pl := range r.config.Playlists {
		switch pl.Feed {
		case shared.FeedLastFM:
			feedMap[key] = feeds.NewLastFMStation("", r.config.LastFM.Username, pl.Station)
		case shared.FeedListenBrainz:
			feedMap[key] = feeds.NewListenBrainzWeekly("", r.config.ListenBrainz.Username, pl.Patch)
		}
	}

	r.engine = tasks.NewPlaylistSyncer(tasks.SyncerOpts{
		Config:     r.config,
		Server:     r.server,
		Catalog:    cat,
		Downloader: dl,
		Source:     feeds.NewFetcher(r.logger, nil),
		Feeds:      feedMap,
		Logger:     r.logger,
	})
	return nil
}

// connect builds the media-server client and verifies credentials.
func (r *Runner) connect(ctx context.Context) error {
	if r.config.Navidrome.URL == "" || r.config.Navidrome.Username == "" || r.config.Navidrome.Password == "" {
		return fmt.Errorf("%w: navidrome url, username, and password are required", shared.ErrInvalidConfig)
	}
	if r.server == nil {
		r.server = subsonic.NewClient(
			r.config.Navidrome.URL,
			r.config.Navidrome.Username,
			r.config.Navidrome.Password,
		)
	}
	if err := r.server.Ping(ctx); err != nil {
		return fmt.Errorf("%w: media server rejected credentials: %v", shared.ErrAuthFailed, err)
	}
	return nil
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Sync recommendation feeds into server playlists",
		ArgsUsage: "[playlist|all]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Sync only the named playlist (recommended, mix, library, exploration, jams)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: r.SyncRun,
	}
}
