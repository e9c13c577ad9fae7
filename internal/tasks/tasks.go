package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/4rft5/NavidroFM/internal/feeds"
	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/4rft5/NavidroFM/internal/subsonic"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// MediaServer is the Subsonic-compatible server surface the engine needs.
type MediaServer interface {
	Ping(ctx context.Context) error
	Search3(ctx context.Context, query string, songCount int) ([]models.SearchResult, error)
	GetPlaylists(ctx context.Context) ([]subsonic.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (*subsonic.PlaylistWithSongs, error)
	CreatePlaylist(ctx context.Context, name string) (string, error)
	UpdatePlaylist(ctx context.Context, playlistID string, songIDs []string) error
	StartScan(ctx context.Context, fullScan bool, target string) error
	GetScanStatus(ctx context.Context) (subsonic.ScanStatus, error)
}

// Catalog searches the external music catalog and fetches album metadata.
type Catalog interface {
	SearchSongs(ctx context.Context, query string) ([]models.SearchResult, error)
	AlbumDetails(ctx context.Context, albumID string) (*models.AlbumInfo, error)
}

// Downloader fetches a matched track's audio into a directory.
type Downloader interface {
	Download(ctx context.Context, track models.AcquiredTrack, dir string) (string, error)
}

// CandidateSource collects deduplicated candidates from a feed.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, feed feeds.Feed, target int) []models.Candidate
}

// SyncEngine is the playlist sync surface consumed by the CLI.
type SyncEngine interface {
	SyncPlaylist(ctx context.Context, key string, progress chan<- ProgressUpdate) (*SyncResult, error)
	SyncAll(ctx context.Context, progress chan<- ProgressUpdate) []*SyncResult
}

// SyncResult summarizes one playlist sync.
type SyncResult struct {
	Key        string
	Name       string
	PlaylistID string

	Requested      int
	Downloaded     int
	AlreadyPresent int
	Published      int

	Skipped bool
	Err     error
}

// librarySearchCount caps song hits requested per library search.
const librarySearchCount = 10

// scanPollInterval is how often the scan-status endpoint is polled.
const scanPollInterval = 2 * time.Second

// PlaylistSyncer implements SyncEngine against a media server, an external
// catalog, and a downloader.
type PlaylistSyncer struct {
	cfg     *shared.Config
	server  MediaServer
	catalog Catalog
	dl      Downloader
	source  CandidateSource
	feeds   map[string]feeds.Feed
	logger  *log.Logger

	// limiter paces acquisition attempts; sleep and pollInterval exist so
	// tests can collapse the waits.
	limiter      *rate.Limiter
	sleep        func(time.Duration)
	pollInterval time.Duration
	scanTimeout  time.Duration
}

// SyncerOpts carries the dependencies for NewPlaylistSyncer. Limiter and
// Sleep are optional.
type SyncerOpts struct {
	Config     *shared.Config
	Server     MediaServer
	Catalog    Catalog
	Downloader Downloader
	Source     CandidateSource
	Feeds      map[string]feeds.Feed
	Logger     *log.Logger
	Limiter    *rate.Limiter
	Sleep      func(time.Duration)
}

// NewPlaylistSyncer creates the engine. The default limiter allows one
// acquisition attempt per second.
func NewPlaylistSyncer(opts SyncerOpts) *PlaylistSyncer {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &PlaylistSyncer{
		cfg:          opts.Config,
		server:       opts.Server,
		catalog:      opts.Catalog,
		dl:           opts.Downloader,
		source:       opts.Source,
		feeds:        opts.Feeds,
		logger:       opts.Logger,
		limiter:      limiter,
		sleep:        sleep,
		pollInterval: scanPollInterval,
		scanTimeout:  time.Duration(opts.Config.Downloads.ScanTimeoutSecs) * time.Second,
	}
}

// SyncPlaylist runs one playlist end to end. Returns an error only when the
// playlist cannot be synced at all (unknown key, missing feed, publication
// failure); individual track failures are absorbed by the backup pool.
func (s *PlaylistSyncer) SyncPlaylist(ctx context.Context, key string, progress chan<- ProgressUpdate) (*SyncResult, error) {
	pl, ok := s.cfg.Playlists[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown playlist %q", shared.ErrInvalidArgument, key)
	}

	logger := shared.WithLogger(s.logger, "playlist", key)

	result := &SyncResult{Key: key, Name: pl.Name, Requested: pl.Tracks}
	if !pl.Enabled {
		logger.Debug("playlist disabled, skipping")
		result.Skipped = true
		return result, nil
	}

	feed, ok := s.feeds[key]
	if !ok {
		return nil, fmt.Errorf("%w: no feed wired for playlist %q", shared.ErrInvalidArgument, key)
	}

	logger.Info("syncing playlist", "name", pl.Name, "tracks", pl.Tracks)
	sendUpdate(progress, fetchUpdate(pl.Name, pl.Tracks))

	candidates := s.source.FetchCandidates(ctx, feed, pl.Tracks)
	if len(candidates) == 0 {
		logger.Warn("no candidates fetched, leaving playlist untouched")
		return result, nil
	}

	var songIDs []string
	if pl.Subdir == "" {
		songIDs = s.resolveFromLibrary(ctx, candidates, pl.Tracks, progress)
		result.AlreadyPresent = len(songIDs)
	} else {
		dir := filepath.Join(s.cfg.Downloads.MusicDir, pl.Subdir)
		s.rotateDirectory(ctx, dir)

		outcome := s.Reconcile(ctx, candidates, pl.Tracks, dir, progress)

		var acquired []models.AcquiredTrack
		for _, r := range outcome.Resolved {
			switch r.Status {
			case StatusAlreadyPresent:
				songIDs = append(songIDs, r.SongID)
				result.AlreadyPresent++
			case StatusAcquired:
				acquired = append(acquired, *r.Track)
			}
		}
		result.Downloaded = len(acquired)

		if len(acquired) > 0 {
			sendUpdate(progress, scanUpdate(len(acquired)))
			songIDs = append(songIDs, s.Settle(ctx, acquired, dir, progress)...)
		}
	}

	sendUpdate(progress, publishUpdate(pl.Name, len(songIDs)))
	id, err := s.Publish(ctx, pl.Name, songIDs)
	if err != nil {
		result.Err = err
		sendUpdate(progress, errorUpdate(pl.Name, err))
		return result, fmt.Errorf("publishing %q: %w", pl.Name, err)
	}

	result.PlaylistID = id
	result.Published = len(songIDs)
	sendUpdate(progress, completeUpdate(pl.Name, len(songIDs)))
	logger.Info("playlist synced", "published", len(songIDs), "downloaded", result.Downloaded)
	return result, nil
}

// SyncAll syncs every configured playlist in order. A failing playlist is
// logged and does not stop the others.
func (s *PlaylistSyncer) SyncAll(ctx context.Context, progress chan<- ProgressUpdate) []*SyncResult {
	var results []*SyncResult
	for _, key := range s.cfg.PlaylistKeys() {
		res, err := s.SyncPlaylist(ctx, key, progress)
		if err != nil {
			s.logger.Error("playlist sync failed", "playlist", key, "err", err)
			if res == nil {
				res = &SyncResult{Key: key, Err: err}
			}
		}
		results = append(results, res)
	}
	return results
}

// resolveFromLibrary builds a song-id list for playlists that never download:
// every candidate must already be in the library or it is skipped.
func (s *PlaylistSyncer) resolveFromLibrary(ctx context.Context, candidates []models.Candidate, target int, progress chan<- ProgressUpdate) []string {
	var songIDs []string
	for i, cand := range candidates {
		if len(songIDs) >= target {
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}
		sendUpdate(progress, acquireUpdate(i+1, target, cand.Artist, cand.Title))

		id, ok := s.libraryLookup(ctx, cand.Artist, cand.Title)
		if !ok {
			s.logger.Debug("not in library, skipping", "artist", cand.Artist, "title", cand.Title)
			continue
		}
		songIDs = append(songIDs, id)
	}
	return songIDs
}

// rotateDirectory clears last week's downloads so the directory only ever
// holds the current batch. After deleting files it empties the managed
// playlists that may still reference them and gives the media server a short
// pause to notice the removals.
func (s *PlaylistSyncer) rotateDirectory(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o777); err != nil {
				s.logger.Warn("could not create download directory", "dir", dir, "err", err)
				return
			}
			// MkdirAll applies the umask; the scanner runs as another user.
			if err := os.Chmod(dir, 0o777); err != nil {
				s.logger.Warn("could not chmod download directory", "dir", dir, "err", err)
			}
			s.logger.Info("created download directory", "dir", dir)
		} else {
			s.logger.Warn("could not read download directory", "dir", dir, "err", err)
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("could not remove old file", "file", path, "err", err)
			continue
		}
		removed++
	}
	if removed == 0 {
		return
	}

	s.logger.Info("rotated download directory", "dir", dir, "removed", removed)
	s.clearManagedPlaylists(ctx)
	s.sleep(clampSeconds(removed/2, 5, 20))
}

// clearManagedPlaylists empties every server playlist whose name matches a
// configured playlist, so deleted files do not linger as broken entries.
func (s *PlaylistSyncer) clearManagedPlaylists(ctx context.Context) {
	playlists, err := s.server.GetPlaylists(ctx)
	if err != nil {
		s.logger.Warn("could not list playlists for cleanup", "err", err)
		return
	}

	managed := make(map[string]struct{}, len(s.cfg.Playlists))
	for _, pl := range s.cfg.Playlists {
		managed[pl.Name] = struct{}{}
	}

	for _, pl := range playlists {
		if _, ok := managed[pl.Name]; !ok {
			continue
		}
		if pl.SongCount == 0 {
			continue
		}
		if err := s.server.UpdatePlaylist(ctx, pl.ID, nil); err != nil {
			s.logger.Warn("could not clear playlist", "playlist", pl.Name, "err", err)
		} else {
			s.logger.Info("cleared stale playlist", "playlist", pl.Name)
		}
	}
}
