package tasks

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/4rft5/NavidroFM/internal/feeds"
	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/4rft5/NavidroFM/internal/subsonic"
	"golang.org/x/time/rate"
)

type playlistUpdate struct {
	id      string
	songIDs []string
}

type scanCall struct {
	full   bool
	target string
}

// mockServer is an in-memory MediaServer. Entries in libraryAfterScan become
// searchable once StartScan has been called, mimicking files that only appear
// in the index after a scan.
type mockServer struct {
	library          map[string][]models.SearchResult
	libraryAfterScan map[string][]models.SearchResult
	searchErr        error
	searchCalls      int

	playlists    []subsonic.Playlist
	playlistsErr error
	createID     string
	createErr    error
	created      []string
	updateErr    error
	updates      []playlistUpdate

	scans       []scanCall
	scanErr     error
	scanned     bool
	statuses    []subsonic.ScanStatus
	statusCalls int
}

func (m *mockServer) Ping(context.Context) error { return nil }

func (m *mockServer) Search3(_ context.Context, query string, _ int) ([]models.SearchResult, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	results := m.library[query]
	if m.scanned {
		results = append(results, m.libraryAfterScan[query]...)
	}
	return results, nil
}

func (m *mockServer) GetPlaylists(context.Context) ([]subsonic.Playlist, error) {
	if m.playlistsErr != nil {
		return nil, m.playlistsErr
	}
	return m.playlists, nil
}

func (m *mockServer) GetPlaylist(_ context.Context, playlistID string) (*subsonic.PlaylistWithSongs, error) {
	for _, pl := range m.playlists {
		if pl.ID == playlistID {
			return &subsonic.PlaylistWithSongs{Playlist: pl}, nil
		}
	}
	return nil, shared.ErrPlaylistNotFound
}

func (m *mockServer) CreatePlaylist(_ context.Context, name string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, name)
	if m.createID != "" {
		return m.createID, nil
	}
	return "pl-new", nil
}

func (m *mockServer) UpdatePlaylist(_ context.Context, playlistID string, songIDs []string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, playlistUpdate{id: playlistID, songIDs: songIDs})
	return nil
}

func (m *mockServer) StartScan(_ context.Context, fullScan bool, target string) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	m.scans = append(m.scans, scanCall{full: fullScan, target: target})
	m.scanned = true
	return nil
}

func (m *mockServer) GetScanStatus(context.Context) (subsonic.ScanStatus, error) {
	m.statusCalls++
	if len(m.statuses) == 0 {
		return subsonic.ScanStatus{Scanning: false}, nil
	}
	status := m.statuses[0]
	if len(m.statuses) > 1 {
		m.statuses = m.statuses[1:]
	}
	return status, nil
}

type mockCatalog struct {
	songs       map[string][]models.SearchResult
	songErr     error
	searchCalls int
	albums      map[string]*models.AlbumInfo
	albumErr    error
}

func (m *mockCatalog) SearchSongs(_ context.Context, query string) ([]models.SearchResult, error) {
	m.searchCalls++
	if m.songErr != nil {
		return nil, m.songErr
	}
	return m.songs[query], nil
}

func (m *mockCatalog) AlbumDetails(_ context.Context, albumID string) (*models.AlbumInfo, error) {
	if m.albumErr != nil {
		return nil, m.albumErr
	}
	if album, ok := m.albums[albumID]; ok {
		return album, nil
	}
	return &models.AlbumInfo{}, nil
}

type mockDownloader struct {
	failIDs map[string]bool
	calls   []models.AcquiredTrack
	dirs    []string
}

func (m *mockDownloader) Download(_ context.Context, track models.AcquiredTrack, dir string) (string, error) {
	m.calls = append(m.calls, track)
	m.dirs = append(m.dirs, dir)
	if m.failIDs[track.ExternalID] {
		return "", shared.ErrDownloadFailed
	}
	return filepath.Join(dir, track.Artist+" - "+track.Title+".mp3"), nil
}

// mockSource hands out a fixed candidate list, truncated to the over-fetch
// size the real fetcher would collect.
type mockSource struct {
	candidates []models.Candidate
	calls      int
}

func (m *mockSource) FetchCandidates(_ context.Context, _ feeds.Feed, target int) []models.Candidate {
	m.calls++
	n := target * feeds.BackupMultiplier
	if n > len(m.candidates) {
		n = len(m.candidates)
	}
	return m.candidates[:n]
}

type stubFeed struct{ name string }

func (f stubFeed) Name() string { return f.name }

func (f stubFeed) Fetch(context.Context) ([]models.Candidate, error) { return nil, nil }

func testConfig(musicDir string) *shared.Config {
	if musicDir == "" {
		musicDir = "/music/navidrofm"
	}
	return &shared.Config{
		Navidrome: shared.NavidromeConfig{
			URL:       "http://localhost:4533",
			Username:  "admin",
			Password:  "hunter2",
			LibraryID: "1",
		},
		Downloads: shared.DownloadsConfig{
			LibraryRoot: filepath.Dir(musicDir),
			MusicDir:    musicDir,
		},
		Playlists: map[string]shared.PlaylistConfig{
			"mix": {
				Enabled: true,
				Name:    "Recommended Mix",
				Tracks:  3,
				Feed:    shared.FeedLastFM,
				Station: "mix",
				Subdir:  "mix",
			},
			"library": {
				Enabled: true,
				Name:    "Library Mix",
				Tracks:  2,
				Feed:    shared.FeedLastFM,
				Station: "library",
			},
		},
	}
}

type testEnv struct {
	server  *mockServer
	catalog *mockCatalog
	dl      *mockDownloader
	source  *mockSource
	sleeps  []time.Duration
	syncer  *PlaylistSyncer
}

func newTestEnv(t *testing.T, cfg *shared.Config) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig("")
	}

	env := &testEnv{
		server: &mockServer{
			library:          make(map[string][]models.SearchResult),
			libraryAfterScan: make(map[string][]models.SearchResult),
		},
		catalog: &mockCatalog{
			songs:  make(map[string][]models.SearchResult),
			albums: make(map[string]*models.AlbumInfo),
		},
		dl:     &mockDownloader{failIDs: make(map[string]bool)},
		source: &mockSource{},
	}

	feedMap := make(map[string]feeds.Feed, len(cfg.Playlists))
	for key := range cfg.Playlists {
		feedMap[key] = stubFeed{name: key}
	}

	env.syncer = NewPlaylistSyncer(SyncerOpts{
		Config:     cfg,
		Server:     env.server,
		Catalog:    env.catalog,
		Downloader: env.dl,
		Source:     env.source,
		Feeds:      feedMap,
		Logger:     shared.NewLogger(io.Discard),
		Limiter:    rate.NewLimiter(rate.Inf, 0),
		Sleep:      func(d time.Duration) { env.sleeps = append(env.sleeps, d) },
	})
	return env
}

// seedCatalog registers a perfect catalog match for the candidate so an
// acquisition attempt succeeds via download.
func (env *testEnv) seedCatalog(cand models.Candidate, externalID string) {
	query := cand.Artist + " " + cand.Title
	env.catalog.songs[query] = []models.SearchResult{{
		ExternalID: externalID,
		Artist:     cand.Artist,
		Title:      cand.Title,
	}}
}

// seedLibrary makes the candidate resolvable in the library, optionally only
// after a scan has run.
func (env *testEnv) seedLibrary(cand models.Candidate, songID string, afterScan bool) {
	query := cand.Artist + " " + cand.Title
	result := models.SearchResult{ExternalID: songID, Artist: cand.Artist, Title: cand.Title}
	if afterScan {
		env.server.libraryAfterScan[query] = append(env.server.libraryAfterScan[query], result)
	} else {
		env.server.library[query] = append(env.server.library[query], result)
	}
}
