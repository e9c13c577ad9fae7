package shared

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Feed kinds accepted by PlaylistConfig.Feed.
const (
	FeedLastFM       = "lastfm-station"
	FeedListenBrainz = "listenbrainz"
)

// ListenBrainz caps created-for playlists at 50 tracks.
const listenBrainzMaxTracks = 50

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Navidrome    NavidromeConfig           `toml:"navidrome"`
	LastFM       LastFMConfig              `toml:"lastfm"`
	ListenBrainz ListenBrainzConfig        `toml:"listenbrainz"`
	Downloads    DownloadsConfig           `toml:"downloads"`
	Playlists    map[string]PlaylistConfig `toml:"playlists"`
}

// NavidromeConfig contains media-server connection settings.
type NavidromeConfig struct {
	URL       string `toml:"url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	LibraryID string `toml:"library_id"`
}

// LastFMConfig identifies the Last.fm user whose station feeds are synced.
type LastFMConfig struct {
	Username string `toml:"username"`
}

// ListenBrainzConfig identifies the ListenBrainz user whose created-for
// playlists are synced. Optional; leave empty to disable those feeds.
type ListenBrainzConfig struct {
	Username string `toml:"username"`
}

// DownloadsConfig contains acquisition settings.
type DownloadsConfig struct {
	// LibraryRoot is the media server's library mount; scan targets are
	// expressed relative to it.
	LibraryRoot         string `toml:"library_root"`
	MusicDir            string `toml:"music_dir"`
	CookieFile          string `toml:"cookie_file"`
	YTMusicProxyURL     string `toml:"ytmusic_proxy_url"`
	YTMusicAuthFile     string `toml:"ytmusic_auth_file"`
	DownloadTimeoutSecs int    `toml:"download_timeout_secs"`
	// ScanTimeoutSecs bounds the library scan-status poll. 0 keeps the
	// historical unbounded wait.
	ScanTimeoutSecs int `toml:"scan_timeout_secs"`
}

// PlaylistConfig describes one managed playlist.
type PlaylistConfig struct {
	Enabled bool   `toml:"enabled"`
	Name    string `toml:"name"`
	Tracks  int    `toml:"tracks"`
	Feed    string `toml:"feed"`
	// Station selects the Last.fm station kind (recommended, mix, library).
	Station string `toml:"station"`
	// Patch selects the ListenBrainz source patch (weekly-jams, weekly-exploration).
	Patch string `toml:"patch"`
	// Subdir is the download directory under music_dir. Empty means the
	// playlist is built from library-resident tracks only, with no downloads.
	Subdir   string `toml:"subdir"`
	Schedule string `toml:"schedule"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto the config. Environment values
// win over file values so container deployments can keep secrets out of the
// TOML file. Playlist toggles follow the upper-cased playlist key
// (RECOMMENDED, MIX_TRACKS, JAMS_SCHEDULE, ...).
func (c *Config) ApplyEnv() {
	setString(&c.Navidrome.URL, "NAVIDROME_URL")
	setString(&c.Navidrome.Username, "NAVIDROME_USERNAME")
	setString(&c.Navidrome.Password, "NAVIDROME_PASSWORD")
	setString(&c.Navidrome.LibraryID, "NAVIDROME_LIBRARY_ID")
	setString(&c.LastFM.Username, "LASTFM_USERNAME")
	setString(&c.ListenBrainz.Username, "LZ_USERNAME")
	setString(&c.Downloads.LibraryRoot, "LIBRARY_ROOT")
	setString(&c.Downloads.MusicDir, "MUSIC_DIR")
	setString(&c.Downloads.CookieFile, "COOKIE_FILE")
	setString(&c.Downloads.YTMusicProxyURL, "YTMUSIC_PROXY_URL")
	setString(&c.Downloads.YTMusicAuthFile, "YTMUSIC_AUTH_FILE")

	for key, pl := range c.Playlists {
		prefix := strings.ToUpper(key)
		if v, ok := os.LookupEnv(prefix); ok {
			pl.Enabled = strings.EqualFold(v, "true")
		}
		if v, ok := os.LookupEnv(prefix + "_TRACKS"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				pl.Tracks = n
			}
		}
		setString(&pl.Schedule, prefix+"_SCHEDULE")
		c.Playlists[key] = pl
	}

	c.Navidrome.URL = strings.TrimRight(c.Navidrome.URL, "/")
}

// Validate checks required settings and normalizes per-feed limits.
func (c *Config) Validate() error {
	if c.Navidrome.URL == "" || c.Navidrome.Username == "" || c.Navidrome.Password == "" {
		return fmt.Errorf("%w: navidrome url, username, and password are required", ErrInvalidConfig)
	}

	for key, pl := range c.Playlists {
		if !pl.Enabled {
			continue
		}
		switch pl.Feed {
		case FeedLastFM:
			if c.LastFM.Username == "" {
				return fmt.Errorf("%w: playlist %q requires lastfm.username", ErrInvalidConfig, key)
			}
		case FeedListenBrainz:
			if c.ListenBrainz.Username == "" {
				return fmt.Errorf("%w: playlist %q requires listenbrainz.username", ErrInvalidConfig, key)
			}
			if pl.Tracks > listenBrainzMaxTracks {
				pl.Tracks = listenBrainzMaxTracks
				c.Playlists[key] = pl
			}
		default:
			return fmt.Errorf("%w: playlist %q has unknown feed %q", ErrInvalidConfig, key, pl.Feed)
		}
		if pl.Tracks <= 0 {
			return fmt.Errorf("%w: playlist %q needs a positive track count", ErrInvalidConfig, key)
		}
	}

	return nil
}

// PlaylistKeys returns the managed playlist keys in sync order: the Last.fm
// stations first, then the ListenBrainz weeklies, matching the order the
// playlists appear in the example config. Keys outside that set follow in
// alphabetical order so runs stay deterministic.
func (c *Config) PlaylistKeys() []string {
	ordered := []string{"recommended", "mix", "library", "exploration", "jams"}
	keys := make([]string, 0, len(c.Playlists))
	for _, k := range ordered {
		if _, ok := c.Playlists[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range c.Playlists {
		known := false
		for _, o := range ordered {
			if k == o {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
