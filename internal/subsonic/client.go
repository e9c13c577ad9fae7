// Package subsonic implements the Subsonic-style media-server client used to
// search the library, manage playlists, and drive scans on Navidrome.
//
// Authentication uses the salted-token scheme: a random salt is generated per
// client and t = md5(password + salt) is sent alongside it on every request.
// Responses are JSON envelopes under "subsonic-response"; any status other
// than "ok" is treated as the server signaling a command failure.
package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
)

const (
	apiVersion = "1.16.1"
	clientName = "navidrofm"
)

// Playlist is a server-side playlist reference.
type Playlist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
}

// ScanStatus reports the server's library scan state.
type ScanStatus struct {
	Scanning bool  `json:"scanning"`
	Count    int64 `json:"count"`
}

// Client talks to one Subsonic-compatible server.
type Client struct {
	baseURL    string
	username   string
	token      string
	salt       string
	httpClient *http.Client
}

// NewClient creates a client for the given server. The password is consumed
// immediately to derive the auth token and is not retained.
func NewClient(baseURL, username, password string) *Client {
	salt := shared.GenerateSalt()
	sum := md5.Sum([]byte(password + salt))

	return &Client{
		baseURL:    baseURL,
		username:   username,
		token:      hex.EncodeToString(sum[:]),
		salt:       salt,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping verifies connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "ping", nil, nil)
}

// Search3 queries the library for songs matching the free-text query. Artist
// and album hits are suppressed; only songs are requested.
func (c *Client) Search3(ctx context.Context, query string, songCount int) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("artistCount", "0")
	params.Set("albumCount", "0")
	params.Set("songCount", strconv.Itoa(songCount))

	var payload struct {
		SearchResult3 struct {
			Song []struct {
				ID     string `json:"id"`
				Title  string `json:"title"`
				Artist string `json:"artist"`
				Album  string `json:"album"`
				Year   int    `json:"year"`
				Track  int    `json:"track"`
			} `json:"song"`
		} `json:"searchResult3"`
	}
	if err := c.get(ctx, "search3", params, &payload); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(payload.SearchResult3.Song))
	for _, s := range payload.SearchResult3.Song {
		r := models.SearchResult{
			ExternalID:  s.ID,
			Title:       s.Title,
			Artist:      s.Artist,
			Album:       s.Album,
			TrackNumber: s.Track,
		}
		if s.Year != 0 {
			r.Year = strconv.Itoa(s.Year)
		}
		results = append(results, r)
	}

	return results, nil
}

// PlaylistWithSongs is a playlist plus its resolved entries.
type PlaylistWithSongs struct {
	Playlist
	Entries []models.SearchResult
}

// GetPlaylist fetches one playlist with its full track listing.
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*PlaylistWithSongs, error) {
	params := url.Values{}
	params.Set("id", playlistID)

	var payload struct {
		Playlist struct {
			Playlist
			Entry []struct {
				ID       string `json:"id"`
				Title    string `json:"title"`
				Artist   string `json:"artist"`
				Album    string `json:"album"`
				Year     int    `json:"year"`
				Track    int    `json:"track"`
				Duration int    `json:"duration"`
				Path     string `json:"path"`
			} `json:"entry"`
		} `json:"playlist"`
	}
	if err := c.get(ctx, "getPlaylist", params, &payload); err != nil {
		return nil, err
	}

	result := &PlaylistWithSongs{Playlist: payload.Playlist.Playlist}
	for _, e := range payload.Playlist.Entry {
		entry := models.SearchResult{
			ExternalID:  e.ID,
			Title:       e.Title,
			Artist:      e.Artist,
			Album:       e.Album,
			TrackNumber: e.Track,
			Duration:    e.Duration,
			Path:        e.Path,
		}
		if e.Year != 0 {
			entry.Year = strconv.Itoa(e.Year)
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// GetPlaylists lists all playlists visible to the authenticated user.
func (c *Client) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	var payload struct {
		Playlists struct {
			Playlist []Playlist `json:"playlist"`
		} `json:"playlists"`
	}
	if err := c.get(ctx, "getPlaylists", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Playlists.Playlist, nil
}

// CreatePlaylist creates an empty playlist and returns its id.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("name", name)

	var payload struct {
		Playlist Playlist `json:"playlist"`
	}
	if err := c.get(ctx, "createPlaylist", params, &payload); err != nil {
		return "", err
	}
	if payload.Playlist.ID == "" {
		return "", fmt.Errorf("%w: server did not return a playlist id", shared.ErrAPIRequest)
	}
	return payload.Playlist.ID, nil
}

// UpdatePlaylist replaces the playlist's full contents with songIDs in one
// call. An empty slice clears the playlist. The createPlaylist endpoint is
// overloaded for this on the Subsonic API: passing playlistId without songId
// parameters empties it.
func (c *Client) UpdatePlaylist(ctx context.Context, playlistID string, songIDs []string) error {
	params := url.Values{}
	params.Set("playlistId", playlistID)
	for _, id := range songIDs {
		params.Add("songId", id)
	}
	return c.get(ctx, "createPlaylist", params, nil)
}

// StartScan triggers a library scan. When target is non-empty the scan is
// scoped to that "libraryID:relativePath" location.
func (c *Client) StartScan(ctx context.Context, fullScan bool, target string) error {
	params := url.Values{}
	params.Set("fullScan", strconv.FormatBool(fullScan))
	if target != "" {
		params.Set("target", target)
	}
	return c.get(ctx, "startScan", params, nil)
}

// GetScanStatus reports whether a scan is in progress.
func (c *Client) GetScanStatus(ctx context.Context) (ScanStatus, error) {
	var payload struct {
		ScanStatus ScanStatus `json:"scanStatus"`
	}
	if err := c.get(ctx, "getScanStatus", nil, &payload); err != nil {
		return ScanStatus{}, err
	}
	return payload.ScanStatus, nil
}

// get performs one API call, verifies the envelope status, and decodes the
// envelope body into payload when non-nil.
func (c *Client) get(ctx context.Context, endpoint string, extra url.Values, payload any) error {
	params := url.Values{}
	params.Set("u", c.username)
	params.Set("t", c.token)
	params.Set("s", c.salt)
	params.Set("v", apiVersion)
	params.Set("c", clientName)
	params.Set("f", "json")
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	reqURL := fmt.Sprintf("%s/rest/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	var envelope struct {
		Response json.RawMessage `json:"subsonic-response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", shared.ErrAPIRequest, endpoint, err)
	}

	var status struct {
		Status string `json:"status"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(envelope.Response, &status); err != nil {
		return fmt.Errorf("%w: decoding %s envelope: %v", shared.ErrAPIRequest, endpoint, err)
	}
	if status.Status != "ok" {
		if status.Error != nil {
			return fmt.Errorf("%w: %s: %s (code %d)", shared.ErrAPIRequest, endpoint, status.Error.Message, status.Error.Code)
		}
		return fmt.Errorf("%w: %s: status %q", shared.ErrAPIRequest, endpoint, status.Status)
	}

	if payload != nil {
		if err := json.Unmarshal(envelope.Response, payload); err != nil {
			return fmt.Errorf("%w: decoding %s payload: %v", shared.ErrAPIRequest, endpoint, err)
		}
	}

	return nil
}
