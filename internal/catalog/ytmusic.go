// Package catalog queries the external music catalog used for acquisition.
//
// Communicates with a ytmusicapi proxy server over HTTP. The proxy wraps the
// ytmusicapi Python library and exposes search and album-details endpoints;
// the auth file path, when configured, is passed via the X-Auth-File header
// on each request.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
)

const defaultBaseURL = "http://localhost:8080"

// searchLimit bounds how many ranked results one search returns.
const searchLimit = 10

// Client is an HTTP client for the ytmusicapi proxy.
type Client struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewClient creates a catalog client. An empty baseURL selects the default
// local proxy address.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetAuthFile configures the browser/oauth auth file forwarded to the proxy.
func (c *Client) SetAuthFile(path string) {
	c.authFile = path
}

type ytArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type ytThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SearchSongs performs a ranked song search for the given free-text query.
func (c *Client) SearchSongs(ctx context.Context, query string) ([]models.SearchResult, error) {
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs&limit=%d", url.QueryEscape(query), searchLimit)

	var raw []struct {
		VideoID string     `json:"videoId"`
		Title   string     `json:"title"`
		Artists []ytArtist `json:"artists"`
		Album   *struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"album"`
		Thumbnails []ytThumbnail `json:"thumbnails"`
	}

	if err := c.doRequest(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(raw))
	for _, entry := range raw {
		if entry.VideoID == "" {
			continue
		}

		r := models.SearchResult{
			ExternalID: entry.VideoID,
			Title:      entry.Title,
			Artist:     joinArtists(entry.Artists),
			CoverURL:   coverFromThumbnails(entry.Thumbnails),
		}
		if entry.Album != nil {
			r.Album = entry.Album.Name
			r.AlbumID = entry.Album.ID
		}

		results = append(results, r)
	}

	return results, nil
}

// AlbumDetails fetches an album's release year and ordered track listing.
func (c *Client) AlbumDetails(ctx context.Context, albumID string) (*models.AlbumInfo, error) {
	endpoint := fmt.Sprintf("/api/albums/%s", url.PathEscape(albumID))

	var raw struct {
		Title       string `json:"title"`
		Year        string `json:"year"`
		ReleaseDate *struct {
			Year int `json:"year"`
		} `json:"releaseDate"`
		Tracks []struct {
			VideoID string `json:"videoId"`
			Title   string `json:"title"`
		} `json:"tracks"`
	}

	if err := c.doRequest(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	info := &models.AlbumInfo{
		Title: raw.Title,
		Year:  raw.Year,
	}
	if info.Year == "" && raw.ReleaseDate != nil && raw.ReleaseDate.Year != 0 {
		info.Year = fmt.Sprintf("%d", raw.ReleaseDate.Year)
	}
	for _, t := range raw.Tracks {
		info.Tracks = append(info.Tracks, models.AlbumTrackRef{
			ExternalID: t.VideoID,
			Title:      t.Title,
		})
	}

	return info, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if c.authFile != "" {
		req.Header.Set("X-Auth-File", c.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: catalog error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: catalog error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}

	return nil
}

func joinArtists(artists []ytArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// coverFromThumbnails picks the largest thumbnail and strips the size suffix
// so the full-resolution art is fetched.
func coverFromThumbnails(thumbs []ytThumbnail) string {
	if len(thumbs) == 0 {
		return ""
	}
	cover := thumbs[len(thumbs)-1].URL
	if i := strings.Index(cover, "=w"); i >= 0 {
		cover = cover[:i]
	}
	return cover
}
