package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
)

const defaultLastFMBaseURL = "https://www.last.fm"

// lastFMTrack mirrors one entry of the station player JSON.
type lastFMTrack struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album string `json:"album"`
}

// LastFMStation fetches a user's station feed (recommended, mix, library).
// The station endpoint returns a rotating window of tracks, so repeated
// fetches yield overlapping but not identical sets.
type LastFMStation struct {
	baseURL    string
	user       string
	station    string
	httpClient *http.Client
}

// NewLastFMStation creates a station feed for the given user and station
// kind. An empty baseURL selects the public Last.fm endpoint.
func NewLastFMStation(baseURL, user, station string) *LastFMStation {
	if baseURL == "" {
		baseURL = defaultLastFMBaseURL
	}
	return &LastFMStation{
		baseURL:    baseURL,
		user:       user,
		station:    station,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the feed in logs.
func (s *LastFMStation) Name() string {
	return fmt.Sprintf("lastfm/%s", s.station)
}

// Fetch performs one station query.
func (s *LastFMStation) Fetch(ctx context.Context) ([]models.Candidate, error) {
	url := fmt.Sprintf("%s/player/station/user/%s/%s", s.baseURL, s.user, s.station)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: station returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		Playlist []lastFMTrack `json:"playlist"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding station response: %v", shared.ErrAPIRequest, err)
	}

	candidates := make([]models.Candidate, 0, len(payload.Playlist))
	for _, t := range payload.Playlist {
		artist := ""
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		candidates = append(candidates, models.Candidate{
			Artist: artist,
			Title:  t.Name,
			Album:  t.Album,
		})
	}

	return candidates, nil
}
