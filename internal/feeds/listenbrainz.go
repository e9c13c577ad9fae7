package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
)

const defaultListenBrainzBaseURL = "https://api.listenbrainz.org"

// JSPF extension keys used by the ListenBrainz API.
const (
	jspfPlaylistExt = "https://musicbrainz.org/doc/jspf#playlist"
	jspfTrackExt    = "https://musicbrainz.org/doc/jspf#track"
)

// ListenBrainzWeekly fetches the current created-for playlist of a given
// source patch (weekly-jams, weekly-exploration, daily-jams). Unlike the
// station feeds, a created-for playlist is a fixed set: one fetch returns
// everything, so the fetcher's repeat-query loop terminates on the first
// zero-new pass.
type ListenBrainzWeekly struct {
	baseURL    string
	user       string
	patch      string
	httpClient *http.Client
	now        func() time.Time
}

// NewListenBrainzWeekly creates a created-for playlist feed. An empty baseURL
// selects the public ListenBrainz API.
func NewListenBrainzWeekly(baseURL, user, patch string) *ListenBrainzWeekly {
	if baseURL == "" {
		baseURL = defaultListenBrainzBaseURL
	}
	return &ListenBrainzWeekly{
		baseURL:    baseURL,
		user:       user,
		patch:      patch,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Name identifies the feed in logs.
func (f *ListenBrainzWeekly) Name() string {
	return fmt.Sprintf("listenbrainz/%s", f.patch)
}

// Fetch locates the current period's playlist for the configured patch and
// returns its tracks.
func (f *ListenBrainzWeekly) Fetch(ctx context.Context) ([]models.Candidate, error) {
	playlistID, err := f.currentPlaylistID(ctx)
	if err != nil {
		return nil, err
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: no current %s playlist", shared.ErrPlaylistNotFound, f.patch)
	}
	return f.playlistTracks(ctx, playlistID)
}

type createdForResponse struct {
	Playlists []struct {
		Playlist struct {
			Date       string `json:"date"`
			Identifier string `json:"identifier"`
			Extension  map[string]struct {
				AdditionalMetadata struct {
					AlgorithmMetadata struct {
						SourcePatch string `json:"source_patch"`
					} `json:"algorithm_metadata"`
				} `json:"additional_metadata"`
			} `json:"extension"`
		} `json:"playlist"`
	} `json:"playlists"`
}

// currentPlaylistID finds the playlist whose source patch matches and whose
// creation date falls in the current ISO week (or, for daily patches, the
// current day of year).
func (f *ListenBrainzWeekly) currentPlaylistID(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/1/user/%s/playlists/createdfor", f.baseURL, f.user)

	var payload createdForResponse
	if err := f.getJSON(ctx, url, &payload); err != nil {
		return "", err
	}

	now := f.now()
	_, currentWeek := now.ISOWeek()
	currentDay := now.YearDay()
	daily := strings.HasPrefix(f.patch, "daily-")

	for _, item := range payload.Playlists {
		pl := item.Playlist
		ext, ok := pl.Extension[jspfPlaylistExt]
		if !ok || ext.AdditionalMetadata.AlgorithmMetadata.SourcePatch != f.patch {
			continue
		}
		if pl.Date == "" {
			continue
		}

		created, err := time.Parse(time.RFC3339, pl.Date)
		if err != nil {
			continue
		}

		if daily {
			if created.YearDay() != currentDay {
				continue
			}
		} else {
			_, week := created.ISOWeek()
			if week != currentWeek {
				continue
			}
		}

		parts := strings.Split(pl.Identifier, "/")
		return parts[len(parts)-1], nil
	}

	return "", nil
}

type playlistResponse struct {
	Playlist struct {
		Track []struct {
			Title     string `json:"title"`
			Creator   string `json:"creator"`
			Album     string `json:"album"`
			Extension map[string]struct {
				AdditionalMetadata struct {
					Artists []struct {
						ArtistCreditName string `json:"artist_credit_name"`
					} `json:"artists"`
				} `json:"additional_metadata"`
			} `json:"extension"`
		} `json:"track"`
	} `json:"playlist"`
}

// playlistTracks fetches and converts the playlist's JSPF tracks. When the
// track extension carries multiple artist credits they are joined into a
// single comma-separated artist string.
func (f *ListenBrainzWeekly) playlistTracks(ctx context.Context, playlistID string) ([]models.Candidate, error) {
	url := fmt.Sprintf("%s/1/playlist/%s", f.baseURL, playlistID)

	var payload playlistResponse
	if err := f.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(payload.Playlist.Track))
	for _, t := range payload.Playlist.Track {
		if t.Title == "" || t.Creator == "" {
			continue
		}

		artist := t.Creator
		if ext, ok := t.Extension[jspfTrackExt]; ok && len(ext.AdditionalMetadata.Artists) > 1 {
			var names []string
			for _, a := range ext.AdditionalMetadata.Artists {
				if a.ArtistCreditName != "" {
					names = append(names, a.ArtistCreditName)
				}
			}
			if len(names) > 0 {
				artist = strings.Join(names, ", ")
			}
		}

		candidates = append(candidates, models.Candidate{
			Artist: artist,
			Title:  t.Title,
			Album:  t.Album,
		})
	}

	return candidates, nil
}

func (f *ListenBrainzWeekly) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: listenbrainz returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding listenbrainz response: %v", shared.ErrAPIRequest, err)
	}

	return nil
}
