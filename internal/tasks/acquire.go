package tasks

import (
	"context"

	"github.com/4rft5/NavidroFM/internal/matching"
	"github.com/4rft5/NavidroFM/internal/models"
)

// AcquireStatus classifies the outcome of one acquisition attempt.
type AcquireStatus int

const (
	// StatusAcquired means the track was downloaded into the target directory.
	StatusAcquired AcquireStatus = iota
	// StatusAlreadyPresent means a library search satisfied the candidate.
	StatusAlreadyPresent
	// StatusNotFound means neither the library nor the catalog had a match.
	StatusNotFound
	// StatusDownloadFailed means a catalog match existed but the download failed.
	StatusDownloadFailed
)

func (s AcquireStatus) String() string {
	switch s {
	case StatusAcquired:
		return "acquired"
	case StatusAlreadyPresent:
		return "already present"
	case StatusNotFound:
		return "not found"
	case StatusDownloadFailed:
		return "download failed"
	default:
		return "unknown"
	}
}

// AcquireResult is the outcome of acquiring one candidate. SongID is set for
// StatusAlreadyPresent; Track is set for StatusAcquired.
type AcquireResult struct {
	Status AcquireStatus
	SongID string
	Track  *models.AcquiredTrack
}

// Acquire obtains one candidate: a library hit short-circuits, otherwise the
// catalog is searched, the best match enriched with album metadata, and the
// audio downloaded into dir.
func (s *PlaylistSyncer) Acquire(ctx context.Context, cand models.Candidate, dir string) AcquireResult {
	if id, ok := s.libraryLookup(ctx, cand.Artist, cand.Title); ok {
		s.logger.Debug("already in library", "artist", cand.Artist, "title", cand.Title, "id", id)
		return AcquireResult{Status: StatusAlreadyPresent, SongID: id}
	}

	results, err := s.catalog.SearchSongs(ctx, cand.Artist+" "+cand.Title)
	if err != nil {
		s.logger.Warn("catalog search failed", "artist", cand.Artist, "title", cand.Title, "err", err)
		return AcquireResult{Status: StatusNotFound}
	}

	idx, score := matching.BestMatch(cand.Artist, cand.Title, results)
	if idx < 0 {
		s.logger.Info("no acceptable catalog match", "artist", cand.Artist, "title", cand.Title)
		return AcquireResult{Status: StatusNotFound}
	}
	match := results[idx]
	s.logger.Debug("catalog match", "artist", match.Artist, "title", match.Title, "score", score)

	track := models.AcquiredTrack{
		ExternalID:  match.ExternalID,
		Title:       match.Title,
		Artist:      match.Artist,
		Album:       match.Album,
		CoverURL:    match.CoverURL,
		TrackNumber: 1,
	}
	if track.Artist == "" {
		track.Artist = cand.Artist
	}
	if track.Album == "" {
		track.Album = track.Title
	}
	s.enrich(ctx, &track, match.AlbumID)

	if _, err := s.dl.Download(ctx, track, dir); err != nil {
		s.logger.Warn("download failed", "artist", track.Artist, "title", track.Title, "err", err)
		return AcquireResult{Status: StatusDownloadFailed}
	}

	return AcquireResult{Status: StatusAcquired, Track: &track}
}

// enrich fills in album title, release year, and track number from the
// catalog's album details. Failures leave the defaults in place.
func (s *PlaylistSyncer) enrich(ctx context.Context, track *models.AcquiredTrack, albumID string) {
	if albumID == "" {
		return
	}

	album, err := s.catalog.AlbumDetails(ctx, albumID)
	if err != nil {
		s.logger.Warn("album lookup failed", "albumId", albumID, "err", err)
		return
	}

	if album.Title != "" {
		track.Album = album.Title
	}
	if album.Year != "" {
		track.Year = album.Year
	}

	// Prefer an exact id hit over a title hit anywhere in the listing.
	for i, t := range album.Tracks {
		if t.ExternalID == track.ExternalID {
			track.TrackNumber = i + 1
			return
		}
	}
	want := matching.Normalize(track.Title)
	for i, t := range album.Tracks {
		if matching.Normalize(t.Title) == want {
			track.TrackNumber = i + 1
			return
		}
	}
}

// libraryLookup searches the media server for the track and returns its song
// id when a scored match is found.
func (s *PlaylistSyncer) libraryLookup(ctx context.Context, artist, title string) (string, bool) {
	results, err := s.server.Search3(ctx, artist+" "+title, librarySearchCount)
	if err != nil {
		s.logger.Warn("library search failed", "artist", artist, "title", title, "err", err)
		return "", false
	}

	idx, _ := matching.BestMatch(artist, title, results)
	if idx < 0 {
		return "", false
	}
	return results[idx].ExternalID, true
}
