// package models defines the data model for playlist sync runs
package models

import "strings"

// Candidate is a recommended (artist, title) pair from a feed, not yet
// verified to exist locally or be acquirable.
// Candidates are immutable once fetched.
type Candidate struct {
	Artist string
	Title  string
	Album  string
}

// Key returns the case-folded identity used for deduplication.
func (c Candidate) Key() string {
	return strings.ToLower(c.Artist) + "\x00" + strings.ToLower(c.Title)
}

// SearchResult is one entry returned by querying either the external
// catalog or the media-server library. Ephemeral, never persisted.
type SearchResult struct {
	ExternalID  string
	Title       string
	Artist      string
	Album       string
	AlbumID     string
	Year        string
	TrackNumber int
	Duration    int
	Path        string
	CoverURL    string
}

// AcquiredTrack describes a track successfully downloaded into the
// library directory, with the metadata that was written to its tags.
// Never mutated after creation.
type AcquiredTrack struct {
	ExternalID  string
	Title       string
	Artist      string
	Album       string
	Year        string
	TrackNumber int
	CoverURL    string
}

// AlbumInfo carries enrichment metadata from the catalog's album-details
// lookup: release year and the ordered track listing used to locate a
// track number.
type AlbumInfo struct {
	Title  string
	Year   string
	Tracks []AlbumTrackRef
}

// AlbumTrackRef is one entry of an album's track listing.
type AlbumTrackRef struct {
	ExternalID string
	Title      string
}
