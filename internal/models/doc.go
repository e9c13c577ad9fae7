// Package models defines the domain entities shared across the sync pipeline.
//
// The types fall into three groups:
//
// 1. Feed output: [Candidate], the unverified (artist, title) pairs produced by
// the recommendation feeds. Identity for deduplication is [Candidate.Key].
//
// 2. Query results: [SearchResult], produced by both the external catalog and
// the media-server library search. The same shape is used for both so the
// match scorer can run against either source.
//
// 3. Acquisition output: [AcquiredTrack] and the [AlbumInfo] enrichment data
// attached during acquisition. An AcquiredTrack is created once per successful
// download and drives post-scan library resolution.
//
// Nothing in this package is persisted; all state lives in the media server.
package models
