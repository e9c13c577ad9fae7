// Package feeds retrieves candidate tracks from recommendation feeds.
//
// A [Feed] is one remote source of recommended tracks (a Last.fm station, a
// ListenBrainz created-for playlist). The [Fetcher] drives repeated queries
// against a feed to build an over-sized, deduplicated candidate list: later
// pipeline stages consume the extras as backups when a candidate turns out to
// be unmatchable or undownloadable.
package feeds

import (
	"context"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// BackupMultiplier is the over-fetch factor applied to the target count.
const BackupMultiplier = 3

// maxQueries caps repeated feed queries; stations loop eventually.
const maxQueries = 20

// Feed is one source of recommended tracks. Repeated Fetch calls may return
// overlapping sets; the caller deduplicates.
type Feed interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Candidate, error)
}

// Fetcher accumulates deduplicated candidates from a feed.
type Fetcher struct {
	logger  *log.Logger
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher. The limiter paces repeat queries so the feed
// is not hammered; pass nil for the default of one query per second.
func NewFetcher(logger *log.Logger, limiter *rate.Limiter) *Fetcher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
	}
	return &Fetcher{logger: logger, limiter: limiter}
}

// FetchCandidates queries the feed until it has target × [BackupMultiplier]
// unique candidates, the feed stops yielding new tracks, or the query cap is
// reached. Transport errors end collection early and return the partial list:
// a short candidate list degrades the sync, it does not fail it.
func (f *Fetcher) FetchCandidates(ctx context.Context, feed Feed, target int) []models.Candidate {
	fetchCount := target * BackupMultiplier
	f.logger.Info("fetching candidates", "feed", feed.Name(), "need", target, "want", fetchCount)

	var all []models.Candidate
	seen := make(map[string]struct{})

	for attempt := 1; attempt <= maxQueries && len(all) < fetchCount; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			break
		}

		tracks, err := feed.Fetch(ctx)
		if err != nil {
			f.logger.Warn("feed query failed, keeping partial results", "feed", feed.Name(), "err", err)
			break
		}
		if len(tracks) == 0 {
			f.logger.Info("feed exhausted", "feed", feed.Name())
			break
		}

		added := 0
		for _, c := range tracks {
			if c.Artist == "" || c.Title == "" {
				continue
			}
			key := c.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, c)
			added++
			if len(all) >= fetchCount {
				break
			}
		}

		f.logger.Debug("feed query done", "attempt", attempt, "added", added, "total", len(all))

		if added == 0 {
			f.logger.Info("feed is repeating tracks, stopping", "feed", feed.Name())
			break
		}
	}

	f.logger.Info("collected candidates", "feed", feed.Name(), "count", len(all), "target", target)
	return all
}
