package tasks

import (
	"context"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/charmbracelet/log"
)

// LookupFunc resolves an (artist, title) pair to a library song id.
type LookupFunc func(ctx context.Context, artist, title string) (string, bool)

// DelayPolicy computes the pause before retrying a batch of misses.
type DelayPolicy func(misses int) time.Duration

// RetryDelay scales the retry pause with the number of misses: two seconds
// per missing track, at most thirty.
func RetryDelay(misses int) time.Duration {
	return clampSeconds(misses*2, 0, 30)
}

// ResolveWithRetry resolves each track to a song id, then retries the misses
// once after the policy delay. Tracks still missing after the retry are
// logged and dropped; ids are returned in track order with retried hits
// appended after the first-pass hits.
func ResolveWithRetry(ctx context.Context, tracks []models.AcquiredTrack, lookup LookupFunc, delay DelayPolicy, sleep func(time.Duration), logger *log.Logger) []string {
	ids, missed := resolvePass(ctx, tracks, lookup)
	if len(missed) == 0 {
		return ids
	}

	logger.Info("tracks not indexed yet, retrying once", "missing", len(missed))
	sleep(delay(len(missed)))

	retried, dropped := resolvePass(ctx, missed, lookup)
	ids = append(ids, retried...)
	for _, tr := range dropped {
		logger.Warn("track never appeared in library", "artist", tr.Artist, "title", tr.Title)
	}
	return ids
}

func resolvePass(ctx context.Context, tracks []models.AcquiredTrack, lookup LookupFunc) (ids []string, missed []models.AcquiredTrack) {
	for _, tr := range tracks {
		if tr.Artist == "" || tr.Title == "" {
			continue
		}
		if id, ok := lookup(ctx, tr.Artist, tr.Title); ok {
			ids = append(ids, id)
			continue
		}
		missed = append(missed, tr)
	}
	return ids, missed
}

// clampSeconds converts n seconds to a duration bounded to [lo, hi] seconds.
func clampSeconds(n, lo, hi int) time.Duration {
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return time.Duration(n) * time.Second
}
