package tasks

import (
	"context"

	"github.com/4rft5/NavidroFM/internal/models"
)

// ReconcileOutcome reports how the candidate pool was consumed.
type ReconcileOutcome struct {
	// Resolved holds the successful results in candidate order, capped at
	// the target count.
	Resolved []AcquireResult
	// Attempted counts candidates consumed, including failures.
	Attempted int
}

// Reconcile walks the candidate list in order, acquiring each one until
// target tracks have succeeded or the pool runs out. Failed candidates are
// replaced by the next backup in line.
func (s *PlaylistSyncer) Reconcile(ctx context.Context, candidates []models.Candidate, target int, dir string, progress chan<- ProgressUpdate) ReconcileOutcome {
	var out ReconcileOutcome

	for _, cand := range candidates {
		if len(out.Resolved) >= target {
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("acquisition interrupted", "err", err)
			break
		}

		out.Attempted++
		sendUpdate(progress, acquireUpdate(len(out.Resolved)+1, target, cand.Artist, cand.Title))

		res := s.Acquire(ctx, cand, dir)
		switch res.Status {
		case StatusAcquired, StatusAlreadyPresent:
			out.Resolved = append(out.Resolved, res)
		default:
			s.logger.Info("candidate unavailable, trying next backup",
				"artist", cand.Artist, "title", cand.Title, "reason", res.Status.String())
		}
	}

	if len(out.Resolved) < target {
		s.logger.Warn("candidate pool exhausted before target",
			"resolved", len(out.Resolved), "target", target, "attempted", out.Attempted)
	}
	return out
}
