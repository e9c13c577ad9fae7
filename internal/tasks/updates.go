package tasks

import "fmt"

// Phase identifies which stage of a sync run a progress update belongs to.
type Phase int

const (
	PhaseFetchCandidates Phase = iota
	PhaseAcquireTracks
	PhaseScanLibrary
	PhaseResolveTracks
	PhasePublishPlaylist
	PhaseComplete
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseFetchCandidates:
		return "fetching candidates"
	case PhaseAcquireTracks:
		return "acquiring tracks"
	case PhaseScanLibrary:
		return "scanning library"
	case PhaseResolveTracks:
		return "resolving tracks"
	case PhasePublishPlaylist:
		return "publishing playlist"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// ProgressUpdate is a snapshot of sync progress sent to an optional consumer
// channel. Sends are non-blocking; a full channel drops the update.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
}

func fetchUpdate(playlist string, want int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetchCandidates,
		Total:   want,
		Message: fmt.Sprintf("fetching candidates for %s", playlist),
	}
}

func acquireUpdate(step, total int, artist, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseAcquireTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s - %s", artist, title),
	}
}

func scanUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseScanLibrary,
		Total:   count,
		Message: fmt.Sprintf("waiting for %d new files to be indexed", count),
	}
}

func resolveUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseResolveTracks,
		Total:   count,
		Message: fmt.Sprintf("resolving %d downloads to library songs", count),
	}
}

func errorUpdate(playlist string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseError,
		Message: fmt.Sprintf("%s: %v", playlist, err),
	}
}

func publishUpdate(playlist string, songs int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhasePublishPlaylist,
		Total:   songs,
		Message: fmt.Sprintf("publishing %s", playlist),
	}
}

func completeUpdate(playlist string, published int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseComplete,
		Total:   published,
		Message: fmt.Sprintf("%s synced with %d tracks", playlist, published),
	}
}

// sendUpdate delivers an update without blocking the sync loop.
func sendUpdate(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- update:
	default:
	}
}
