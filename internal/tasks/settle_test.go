package tasks

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/4rft5/NavidroFM/internal/subsonic"
)

func TestSettleScopedScanAndResolve(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := filepath.Join(env.syncer.cfg.Downloads.MusicDir, "mix")

	acquired := []models.AcquiredTrack{
		{ExternalID: "v1", Artist: "Artist 1", Title: "Title 1"},
		{ExternalID: "v2", Artist: "Artist 2", Title: "Title 2"},
	}
	for _, tr := range acquired {
		env.seedLibrary(models.Candidate{Artist: tr.Artist, Title: tr.Title}, "song-"+tr.ExternalID, true)
	}
	env.server.statuses = []subsonic.ScanStatus{
		{Scanning: true},
		{Scanning: false, Count: 2},
	}

	progress := make(chan ProgressUpdate, 8)
	ids := env.syncer.Settle(context.Background(), acquired, dir, progress)
	close(progress)

	if len(env.server.scans) != 1 {
		t.Fatalf("started %d scans, want 1", len(env.server.scans))
	}
	scan := env.server.scans[0]
	if scan.full {
		t.Error("expected a scoped scan, got full")
	}
	if want := "1:navidrofm/mix"; scan.target != want {
		t.Errorf("scan target = %q, want %q", scan.target, want)
	}

	want := []string{"song-v1", "song-v2"}
	if len(ids) != len(want) {
		t.Fatalf("resolved ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	// Settle pause scales with batch size but never below five seconds.
	found := false
	for _, d := range env.sleeps {
		if d == 5*time.Second {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 5s settle pause, sleeps = %v", env.sleeps)
	}

	resolved := false
	for update := range progress {
		if update.Phase == PhaseResolveTracks {
			resolved = true
			if update.Total != len(acquired) {
				t.Errorf("resolve update total = %d, want %d", update.Total, len(acquired))
			}
		}
	}
	if !resolved {
		t.Error("expected a resolve-phase progress update")
	}
}

func TestSettleEmptyBatch(t *testing.T) {
	env := newTestEnv(t, nil)

	ids := env.syncer.Settle(context.Background(), nil, "/music/navidrofm/mix", nil)

	if ids != nil {
		t.Errorf("ids = %v, want nil", ids)
	}
	if len(env.server.scans) != 0 {
		t.Errorf("started %d scans, want 0", len(env.server.scans))
	}
}

func TestTriggerScanFallsBackToFullScan(t *testing.T) {
	env := newTestEnv(t, nil)

	env.syncer.triggerScan(context.Background(), "/somewhere/else/mix")

	if len(env.server.scans) != 1 {
		t.Fatalf("started %d scans, want 1", len(env.server.scans))
	}
	if !env.server.scans[0].full {
		t.Error("expected full scan for directory outside library root")
	}
	if env.server.scans[0].target != "" {
		t.Errorf("full scan target = %q, want empty", env.server.scans[0].target)
	}
}

func TestWaitForScanRespectsTimeout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.syncer.scanTimeout = 4 * time.Second
	env.server.statuses = []subsonic.ScanStatus{{Scanning: true}}

	env.syncer.waitForScan(context.Background())

	if env.server.statusCalls != 2 {
		t.Errorf("polled status %d times, want 2", env.server.statusCalls)
	}
}

func TestResolveWithRetry(t *testing.T) {
	tracks := []models.AcquiredTrack{
		{Artist: "A", Title: "first pass"},
		{Artist: "B", Title: "second pass"},
		{Artist: "C", Title: "never"},
	}

	calls := map[string]int{}
	lookup := func(_ context.Context, artist, title string) (string, bool) {
		calls[title]++
		switch title {
		case "first pass":
			return "id-1", true
		case "second pass":
			return "id-2", calls[title] > 1
		default:
			return "", false
		}
	}

	var delays []time.Duration
	sleep := func(d time.Duration) { delays = append(delays, d) }
	logger := shared.NewLogger(io.Discard)

	ids := ResolveWithRetry(context.Background(), tracks, lookup, RetryDelay, sleep, logger)

	want := []string{"id-1", "id-2"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	// Two misses on the first pass means a four second pause before retrying.
	if len(delays) != 1 || delays[0] != 4*time.Second {
		t.Errorf("delays = %v, want one 4s pause", delays)
	}
	if calls["never"] != 2 {
		t.Errorf("unresolved track looked up %d times, want 2", calls["never"])
	}
}

func TestResolveWithRetryAllFirstPass(t *testing.T) {
	tracks := []models.AcquiredTrack{{Artist: "A", Title: "T"}}
	lookup := func(context.Context, string, string) (string, bool) { return "id", true }

	slept := false
	ids := ResolveWithRetry(context.Background(), tracks, lookup, RetryDelay,
		func(time.Duration) { slept = true }, shared.NewLogger(io.Discard))

	if len(ids) != 1 || ids[0] != "id" {
		t.Fatalf("ids = %v, want [id]", ids)
	}
	if slept {
		t.Error("no retry pause expected when everything resolves immediately")
	}
}

func TestRetryDelayClamps(t *testing.T) {
	tests := []struct {
		misses int
		want   time.Duration
	}{
		{0, 0},
		{1, 2 * time.Second},
		{10, 20 * time.Second},
		{30, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := RetryDelay(tt.misses); got != tt.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tt.misses, got, tt.want)
		}
	}
}
