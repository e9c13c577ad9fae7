package tasks

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
)

// Settle makes freshly downloaded files visible as library songs: trigger a
// scan scoped to dir, wait for the scanner to finish, give indexing a short
// grace period, then resolve each track to a song id with one retry pass.
// Tracks that never surface are dropped from the returned ids.
func (s *PlaylistSyncer) Settle(ctx context.Context, acquired []models.AcquiredTrack, dir string, progress chan<- ProgressUpdate) []string {
	if len(acquired) == 0 {
		return nil
	}

	s.triggerScan(ctx, dir)
	s.waitForScan(ctx)

	settle := clampSeconds(len(acquired), 5, 30)
	s.logger.Info("waiting for indexing to settle", "delay", settle)
	s.sleep(settle)

	sendUpdate(progress, resolveUpdate(len(acquired)))
	return ResolveWithRetry(ctx, acquired, s.libraryLookup, RetryDelay, s.sleep, s.logger)
}

// triggerScan asks the server to scan only the download directory. When the
// directory cannot be expressed relative to the library root, the whole
// library is rescanned instead.
func (s *PlaylistSyncer) triggerScan(ctx context.Context, dir string) {
	target := ""
	rel, err := filepath.Rel(s.cfg.Downloads.LibraryRoot, dir)
	if err == nil && !strings.HasPrefix(rel, "..") && s.cfg.Navidrome.LibraryID != "" {
		target = s.cfg.Navidrome.LibraryID + ":" + filepath.ToSlash(rel)
	}

	if target != "" {
		s.logger.Info("starting scoped library scan", "target", target)
		err := s.server.StartScan(ctx, false, target)
		if err == nil {
			return
		}
		s.logger.Warn("scoped scan failed, falling back to full scan", "err", err)
	} else {
		s.logger.Info("download directory outside library root, starting full scan", "dir", dir)
	}

	if err := s.server.StartScan(ctx, true, ""); err != nil {
		s.logger.Warn("could not start library scan", "err", err)
	}
}

// waitForScan polls scan status until the server reports idle. The wait is
// unbounded unless a scan timeout is configured.
func (s *PlaylistSyncer) waitForScan(ctx context.Context) {
	var elapsed time.Duration
	for {
		if ctx.Err() != nil {
			return
		}
		s.sleep(s.pollInterval)
		elapsed += s.pollInterval

		status, err := s.server.GetScanStatus(ctx)
		if err != nil {
			s.logger.Warn("could not check scan status", "err", err)
			continue
		}
		if !status.Scanning {
			s.logger.Info("library scan finished", "elapsed", elapsed, "count", status.Count)
			return
		}

		if elapsed%(20*time.Second) == 0 {
			s.logger.Info("library scan still running", "elapsed", elapsed, "count", status.Count)
		}
		if s.scanTimeout > 0 && elapsed >= s.scanTimeout {
			s.logger.Warn("scan wait reached configured limit, continuing anyway", "elapsed", elapsed)
			return
		}
	}
}
