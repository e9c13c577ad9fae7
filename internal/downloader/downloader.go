// Package downloader acquires audio files from the external source and writes
// descriptive tags onto them.
//
// Downloads run through yt-dlp via the go-ytdlp wrapper: best audio, extracted
// to mp3, thumbnail embedded, with an optional cookies file for authenticated
// extraction. Tag writing is best-effort; a track that downloaded but could
// not be tagged is still a successful acquisition.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"
)

// DefaultTimeout bounds one download attempt.
const DefaultTimeout = 180 * time.Second

const watchURLFormat = "https://music.youtube.com/watch?v=%s"

// Downloader fetches tracks into a target directory.
type Downloader struct {
	cookieFile string
	timeout    time.Duration
	logger     *log.Logger
	httpClient *http.Client
}

// New creates a Downloader. cookieFile may point at a nonexistent path; it is
// only passed to yt-dlp when present on disk at download time.
func New(cookieFile string, timeout time.Duration, logger *log.Logger) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Downloader{
		cookieFile: cookieFile,
		timeout:    timeout,
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Download fetches the track's audio into dir and returns the resulting file
// path. The file is tagged and made world-readable/writable on success; tag
// failures are logged and swallowed.
func (d *Downloader) Download(ctx context.Context, track models.AcquiredTrack, dir string) (string, error) {
	base := SanitizeFilename(fmt.Sprintf("%s - %s", track.Artist, track.Title))
	outputTemplate := filepath.Join(dir, base+".%(ext)s")

	cmd := ytdlp.New().
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("0").
		EmbedThumbnail().
		Format("bestaudio").
		ExtractorArgs("youtube:player_client=default,mweb").
		Output(outputTemplate)

	if _, err := os.Stat(d.cookieFile); err == nil {
		cmd = cmd.Cookies(d.cookieFile)
	} else if d.cookieFile != "" {
		d.logger.Warn("cookie file not found", "path", d.cookieFile)
	}

	dlCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	url := fmt.Sprintf(watchURLFormat, track.ExternalID)
	if _, err := cmd.Run(dlCtx, url); err != nil {
		if errors.Is(dlCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}

	audioFile := filepath.Join(dir, base+".mp3")
	if _, err := os.Stat(audioFile); err != nil {
		return "", fmt.Errorf("%w: output file missing after download", shared.ErrDownloadFailed)
	}

	if err := d.writeTags(ctx, audioFile, track); err != nil {
		d.logger.Warn("could not write tags", "file", audioFile, "err", err)
	}
	if err := os.Chmod(audioFile, 0o666); err != nil {
		d.logger.Warn("could not chmod audio file", "file", audioFile, "err", err)
	}

	return audioFile, nil
}

// fetchCover retrieves cover art bytes from the track's cover URL.
func (d *Downloader) fetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// SanitizeFilename strips characters that are invalid in file names and
// collapses runs of whitespace.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"<", "", ">", "", ":", "", `"`, "", "/", "",
		`\`, "", "|", "", "?", "", "*", "",
	)
	name = replacer.Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// SplitArtistCredit rewrites a joined artist credit into the semicolon
// separator multi-value tag readers expect.
func SplitArtistCredit(artist string) string {
	artist = strings.ReplaceAll(artist, ", ", "; ")
	return strings.ReplaceAll(artist, " & ", "; ")
}
