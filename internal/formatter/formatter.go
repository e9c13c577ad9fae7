// package formatter renders playlist contents to portable formats (CSV, Markdown, M3U)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/4rft5/NavidroFM/internal/shared"
)

// Format identifiers accepted by Export.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatM3U      = "m3u"
)

// Export renders the playlist in the requested format.
func Export(name, format string, tracks []models.SearchResult) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(tracks)
	case FormatMarkdown:
		return ExportToMarkdown(name, tracks)
	case FormatM3U:
		return ExportToM3U(tracks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (csv, md, m3u)", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts playlist tracks to CSV with columns: ID, Title, Artist, Album, Year, Track
func ExportToCSV(tracks []models.SearchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Year", "Track"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ExternalID,
			track.Title,
			track.Artist,
			track.Album,
			track.Year,
			strconv.Itoa(track.TrackNumber),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts playlist tracks to a Markdown table.
func ExportToMarkdown(name string, tracks []models.SearchResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", name))
	buf.WriteString(fmt.Sprintf("%d tracks\n\n", len(tracks)))
	buf.WriteString("| # | Title | Artist | Album | Year |\n")
	buf.WriteString("|---|-------|--------|-------|------|\n")

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1,
			escapeMarkdown(track.Title),
			escapeMarkdown(track.Artist),
			escapeMarkdown(track.Album),
			track.Year,
		))
	}

	return buf.Bytes(), nil
}

// ExportToM3U converts playlist tracks to an extended M3U playlist. Entries
// without a library path are skipped; M3U lines are useless without one.
func ExportToM3U(tracks []models.SearchResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	for _, track := range tracks {
		if track.Path == "" {
			continue
		}
		duration := track.Duration
		if duration == 0 {
			duration = -1
		}
		buf.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", duration, track.Artist, track.Title))
		buf.WriteString(track.Path + "\n")
	}

	return buf.Bytes(), nil
}

// SaveToFile writes exported data to the specified path.
func SaveToFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
