package downloader

import (
	"context"
	"fmt"
	"strconv"

	"github.com/4rft5/NavidroFM/internal/models"
	"github.com/bogem/id3v2/v2"
)

// writeTags embeds the track metadata as ID3 frames and strips any free-text
// comment frames the extractor left behind.
func (d *Downloader) writeTags(ctx context.Context, path string, track models.AcquiredTrack) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening tag: %w", err)
	}
	defer tag.Close()

	tag.DeleteFrames(tag.CommonID("Comments"))

	tag.SetArtist(SplitArtistCredit(track.Artist))
	tag.SetTitle(track.Title)
	tag.SetAlbum(track.Album)

	if track.Year != "" {
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, track.Year)
	}
	if track.TrackNumber > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(track.TrackNumber))
	}

	if track.CoverURL != "" {
		if art, err := d.fetchCover(ctx, track.CoverURL); err != nil {
			d.logger.Warn("could not fetch cover art", "url", track.CoverURL, "err", err)
		} else {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     art,
			})
		}
	}

	return tag.Save()
}
