package tasks

import "context"

// Publish replaces the named playlist's contents with songIDs, creating the
// playlist if it does not exist yet. An empty id list clears the playlist.
// The operation is idempotent; publishing the same list twice leaves the
// playlist unchanged.
func (s *PlaylistSyncer) Publish(ctx context.Context, name string, songIDs []string) (string, error) {
	playlists, err := s.server.GetPlaylists(ctx)
	if err != nil {
		return "", err
	}

	var id string
	for _, pl := range playlists {
		if pl.Name == name {
			id = pl.ID
			break
		}
	}
	if id == "" {
		id, err = s.server.CreatePlaylist(ctx, name)
		if err != nil {
			return "", err
		}
		s.logger.Info("created playlist", "playlist", name, "id", id)
	}

	if err := s.server.UpdatePlaylist(ctx, id, songIDs); err != nil {
		return "", err
	}

	s.logger.Info("playlist updated", "playlist", name, "songs", len(songIDs))
	return id, nil
}
