package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"yt-subtracker/internal/db"
	"yt-subtracker/internal/models"
)

// UploadsLister lists the videos of a playlist.
type UploadsLister interface {
	PlaylistItems(ctx context.Context, playlistID string, pageLimit int) ([]models.Video, error)
}

// RefreshUploads stores the channel's uploads that are not cached yet and
// returns them.
func RefreshUploads(ctx context.Context, lister UploadsLister, ch models.Channel, pageLimit, watchPrio int) ([]models.Video, error) {
	if ch.UploadsPlaylistID == "" {
		return nil, fmt.Errorf("channel %s has no uploads playlist", ch.ID)
	}

	videos, err := lister.PlaylistItems(ctx, ch.UploadsPlaylistID, pageLimit)
	if err != nil {
		return nil, err
	}

	var added []models.Video
	for _, v := range videos {
		_, err := db.GetVideoByID(v.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return added, fmt.Errorf("failed to check video %s: %w", v.ID, err)
		}

		if v.ChannelID == "" {
			v.ChannelID = ch.ID
		}
		v.WatchPrio = watchPrio
		if err := db.CreateVideo(v); err != nil {
			return added, err
		}
		added = append(added, v)
	}

	if len(added) > 0 {
		log.Printf("Found %d new videos for channel %s", len(added), ch.ID)
	}
	return added, nil
}
