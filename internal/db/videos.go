package db

import (
	"fmt"
	"log"
	"time"

	"yt-subtracker/internal/models"
)

const (
	FilterWatched    = "watched"
	FilterDiscarded  = "discarded"
	FilterDownloaded = "downloaded"
)

const videoColumns = `id, channel_id, title, description, published_at, kind,
	downloaded, watched, discarded, watch_prio, vid_path, created_at`

// GetVideos returns cached videos, newest first. A non-empty filter restricts
// the result to videos with a local file and the named flag set.
func GetVideos(filter string) ([]models.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos"
	switch filter {
	case "":
	case FilterWatched, FilterDiscarded, FilterDownloaded:
		query += " WHERE " + filter + " = TRUE AND vid_path IS NOT NULL"
	default:
		return nil, fmt.Errorf("unknown video filter %q", filter)
	}
	query += " ORDER BY published_at DESC"

	videos := []models.Video{}
	if err := DB.Select(&videos, query); err != nil {
		log.Printf("Error getting videos (filter %q): %v", filter, err)
		return nil, err
	}
	return videos, nil
}

func GetVideoByID(id string) (models.Video, error) {
	video := models.Video{}
	err := DB.Get(&video, DB.Rebind("SELECT "+videoColumns+" FROM videos WHERE id = ?"), id)
	return video, err
}

func CreateVideo(v models.Video) error {
	if v.Kind == "" {
		v.Kind = models.KindVOD
	}
	_, err := DB.Exec(DB.Rebind(`
		INSERT INTO videos (id, channel_id, title, description, published_at, kind,
			downloaded, watched, discarded, watch_prio, vid_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.ChannelID, v.Title, v.Description, v.PublishedAt, v.Kind,
		v.Downloaded, v.Watched, v.Discarded, v.WatchPrio, v.VidPath, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert video %s: %w", v.ID, err)
	}
	return nil
}

// GetRecentVideos returns the newest uploads of channels that are still
// subscribed.
func GetRecentVideos(limit int) ([]models.Video, error) {
	query := `
		SELECT v.id, v.channel_id, v.title, v.description, v.published_at, v.kind,
			v.downloaded, v.watched, v.discarded, v.watch_prio, v.vid_path, v.created_at
		FROM videos v
		JOIN channels c ON c.id = v.channel_id
		WHERE c.subscribed = TRUE AND v.discarded = FALSE
		ORDER BY v.published_at DESC
		LIMIT ?
	`
	videos := []models.Video{}
	err := DB.Select(&videos, DB.Rebind(query), limit)
	if err != nil {
		log.Printf("Error getting recent videos: %v", err)
		return nil, err
	}
	return videos, nil
}

func SetWatchPrioAll(prio int) (int64, error) {
	res, err := DB.Exec(DB.Rebind("UPDATE videos SET watch_prio = ?"), prio)
	if err != nil {
		return 0, fmt.Errorf("update watch prio: %w", err)
	}
	return res.RowsAffected()
}

// MarkWatchedBefore flags videos published before cutoff as watched. Only
// videos that are downloaded or have no local file are touched.
func MarkWatchedBefore(cutoff time.Time) (int64, error) {
	res, err := DB.Exec(DB.Rebind(`
		UPDATE videos SET watched = TRUE
		WHERE (downloaded = TRUE OR vid_path IS NULL) AND published_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("mark old videos watched: %w", err)
	}
	return res.RowsAffected()
}
