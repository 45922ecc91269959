package models

import "time"

const (
	KindVOD      = "vod"
	KindLive     = "live"
	KindUpcoming = "upcoming"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Video is an upload from one of the cached channels.
type Video struct {
	ID          string     `db:"id" json:"id"`
	ChannelID   string     `db:"channel_id" json:"channel_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	Kind        string     `db:"kind" json:"kind"`
	Downloaded  bool       `db:"downloaded" json:"downloaded"`
	Watched     bool       `db:"watched" json:"watched"`
	Discarded   bool       `db:"discarded" json:"discarded"`
	WatchPrio   int        `db:"watch_prio" json:"watch_prio"`
	VidPath     *string    `db:"vid_path" json:"vid_path,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// URL returns the watch page for the video.
func (v Video) URL() string {
	return watchURLPrefix + v.ID
}
