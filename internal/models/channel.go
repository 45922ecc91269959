package models

import "time"

// Channel is a cached YouTube channel the user follows.
type Channel struct {
	ID                 string    `db:"id" json:"id"`
	Title              string    `db:"title" json:"title"`
	Description        string    `db:"description" json:"description"`
	UploadsPlaylistID  string    `db:"uploads_playlist_id" json:"uploads_playlist_id"`
	ThumbnailURL       string    `db:"thumbnail_url" json:"thumbnail_url"`
	Subscribed         bool      `db:"subscribed" json:"subscribed"`
	SubscribedOverride bool      `db:"subscribed_override" json:"subscribed_override"`
	Snippet            string    `db:"snippet" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
