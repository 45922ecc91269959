package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"yt-subtracker/internal/models"
)

// GenerateSubfeed renders recent uploads of the cached channels as RSS. Items
// link to the YouTube watch page.
func GenerateSubfeed(videos []models.Video, baseURL string) (string, error) {
	now := time.Now().UTC()
	p := podcast.New(
		"Subscriptions",
		fmt.Sprintf("%s/api/v1/subfeed.rss", strings.TrimRight(baseURL, "/")),
		"Latest uploads from subscribed YouTube channels.",
		&now, &now,
	)

	for _, v := range videos {
		description := v.Description
		if description == "" {
			description = v.Title
		}
		title := v.Title
		switch v.Kind {
		case models.KindLive:
			title = "[LIVE] " + title
		case models.KindUpcoming:
			title = "[UPCOMING] " + title
		}

		item := podcast.Item{
			Title:       title,
			Link:        v.URL(),
			Description: description,
			PubDate:     v.PublishedAt,
		}
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("add feed item %s: %w", v.ID, err)
		}
	}

	return p.String(), nil
}
