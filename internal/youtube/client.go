// Package youtube wraps the YouTube Data API v3 calls the tracker needs.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	youtubev3 "google.golang.org/api/youtube/v3"

	"yt-subtracker/internal/models"
)

const maxResults = 50

// Subscription is one entry of the authenticated user's subscription list.
type Subscription struct {
	ChannelID    string    `json:"channel_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishedAt  time.Time `json:"published_at"`
	// Snippet is the remote snippet as returned by the API, as JSON.
	Snippet string `json:"-"`
}

// SubscriptionDetails is a subscription with its channel's content details.
type SubscriptionDetails struct {
	Subscription
	ContentDetails *youtubev3.ChannelContentDetails `json:"content_details"`
}

// ChannelQuery selects a channel by id or by legacy username.
type ChannelQuery struct {
	ID       string
	Username string
}

// Client issues YouTube Data API calls through an authenticated service.
type Client struct {
	service *youtubev3.Service
}

func NewClient(service *youtubev3.Service) *Client {
	return &Client{service: service}
}

func (c *Client) ready() error {
	if c == nil || c.service == nil {
		return ErrNoSession
	}
	return nil
}

// Subscriptions returns a pager over the user's subscriptions, fifty per page.
func (c *Client) Subscriptions() *SubscriptionPager {
	return NewSubscriptionPager(c.subscriptionPage)
}

func (c *Client) subscriptionPage(ctx context.Context, pageToken string) (SubscriptionPage, error) {
	if err := c.ready(); err != nil {
		return SubscriptionPage{}, err
	}

	call := c.service.Subscriptions.List([]string{"snippet"}).
		Mine(true).
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return SubscriptionPage{}, fmt.Errorf("list subscriptions: %w", err)
	}

	page := SubscriptionPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		sub, err := subscriptionFromItem(item)
		if err != nil {
			return SubscriptionPage{}, err
		}
		page.Items = append(page.Items, sub)
	}
	return page, nil
}

func subscriptionFromItem(item *youtubev3.Subscription) (Subscription, error) {
	if item == nil || item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.ChannelId == "" {
		return Subscription{}, fmt.Errorf("%w: subscription without channel id", ErrMalformedResponse)
	}
	snippet, err := json.Marshal(item.Snippet)
	if err != nil {
		return Subscription{}, fmt.Errorf("encode subscription snippet: %w", err)
	}
	return Subscription{
		ChannelID:    item.Snippet.ResourceId.ChannelId,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
		PublishedAt:  parseTime(item.Snippet.PublishedAt),
		Snippet:      string(snippet),
	}, nil
}

// UploadsPlaylistID resolves the id of the playlist holding a channel's
// uploads.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	resp, err := c.service.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get channel %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	return uploadsOf(resp.Items[0])
}

func uploadsOf(ch *youtubev3.Channel) (string, error) {
	if ch.ContentDetails == nil || ch.ContentDetails.RelatedPlaylists == nil || ch.ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: channel %s has no uploads playlist", ErrMalformedResponse, ch.Id)
	}
	return ch.ContentDetails.RelatedPlaylists.Uploads, nil
}

// Channel looks up a single channel by id or username.
func (c *Client) Channel(ctx context.Context, q ChannelQuery) (*models.Channel, error) {
	if (q.ID == "") == (q.Username == "") {
		return nil, ErrInvalidQuery
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	call := c.service.Channels.List([]string{"contentDetails", "snippet"}).Context(ctx)
	if q.ID != "" {
		call = call.Id(q.ID)
	} else {
		call = call.ForUsername(q.Username)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s%s", ErrChannelNotFound, q.ID, q.Username)
	}

	item := resp.Items[0]
	uploads, err := uploadsOf(item)
	if err != nil {
		return nil, err
	}
	ch := &models.Channel{ID: item.Id, UploadsPlaylistID: uploads}
	if item.Snippet != nil {
		ch.Title = item.Snippet.Title
		ch.Description = item.Snippet.Description
		ch.ThumbnailURL = thumbnailURL(item.Snippet.Thumbnails)
		snippet, err := json.Marshal(item.Snippet)
		if err != nil {
			return nil, fmt.Errorf("encode channel snippet: %w", err)
		}
		ch.Snippet = string(snippet)
	}
	return ch, nil
}

// SubscriptionsWithContentDetails lists every subscription and attaches the
// content details of the subscribed channel.
func (c *Client) SubscriptionsWithContentDetails(ctx context.Context) ([]SubscriptionDetails, error) {
	subs, err := c.Subscriptions().All(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]SubscriptionDetails, 0, len(subs))
	for _, sub := range subs {
		resp, err := c.service.Channels.List([]string{"contentDetails"}).Id(sub.ChannelID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get channel %s: %w", sub.ChannelID, err)
		}
		d := SubscriptionDetails{Subscription: sub}
		if len(resp.Items) > 0 {
			d.ContentDetails = resp.Items[0].ContentDetails
		}
		details = append(details, d)
	}
	return details, nil
}

// PlaylistItems lists the videos of a playlist, newest first as returned by
// the API. At most pageLimit pages are fetched; zero means all pages.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string, pageLimit int) ([]models.Video, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var videos []models.Video
	token := ""
	for page := 0; pageLimit == 0 || page < pageLimit; page++ {
		call := c.service.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(maxResults).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}
		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
				continue
			}
			channelID := item.Snippet.VideoOwnerChannelId
			if channelID == "" {
				channelID = item.Snippet.ChannelId
			}
			videos = append(videos, models.Video{
				ID:          item.Snippet.ResourceId.VideoId,
				ChannelID:   channelID,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				PublishedAt: parseTimePtr(item.Snippet.PublishedAt),
				Kind:        models.KindVOD,
			})
		}
		token = resp.NextPageToken
		if token == "" {
			break
		}
	}
	return videos, nil
}

// SearchUploads lists a channel's videos through the search endpoint, which
// unlike playlist items reports live and upcoming broadcasts.
func (c *Client) SearchUploads(ctx context.Context, channelID string, pageLimit int) ([]models.Video, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var videos []models.Video
	token := ""
	for page := 0; pageLimit == 0 || page < pageLimit; page++ {
		call := c.service.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			Order("date").
			MaxResults(maxResults).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("search channel %s: %w", channelID, err)
		}
		for _, item := range resp.Items {
			if item.Id == nil || item.Id.Kind != "youtube#video" || item.Snippet == nil {
				continue
			}
			videos = append(videos, models.Video{
				ID:          item.Id.VideoId,
				ChannelID:   item.Snippet.ChannelId,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				PublishedAt: parseTimePtr(item.Snippet.PublishedAt),
				Kind:        kindOf(item.Snippet.LiveBroadcastContent),
			})
		}
		token = resp.NextPageToken
		if token == "" {
			break
		}
	}
	return videos, nil
}

// Videos fetches video snippets by id.
func (c *Client) Videos(ctx context.Context, ids []string) ([]models.Video, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var videos []models.Video
	for start := 0; start < len(ids); start += maxResults {
		end := min(start+maxResults, len(ids))
		resp, err := c.service.Videos.List([]string{"snippet"}).
			Id(strings.Join(ids[start:end], ",")).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		for _, item := range resp.Items {
			if item.Snippet == nil {
				continue
			}
			videos = append(videos, models.Video{
				ID:          item.Id,
				ChannelID:   item.Snippet.ChannelId,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				PublishedAt: parseTimePtr(item.Snippet.PublishedAt),
				Kind:        kindOf(item.Snippet.LiveBroadcastContent),
			})
		}
	}
	return videos, nil
}

// Download fetches a video to local storage. Not supported yet.
func Download(ctx context.Context, videoID string) error {
	return fmt.Errorf("download %s: %w", videoID, ErrNotImplemented)
}

func kindOf(liveBroadcastContent string) string {
	switch liveBroadcastContent {
	case "live":
		return models.KindLive
	case "upcoming":
		return models.KindUpcoming
	default:
		return models.KindVOD
	}
}

func thumbnailURL(t *youtubev3.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtubev3.Thumbnail{t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
