package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-subtracker/internal/models"
)

func TestChannels(t *testing.T) {
	var buf bytes.Buffer
	Channels(&buf, []models.Channel{
		{ID: "UC1", Title: "One"},
		{ID: "UC2", Title: "Two", SubscribedOverride: true},
	})

	assert.Equal(t, "[UC1]    One\n[UC2]    Two [Subscription override]\n", buf.String())
}

func TestChannelTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ChannelTable(&buf, []models.Channel{{ID: "UC1", Title: "One", UploadsPlaylistID: "UU1", Subscribed: true}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "UU1")
	assert.Contains(t, lines[1], "true")
}

func TestVideos(t *testing.T) {
	published := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	path := "/data/v2.mp4"
	videos := []models.Video{
		{ID: "v1", Title: "Live one", Kind: models.KindLive, PublishedAt: &published},
		{ID: "v2", Title: "Plain", Kind: models.KindVOD, VidPath: &path},
	}

	var buf bytes.Buffer
	Videos(&buf, videos)
	assert.Equal(t, "[v1] 2024-02-03  Live one (live)\n[v2] ----------  Plain\n", buf.String())

	buf.Reset()
	VideoURLs(&buf, videos)
	assert.Equal(t, "https://www.youtube.com/watch?v=v1\nhttps://www.youtube.com/watch?v=v2\n", buf.String())

	buf.Reset()
	VideoPaths(&buf, videos)
	assert.Equal(t, "/data/v2.mp4\n", buf.String())
}
