package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-subtracker/internal/auth"
	"yt-subtracker/internal/config"
	"yt-subtracker/internal/db"
	"yt-subtracker/internal/test"
	"yt-subtracker/internal/youtube"
)

func testApp(t *testing.T) *app {
	cfg := config.Default()
	cfg.TokenDir = t.TempDir()
	return newApp(cfg)
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// withMockStore wires the app to a sqlmock connection.
func withMockStore(t *testing.T, a *app) sqlmock.Sqlmock {
	conn, mock := test.NewMockDB(t)
	a.channels = db.NewChannelRepository(conn)
	return mock
}

func TestVersion(t *testing.T) {
	out, err := execute(t, testApp(t), "--version")
	require.NoError(t, err)
	assert.Equal(t, "yt-subtracker version "+version+"\n", out)
}

func TestDownloadNotImplemented(t *testing.T) {
	_, err := execute(t, testApp(t), "download", "abc123")
	assert.ErrorIs(t, err, youtube.ErrNotImplemented)
}

func TestSetWatchedDayRejectsBadInput(t *testing.T) {
	for _, arg := range []string{"abc", "-3", "365001", "9223372036854775807"} {
		t.Run(arg, func(t *testing.T) {
			_, err := execute(t, testApp(t), "set-watched-day", "--", arg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "non-negative integer")
		})
	}
}

func TestWatchedCutoffIsInThePast(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		arg  string
		want time.Time
	}{
		{"0", now},
		{"7", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"200000", now.AddDate(0, 0, -200000)},
		{"365000", now.AddDate(0, 0, -365000)},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			cutoff, err := watchedCutoff(now, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cutoff)
			assert.False(t, cutoff.After(now))
		})
	}
}

func TestSetWatchedDay(t *testing.T) {
	a := testApp(t)
	mock := withMockStore(t, a)
	mock.ExpectExec(`UPDATE videos SET watched = TRUE`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	out, err := execute(t, a, "set-watched-day", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Marked 4 videos as watched.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"none", []string{"channel"}},
		{"both", []string{"channel", "--id", "UC1", "--username", "someone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, testApp(t), tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestVideosFlagsAreExclusive(t *testing.T) {
	_, err := execute(t, testApp(t), "videos", "--watched", "--discarded")
	assert.Error(t, err)
}

func TestVideosPaths(t *testing.T) {
	a := testApp(t)
	mock := withMockStore(t, a)
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "channel_id", "title", "description", "published_at", "kind",
		"downloaded", "watched", "discarded", "watch_prio", "vid_path", "created_at",
	}).AddRow("v1", "UC1", "First", "", published, "vod", true, false, false, 10, "/videos/v1.mp4", published)
	mock.ExpectQuery(`WHERE downloaded = TRUE AND vid_path IS NOT NULL`).WillReturnRows(rows)

	out, err := execute(t, a, "videos", "--downloaded", "--paths")
	require.NoError(t, err)
	assert.Equal(t, "/videos/v1.mp4\n", out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptions(t *testing.T) {
	a := testApp(t)
	mock := withMockStore(t, a)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "uploads_playlist_id", "thumbnail_url",
		"subscribed", "subscribed_override", "snippet", "created_at", "updated_at",
	}).
		AddRow("UC1", "Alpha", "", "UU1", "", true, false, "", now, now).
		AddRow("UC2", "Beta", "", "UU2", "", false, true, "", now, now)
	mock.ExpectQuery(`FROM channels ORDER BY title`).WillReturnRows(rows)

	out, err := execute(t, a, "subscriptions")
	require.NoError(t, err)
	assert.Equal(t, "[UC1]    Alpha\n[UC2]    Beta [Subscription override]\n", out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncWithoutLogin(t *testing.T) {
	a := testApp(t)
	withMockStore(t, a)

	_, err := execute(t, a, "sync")
	require.Error(t, err)
	assert.ErrorIs(t, err, youtube.ErrNoSession)
	assert.Contains(t, err.Error(), "auth command")
}

func TestAuthNeedsCredentials(t *testing.T) {
	_, err := execute(t, testApp(t), "auth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YOUTUBE_CLIENT_ID")
}

func TestUploadListers(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()

	_, err := a.uploadListers(ctx, 0)
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)

	_, err = a.uploadListers(ctx, 2)
	assert.ErrorContains(t, err, "api key is not set")

	_, err = a.uploadListers(ctx, -1)
	assert.Error(t, err)

	a.cfg.YouTubeAPIKey = "test-key"
	listers, err := a.uploadListers(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, listers, 3)

	listers, err = a.uploadListers(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, listers, 1)
}

func TestVideoInfoNeedsArgs(t *testing.T) {
	_, err := execute(t, testApp(t), "video-info")
	assert.Error(t, err)
}
