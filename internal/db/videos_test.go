package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-subtracker/internal/db"
	"yt-subtracker/internal/models"
	"yt-subtracker/internal/test"
)

var videoCols = []string{
	"id", "channel_id", "title", "description", "published_at", "kind",
	"downloaded", "watched", "discarded", "watch_prio", "vid_path", "created_at",
}

func TestGetVideosFilter(t *testing.T) {
	_, mock := test.NewMockDB(t)
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	path := "/videos/v1.mp4"

	rows := sqlmock.NewRows(videoCols).
		AddRow("v1", "UC1", "First", "", published, models.KindVOD, true, true, false, 10, path, published)
	mock.ExpectQuery(`FROM videos WHERE watched = TRUE AND vid_path IS NOT NULL ORDER BY published_at DESC`).
		WillReturnRows(rows)

	videos, err := db.GetVideos(db.FilterWatched)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "v1", videos[0].ID)
	require.NotNil(t, videos[0].VidPath)
	assert.Equal(t, path, *videos[0].VidPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVideosUnknownFilter(t *testing.T) {
	_, mock := test.NewMockDB(t)

	_, err := db.GetVideos("starred")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVideoDefaultsKind(t *testing.T) {
	_, mock := test.NewMockDB(t)

	mock.ExpectExec(`INSERT INTO videos`).
		WithArgs("v2", "UC1", "Second", "", sqlmock.AnyArg(), models.KindVOD, false, false, false, 10, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.CreateVideo(models.Video{ID: "v2", ChannelID: "UC1", Title: "Second", WatchPrio: 10})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentVideos(t *testing.T) {
	_, mock := test.NewMockDB(t)
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(videoCols).
		AddRow("v1", "UC1", "First", "", published, models.KindLive, false, false, false, 0, nil, published)
	mock.ExpectQuery(`JOIN channels c ON c.id = v.channel_id .+ LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(rows)

	videos, err := db.GetRecentVideos(20)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Nil(t, videos[0].VidPath)
	assert.Equal(t, models.KindLive, videos[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetWatchPrioAll(t *testing.T) {
	_, mock := test.NewMockDB(t)

	mock.ExpectExec(`UPDATE videos SET watch_prio = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := db.SetWatchPrioAll(5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkWatchedBefore(t *testing.T) {
	_, mock := test.NewMockDB(t)
	cutoff := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	mock.ExpectExec(`UPDATE videos SET watched = TRUE WHERE \(downloaded = TRUE OR vid_path IS NULL\) AND published_at < \$1`).
		WithArgs(cutoff.UTC()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := db.MarkWatchedBefore(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	conn, mock := test.NewMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS channels`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS videos`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.Migrate(context.Background(), conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}
