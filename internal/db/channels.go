package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"yt-subtracker/internal/models"
)

const channelColumns = `id, title, description, uploads_playlist_id, thumbnail_url,
	subscribed, subscribed_override, snippet, created_at, updated_at`

// ChannelTx is a unit of work over the channels table. Nothing it writes is
// visible to other connections until Commit.
type ChannelTx interface {
	// Find returns nil, nil when no channel has the id.
	Find(ctx context.Context, id string) (*models.Channel, error)
	// Upsert overwrites the mutable fields of an existing row or inserts a
	// new one. ch is updated with the stored timestamps and override flag.
	Upsert(ctx context.Context, ch *models.Channel) (inserted bool, err error)
	// DeleteNotIn removes every channel whose id is not in ids. An empty ids
	// removes all channels.
	DeleteNotIn(ctx context.Context, ids []string) (deleted int64, err error)
	Commit() error
	Rollback() error
}

// ChannelRepository reads and writes cached channels.
type ChannelRepository struct {
	db *sqlx.DB
}

func NewChannelRepository(db *sqlx.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Begin starts a transaction over the channels table.
func (r *ChannelRepository) Begin(ctx context.Context) (ChannelTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin channel transaction: %w", err)
	}
	return &channelTx{tx: tx}, nil
}

func (r *ChannelRepository) List(ctx context.Context) ([]models.Channel, error) {
	channels := []models.Channel{}
	err := r.db.SelectContext(ctx, &channels, "SELECT "+channelColumns+" FROM channels ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// Get returns nil, nil when the channel is not cached.
func (r *ChannelRepository) Get(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	err := r.db.GetContext(ctx, &ch, r.db.Rebind("SELECT "+channelColumns+" FROM channels WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel %s: %w", id, err)
	}
	return &ch, nil
}

// Add stores a channel with the local subscription override set. The next
// sync drops it again unless the channel is in the remote listing.
func (r *ChannelRepository) Add(ctx context.Context, ch models.Channel) (*models.Channel, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := tx.Find(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	ch.Subscribed = existing != nil && existing.Subscribed
	ch.SubscribedOverride = true
	if _, err := tx.Upsert(ctx, &ch); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit pinned channel %s: %w", ch.ID, err)
	}
	return &ch, nil
}

type channelTx struct {
	tx *sqlx.Tx
}

func (t *channelTx) Find(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	err := t.tx.GetContext(ctx, &ch, t.tx.Rebind("SELECT "+channelColumns+" FROM channels WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find channel %s: %w", id, err)
	}
	return &ch, nil
}

func (t *channelTx) Upsert(ctx context.Context, ch *models.Channel) (bool, error) {
	existing, err := t.Find(ctx, ch.ID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	if existing == nil {
		_, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
			INSERT INTO channels (id, title, description, uploads_playlist_id, thumbnail_url,
				subscribed, subscribed_override, snippet, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			ch.ID, ch.Title, ch.Description, ch.UploadsPlaylistID, ch.ThumbnailURL,
			ch.Subscribed, ch.SubscribedOverride, ch.Snippet, now, now)
		if err != nil {
			return false, fmt.Errorf("insert channel %s: %w", ch.ID, err)
		}
		ch.CreatedAt, ch.UpdatedAt = now, now
		return true, nil
	}

	// The override is a local decision; a remote update never clears it.
	ch.SubscribedOverride = ch.SubscribedOverride || existing.SubscribedOverride
	_, err = t.tx.ExecContext(ctx, t.tx.Rebind(`
		UPDATE channels
		SET title = ?, description = ?, uploads_playlist_id = ?, thumbnail_url = ?,
			subscribed = ?, subscribed_override = ?, snippet = ?, updated_at = ?
		WHERE id = ?`),
		ch.Title, ch.Description, ch.UploadsPlaylistID, ch.ThumbnailURL,
		ch.Subscribed, ch.SubscribedOverride, ch.Snippet, now, ch.ID)
	if err != nil {
		return false, fmt.Errorf("update channel %s: %w", ch.ID, err)
	}
	ch.CreatedAt, ch.UpdatedAt = existing.CreatedAt, now
	return false, nil
}

func (t *channelTx) DeleteNotIn(ctx context.Context, ids []string) (int64, error) {
	query := "DELETE FROM channels"
	var args []interface{}
	if len(ids) > 0 {
		var err error
		query, args, err = sqlx.In(query+" WHERE id NOT IN (?)", ids)
		if err != nil {
			return 0, fmt.Errorf("build channel delete: %w", err)
		}
	}

	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete stale channels: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale channels: %w", err)
	}
	return deleted, nil
}

func (t *channelTx) Commit() error {
	return t.tx.Commit()
}

func (t *channelTx) Rollback() error {
	return t.tx.Rollback()
}
