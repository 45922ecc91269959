// Package reconcile mirrors the user's remote subscription list into the
// local channel cache.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"yt-subtracker/internal/db"
	"yt-subtracker/internal/models"
	"yt-subtracker/internal/youtube"
)

// Store opens transactions on the channel cache.
type Store interface {
	Begin(ctx context.Context) (db.ChannelTx, error)
}

// Remote is the part of the YouTube client a sync needs.
type Remote interface {
	Subscriptions() *youtube.SubscriptionPager
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
}

// Reconciler runs subscription syncs one at a time.
type Reconciler struct {
	store Store
	mu    sync.Mutex
}

func New(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Sync reads the complete remote subscription list and makes the cache match
// it: listed channels are inserted or updated, synced channels missing from
// the list are deleted. The store is written in one transaction after the
// whole list has been read, so a failed sync leaves it unchanged.
//
// The returned channels are in listing order with one entry per channel id.
func (r *Reconciler) Sync(ctx context.Context, remote Remote) ([]models.Channel, error) {
	if remote == nil {
		return nil, youtube.ErrNoSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.NewString()
	log.Printf("Sync %s: fetching subscriptions", runID)

	channels, err := fetch(ctx, remote)
	if err != nil {
		log.Printf("Sync %s: aborted before writing: %v", runID, err)
		return nil, err
	}
	if len(channels) == 0 {
		log.Printf("Sync %s: WARNING remote subscription list is empty, all synced channels will be removed", runID)
	}

	if err := r.apply(ctx, runID, channels); err != nil {
		log.Printf("Sync %s: failed: %v", runID, err)
		return nil, err
	}

	log.Printf("Sync %s: done, %d channels", runID, len(channels))
	return channels, nil
}

// fetch reads every page and resolves each channel's uploads playlist. A
// channel listed twice keeps its position from the first occurrence and the
// data of the last.
func fetch(ctx context.Context, remote Remote) ([]models.Channel, error) {
	pager := remote.Subscriptions()
	if pager == nil {
		return nil, youtube.ErrNoSession
	}

	channels := []models.Channel{}
	index := make(map[string]int)
	for !pager.Done() {
		subs, err := pager.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch subscriptions: %w", err)
		}
		for _, sub := range subs {
			uploads, err := remote.UploadsPlaylistID(ctx, sub.ChannelID)
			if err != nil {
				return nil, fmt.Errorf("resolve uploads for %s: %w", sub.ChannelID, err)
			}
			ch := channelFromSubscription(sub, uploads)
			if i, ok := index[ch.ID]; ok {
				channels[i] = ch
				continue
			}
			index[ch.ID] = len(channels)
			channels = append(channels, ch)
		}
	}
	return channels, nil
}

func channelFromSubscription(sub youtube.Subscription, uploadsPlaylistID string) models.Channel {
	return models.Channel{
		ID:                sub.ChannelID,
		Title:             sub.Title,
		Description:       sub.Description,
		UploadsPlaylistID: uploadsPlaylistID,
		ThumbnailURL:      sub.ThumbnailURL,
		Subscribed:        true,
		Snippet:           sub.Snippet,
	}
}

func (r *Reconciler) apply(ctx context.Context, runID string, channels []models.Channel) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				log.Printf("Sync %s: rollback failed: %v", runID, err)
			}
		}
	}()

	ids := make([]string, 0, len(channels))
	for i := range channels {
		inserted, err := tx.Upsert(ctx, &channels[i])
		if err != nil {
			return err
		}
		if inserted {
			log.Printf("Sync %s: new channel %s (%s)", runID, channels[i].ID, channels[i].Title)
		}
		ids = append(ids, channels[i].ID)
	}

	deleted, err := tx.DeleteNotIn(ctx, ids)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("Sync %s: removed %d unsubscribed channels", runID, deleted)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync: %w", err)
	}
	committed = true
	return nil
}
