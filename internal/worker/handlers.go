package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"yt-subtracker/internal/auth"
	"yt-subtracker/internal/models"
	"yt-subtracker/internal/reconcile"
	"yt-subtracker/internal/youtube"
	"yt-subtracker/pkg/tasks"
)

// ChannelSource reads the channel cache.
type ChannelSource interface {
	List(ctx context.Context) ([]models.Channel, error)
	Get(ctx context.Context, id string) (*models.Channel, error)
}

// Deps holds what the task handlers need. Session and Uploads are called per
// task so that a token stored after the worker started is picked up.
type Deps struct {
	Enqueuer         tasks.TaskEnqueuer
	Reconciler       *reconcile.Reconciler
	Channels         ChannelSource
	Session          func(ctx context.Context) (reconcile.Remote, error)
	Uploads          func(ctx context.Context) (reconcile.UploadsLister, error)
	UploadsPageLimit int
	DefaultWatchPrio int
}

type TaskHandler struct {
	asynqClient tasks.TaskEnqueuer
	deps        Deps
}

func NewTaskHandler(deps Deps) *TaskHandler {
	return &TaskHandler{asynqClient: deps.Enqueuer, deps: deps}
}

// Register adds the handlers to an asynq mux.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeSyncSubscriptions, h.HandleSyncSubscriptionsTask)
	mux.HandleFunc(tasks.TypeRefreshAllUploads, h.HandleRefreshAllUploadsTask)
	mux.HandleFunc(tasks.TypeRefreshUploads, h.HandleRefreshUploadsTask)
}

func (h *TaskHandler) HandleSyncSubscriptionsTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Syncing subscriptions...")

	remote, err := h.deps.Session(ctx)
	if err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		return fmt.Errorf("failed to open youtube session: %w", err)
	}

	channels, err := h.deps.Reconciler.Sync(ctx, remote)
	if errors.Is(err, youtube.ErrNoSession) {
		log.Println("Skipping sync: not authorized with YouTube, run the auth command first")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to sync subscriptions: %w", err)
	}

	log.Printf("Finished syncing %d subscriptions.", len(channels))
	return nil
}

func (h *TaskHandler) HandleRefreshAllUploadsTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Refreshing uploads of all channels...")

	channels, err := h.deps.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	for _, ch := range channels {
		if !ch.Subscribed && !ch.SubscribedOverride {
			continue
		}
		task, err := tasks.NewRefreshUploadsTask(ch.ID)
		if err != nil {
			log.Printf("failed to create refresh task for channel %s: %v", ch.ID, err)
			continue
		}

		_, err = h.asynqClient.Enqueue(task)
		if err != nil {
			log.Printf("failed to enqueue refresh task for channel %s: %v", ch.ID, err)
			continue
		}
	}

	log.Println("Finished queueing upload refreshes.")
	return nil
}

func (h *TaskHandler) HandleRefreshUploadsTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.RefreshUploadsTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	log.Printf("Refreshing uploads for channel: %s", p.ChannelID)

	ch, err := h.deps.Channels.Get(ctx, p.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}
	if ch == nil {
		log.Printf("Channel %s is no longer cached, skipping", p.ChannelID)
		return nil
	}

	lister, err := h.deps.Uploads(ctx)
	if errors.Is(err, auth.ErrTokenNotFound) || errors.Is(err, youtube.ErrNoSession) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to open youtube session: %w", err)
	}

	added, err := reconcile.RefreshUploads(ctx, lister, *ch, h.deps.UploadsPageLimit, h.deps.DefaultWatchPrio)
	if err != nil {
		return fmt.Errorf("failed to refresh uploads for %s: %w", p.ChannelID, err)
	}

	log.Printf("Channel %s: %d new videos", p.ChannelID, len(added))
	return nil
}
