package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeSyncSubscriptions = "subscriptions:sync"
	TypeRefreshAllUploads = "uploads:refresh_all"
	TypeRefreshUploads    = "uploads:refresh"
)

// NewSyncSubscriptionsTask is unique for a while so that at most one sync is
// queued at a time.
func NewSyncSubscriptionsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSyncSubscriptions, nil, asynq.Unique(30*time.Minute), asynq.MaxRetry(3)), nil
}

func NewRefreshAllUploadsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeRefreshAllUploads, nil, asynq.Unique(30*time.Minute)), nil
}

type RefreshUploadsTaskPayload struct {
	ChannelID string
}

func NewRefreshUploadsTask(channelID string) (*asynq.Task, error) {
	payload, err := json.Marshal(RefreshUploadsTaskPayload{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRefreshUploads, payload, asynq.MaxRetry(5)), nil
}
