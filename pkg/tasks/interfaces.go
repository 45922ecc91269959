package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskEnqueuer is satisfied by *asynq.Client. HTTP and worker handlers only
// need to push tasks, so they depend on this instead of the client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Registrar is satisfied by *asynq.Scheduler.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (entryID string, err error)
}

// RegisterPeriodic schedules the subscription sync followed by an uploads
// refresh on the same cron spec.
func RegisterPeriodic(s Registrar, spec string) error {
	syncTask, err := NewSyncSubscriptionsTask()
	if err != nil {
		return err
	}
	if _, err := s.Register(spec, syncTask); err != nil {
		return fmt.Errorf("register %s: %w", TypeSyncSubscriptions, err)
	}

	refreshTask, err := NewRefreshAllUploadsTask()
	if err != nil {
		return err
	}
	if _, err := s.Register(spec, refreshTask); err != nil {
		return fmt.Errorf("register %s: %w", TypeRefreshAllUploads, err)
	}
	return nil
}
