// Package test holds fakes and fixtures shared by package tests.
package test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"yt-subtracker/internal/db"
)

// MockTaskEnqueuer records enqueued tasks instead of sending them to Redis.
// A non-nil Err fails every Enqueue.
type MockTaskEnqueuer struct {
	EnqueuedTasks []*asynq.Task
	Err           error
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	return &asynq.TaskInfo{ID: "task-" + task.Type(), Type: task.Type(), Queue: "default"}, nil
}

// Types lists the type names of the recorded tasks in enqueue order.
func (m *MockTaskEnqueuer) Types() []string {
	types := make([]string, 0, len(m.EnqueuedTasks))
	for _, task := range m.EnqueuedTasks {
		types = append(types, task.Type())
	}
	return types
}

// NewMockDB points db.DB at a sqlmock connection for the duration of the
// test. Rebind produces $n placeholders, as with a real PostgreSQL driver.
func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}
	conn := sqlx.NewDb(raw, "postgres")

	previous := db.DB
	db.DB = conn
	t.Cleanup(func() {
		db.DB = previous
		raw.Close()
	})

	return conn, mock
}
