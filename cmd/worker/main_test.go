package main

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	task := asynq.NewTask("subscriptions:sync", nil)

	assert.Equal(t, 5*time.Minute, retryDelay(0, nil, task))
	assert.Equal(t, 20*time.Minute, retryDelay(2, nil, task))
	assert.Equal(t, 24*time.Hour, retryDelay(20, nil, task))
}
