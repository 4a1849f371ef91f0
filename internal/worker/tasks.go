package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskGeneratePlan = "contentplan:generate"
)

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueGeneratePlan enqueues a content plan generation task. The task gets
// a 10-minute timeout and no retries: a failed AI call marks the plan failed
// exactly once instead of re-spending tokens.
func EnqueueGeneratePlan(planID uint) error {
	payload, err := json.Marshal(map[string]uint{
		"plan_id": planID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskGeneratePlan,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}
