package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TaskGenerationProcess = "generation:process"
	TaskPushReconcile     = "publish:reconcile"
	TaskVideoPoll         = "video:poll"
)

// Client wraps asynq.Client for enqueuing tasks
type Client struct {
	client *asynq.Client
}

// NewClient creates a new queue client
func NewClient(redisAddr string, redisPassword string) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	})

	return &Client{
		client: client,
	}
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}

type GenerationTaskPayload struct {
	JobID string `json:"job_id"`
}

// EnqueueGenerationJob enqueues a generation job, routed by priority.
func (c *Client) EnqueueGenerationJob(ctx context.Context, jobID uuid.UUID, priority int) error {
	payload, err := json.Marshal(GenerationTaskPayload{JobID: jobID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TaskGenerationProcess, payload)

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(queueForPriority(priority)))
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

func queueForPriority(priority int) string {
	switch {
	case priority >= 2:
		return "critical"
	case priority == 1:
		return "default"
	default:
		return "low"
	}
}
