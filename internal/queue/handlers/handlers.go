package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/listora/listora/internal/usecase"
)

// Handlers contains all queue task handlers. Each is a thin wrapper
// delegating to a usecase method.
type Handlers struct {
	usecase usecase.Usecase
	logger  *slog.Logger
}

func NewHandlers(uc usecase.Usecase, logger *slog.Logger) *Handlers {
	return &Handlers{
		usecase: uc,
		logger:  logger,
	}
}

type generationTaskPayload struct {
	JobID string `json:"job_id"`
}

// HandleGenerationJob processes a queued bulk generation job.
func (h *Handlers) HandleGenerationJob(ctx context.Context, task *asynq.Task) error {
	var payload generationTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		h.logger.Error("parse generation task payload", "error", err)
		return err
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		h.logger.Error("invalid job id in task payload", "job_id", payload.JobID, "error", err)
		return err
	}

	h.logger.Info("processing generation job", "job_id", jobID)
	if err := h.usecase.ProcessGenerationJob(ctx, jobID); err != nil {
		h.logger.Error("generation job failed", "job_id", jobID, "error", err)
		return err
	}

	h.logger.Info("generation job completed", "job_id", jobID)
	return nil
}

// HandlePushReconcile settles push rows stuck in PENDING.
func (h *Handlers) HandlePushReconcile(ctx context.Context, _ *asynq.Task) error {
	resolved, err := h.usecase.ReconcilePendingPushes(ctx)
	if err != nil {
		h.logger.Error("push reconciliation failed", "error", err)
		return err
	}
	if resolved > 0 {
		h.logger.Info("push reconciliation resolved rows", "count", resolved)
	}
	return nil
}

// HandleVideoPoll checks outstanding video generation operations.
func (h *Handlers) HandleVideoPoll(ctx context.Context, _ *asynq.Task) error {
	resolved, err := h.usecase.PollPendingVideoOperations(ctx)
	if err != nil {
		h.logger.Error("video operation poll failed", "error", err)
		return err
	}
	if resolved > 0 {
		h.logger.Info("video operations resolved", "count", resolved)
	}
	return nil
}
