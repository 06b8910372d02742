package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// GenerationJob is a durable work ticket for a cross-product of
// (products × asset types) to generate. The ticket store works without a
// consumer; the bundled worker is one possible consumer.
type GenerationJob struct {
	ID              uuid.UUID
	ProductIDs      uuid.UUIDs
	AssetTypeIDs    uuid.UUIDs
	Status          JobStatus
	Priority        int
	TotalImages     int
	CompletedImages int
	Error           string
	StartedAt       *time.Time
	FinishedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

type ListGenerationJobsOption struct {
	Skip  int
	Limit int

	Statuses []JobStatus
}

type EnqueueGenerationJobOption struct {
	ProductIDs   uuid.UUIDs
	AssetTypeIDs uuid.UUIDs
	Priority     int
}

// EnqueueGenerationJob records a QUEUED ticket covering every
// (product, asset type) pair and hands it to the task queue.
func (u Usecase) EnqueueGenerationJob(ctx context.Context, opt EnqueueGenerationJobOption) (GenerationJob, error) {
	if len(opt.ProductIDs) == 0 || len(opt.AssetTypeIDs) == 0 {
		return GenerationJob{}, ErrValidation{
			Code:    "empty_job",
			Message: "a generation job needs at least one product and one asset type",
		}
	}

	for _, id := range opt.ProductIDs {
		if _, err := u.repo.GetProductByID(ctx, id); err != nil {
			return GenerationJob{}, err
		}
	}
	for _, id := range opt.AssetTypeIDs {
		if _, err := u.repo.GetAssetTypeByID(ctx, id); err != nil {
			return GenerationJob{}, err
		}
	}

	job, err := u.repo.CreateGenerationJob(ctx, GenerationJob{
		ProductIDs:   opt.ProductIDs,
		AssetTypeIDs: opt.AssetTypeIDs,
		Status:       JobStatusQueued,
		Priority:     opt.Priority,
		TotalImages:  len(opt.ProductIDs) * len(opt.AssetTypeIDs),
	})
	if err != nil {
		return GenerationJob{}, err
	}

	if u.queue != nil {
		if err := u.queue.EnqueueGenerationJob(ctx, job.ID, job.Priority); err != nil {
			// The ticket is durable; a consumer can still pick it up.
			u.log().ErrorContext(ctx, "failed to enqueue generation job",
				"job_id", job.ID, "err", err)
		}
	}

	return job, nil
}

func (u Usecase) ListGenerationJobs(ctx context.Context, opt ListGenerationJobsOption) ([]GenerationJob, int, error) {
	return u.repo.ListGenerationJobs(ctx, opt)
}

func (u Usecase) GetGenerationJobByID(ctx context.Context, id uuid.UUID) (GenerationJob, error) {
	return u.repo.GetGenerationJobByID(ctx, id)
}

// ProcessGenerationJob executes a queued ticket: RUNNING, then one image
// generation per (product, asset type) pair. Individual pair failures are
// recorded and the job continues; the job fails only when nothing
// succeeded.
func (u Usecase) ProcessGenerationJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := u.repo.GetGenerationJobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get generation job: %w", err)
	}
	if job.Status != JobStatusQueued {
		u.log().InfoContext(ctx, "skipping generation job not in QUEUED",
			"job_id", jobID, "status", job.Status)
		return nil
	}

	now := time.Now()
	job.Status = JobStatusRunning
	job.StartedAt = &now
	if job, err = u.repo.UpdateGenerationJob(ctx, job); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}

	var completed int
	var firstErr error
	for _, productID := range job.ProductIDs {
		for _, assetTypeID := range job.AssetTypeIDs {
			if _, err := u.GenerateImage(ctx, GenerateAssetOption{
				ProductID:   productID,
				AssetTypeID: assetTypeID,
			}); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				u.log().WarnContext(ctx, "generation job pair failed",
					"job_id", jobID, "product_id", productID,
					"asset_type_id", assetTypeID, "err", err)
				continue
			}
			completed++
		}
	}

	finished := time.Now()
	job.CompletedImages = completed
	job.FinishedAt = &finished
	if completed == 0 && firstErr != nil {
		job.Status = JobStatusFailed
		job.Error = firstErr.Error()
	} else {
		job.Status = JobStatusCompleted
		if firstErr != nil {
			job.Error = fmt.Sprintf("%d of %d images failed: %v",
				job.TotalImages-completed, job.TotalImages, firstErr)
		}
	}

	if _, err := u.repo.UpdateGenerationJob(ctx, job); err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}
	return nil
}
