package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestEnqueueGenerationJobValidation(t *testing.T) {
	u, _ := newTestUsecase(&fakeRepo{})

	_, err := u.EnqueueGenerationJob(context.Background(), EnqueueGenerationJobOption{})
	var ve ErrValidation
	if !errors.As(err, &ve) || ve.Code != "empty_job" {
		t.Fatalf("err = %v, want empty_job", err)
	}
}

func TestEnqueueGenerationJob(t *testing.T) {
	products := uuid.UUIDs{uuid.New(), uuid.New(), uuid.New()}
	types := uuid.UUIDs{uuid.New(), uuid.New()}

	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id}, nil
		},
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id}, nil
		},
	}
	q := &fakeQueue{}
	u := New(repo, newFakeStorage(), &fakeGenerator{}, &fakeMarketplace{}, &fakeMailer{}, &fakeLock{}, q, nil)

	job, err := u.EnqueueGenerationJob(context.Background(), EnqueueGenerationJobOption{
		ProductIDs:   products,
		AssetTypeIDs: types,
		Priority:     2,
	})
	if err != nil {
		t.Fatalf("EnqueueGenerationJob: %v", err)
	}
	if job.Status != JobStatusQueued {
		t.Errorf("status = %s, want QUEUED", job.Status)
	}
	if job.TotalImages != 6 {
		t.Errorf("total images = %d, want 6", job.TotalImages)
	}
	if len(q.enqueued) != 1 || q.enqueued[0] != job.ID {
		t.Errorf("enqueued = %v", q.enqueued)
	}
}

func TestEnqueueGenerationJobSurvivesQueueFailure(t *testing.T) {
	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id}, nil
		},
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id}, nil
		},
	}
	q := &fakeQueue{err: errors.New("redis down")}
	u := New(repo, newFakeStorage(), &fakeGenerator{}, &fakeMarketplace{}, &fakeMailer{}, &fakeLock{}, q, nil)

	job, err := u.EnqueueGenerationJob(context.Background(), EnqueueGenerationJobOption{
		ProductIDs:   uuid.UUIDs{uuid.New()},
		AssetTypeIDs: uuid.UUIDs{uuid.New()},
	})
	if err != nil {
		t.Fatalf("the ticket is durable, a queue outage is not fatal: %v", err)
	}
	if job.Status != JobStatusQueued {
		t.Errorf("status = %s, want QUEUED", job.Status)
	}
}

func processJobRepo(job *GenerationJob) *fakeRepo {
	version := 0
	return &fakeRepo{
		getGenerationJobByID: func(ctx context.Context, id uuid.UUID) (GenerationJob, error) {
			return *job, nil
		},
		updateGenerationJob: func(ctx context.Context, j GenerationJob) (GenerationJob, error) {
			*job = j
			return j, nil
		},
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Desk"}, nil
		},
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id, Name: "main", Kind: AssetKindImage, DefaultPrompt: "shot"}, nil
		},
		nextAssetVersion: func(ctx context.Context, pid, atid uuid.UUID) (int, error) {
			version++
			return version, nil
		},
	}
}

func TestProcessGenerationJobSkipsNonQueued(t *testing.T) {
	job := GenerationJob{ID: uuid.New(), Status: JobStatusCompleted}
	repo := processJobRepo(&job)
	repo.updateGenerationJob = func(ctx context.Context, j GenerationJob) (GenerationJob, error) {
		t.Fatal("a finished job must not be touched")
		return j, nil
	}
	u, _ := newTestUsecase(repo)

	if err := u.ProcessGenerationJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessGenerationJob: %v", err)
	}
}

func TestProcessGenerationJobCompletes(t *testing.T) {
	job := GenerationJob{
		ID:           uuid.New(),
		Status:       JobStatusQueued,
		ProductIDs:   uuid.UUIDs{uuid.New(), uuid.New()},
		AssetTypeIDs: uuid.UUIDs{uuid.New()},
		TotalImages:  2,
	}
	u, _ := newTestUsecase(processJobRepo(&job))

	if err := u.ProcessGenerationJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessGenerationJob: %v", err)
	}
	if job.Status != JobStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", job.Status)
	}
	if job.CompletedImages != 2 {
		t.Errorf("completed = %d, want 2", job.CompletedImages)
	}
	if job.StartedAt == nil || job.FinishedAt == nil {
		t.Error("timestamps not recorded")
	}
}

func TestProcessGenerationJobPartialFailure(t *testing.T) {
	goodProduct, badProduct := uuid.New(), uuid.New()
	job := GenerationJob{
		ID:           uuid.New(),
		Status:       JobStatusQueued,
		ProductIDs:   uuid.UUIDs{goodProduct, badProduct},
		AssetTypeIDs: uuid.UUIDs{uuid.New()},
		TotalImages:  2,
	}
	repo := processJobRepo(&job)
	repo.getProductByID = func(ctx context.Context, id uuid.UUID) (Product, error) {
		if id == badProduct {
			return Product{}, ErrNotFound{ID: id, Code: "product_not_found", Message: "product not found"}
		}
		return Product{ID: id, Title: "Desk"}, nil
	}
	u, _ := newTestUsecase(repo)

	if err := u.ProcessGenerationJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessGenerationJob: %v", err)
	}
	if job.Status != JobStatusCompleted {
		t.Errorf("status = %s, a partial failure still completes", job.Status)
	}
	if job.CompletedImages != 1 {
		t.Errorf("completed = %d, want 1", job.CompletedImages)
	}
	if job.Error == "" {
		t.Error("partial failure not recorded on the job")
	}
}

func TestProcessGenerationJobAllFailed(t *testing.T) {
	job := GenerationJob{
		ID:           uuid.New(),
		Status:       JobStatusQueued,
		ProductIDs:   uuid.UUIDs{uuid.New()},
		AssetTypeIDs: uuid.UUIDs{uuid.New()},
		TotalImages:  1,
	}
	repo := processJobRepo(&job)
	repo.getProductByID = func(ctx context.Context, id uuid.UUID) (Product, error) {
		return Product{}, ErrNotFound{ID: id, Code: "product_not_found", Message: "product not found"}
	}
	u, _ := newTestUsecase(repo)

	if err := u.ProcessGenerationJob(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessGenerationJob: %v", err)
	}
	if job.Status != JobStatusFailed {
		t.Errorf("status = %s, want FAILED when nothing succeeded", job.Status)
	}
	if job.Error == "" {
		t.Error("failure cause not recorded")
	}
}
