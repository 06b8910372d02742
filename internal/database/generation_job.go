package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type GenerationJob struct {
	ID              uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	ProductIDs      datatypes.JSON `gorm:"column:product_ids"`
	AssetTypeIDs    datatypes.JSON `gorm:"column:asset_type_ids"`
	Status          string         `gorm:"column:status;type:varchar(20);default:QUEUED"`
	Priority        int            `gorm:"column:priority;default:0"`
	TotalImages     int            `gorm:"column:total_images"`
	CompletedImages int            `gorm:"column:completed_images"`
	Error           string         `gorm:"column:error;type:text"`
	StartedAt       *time.Time     `gorm:"column:started_at"`
	FinishedAt      *time.Time     `gorm:"column:finished_at"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       *gorm.DeletedAt
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}

func (s *service) CreateGenerationJob(ctx context.Context, uj usecase.GenerationJob) (usecase.GenerationJob, error) {
	productIDs, err := json.Marshal(uj.ProductIDs)
	if err != nil {
		return usecase.GenerationJob{}, err
	}
	assetTypeIDs, err := json.Marshal(uj.AssetTypeIDs)
	if err != nil {
		return usecase.GenerationJob{}, err
	}

	j := GenerationJob{
		ProductIDs:   productIDs,
		AssetTypeIDs: assetTypeIDs,
		Status:       string(uj.Status),
		Priority:     uj.Priority,
		TotalImages:  uj.TotalImages,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&j).Error; err != nil {
		return usecase.GenerationJob{}, err
	}
	return j.ConvertToUsecase(), nil
}

func (s *service) ListGenerationJobs(ctx context.Context, opt usecase.ListGenerationJobsOption) ([]usecase.GenerationJob, int, error) {
	var (
		jobs  []GenerationJob
		ujobs []usecase.GenerationJob
		count int64
	)

	db := s.db.Model([]GenerationJob{}).WithContext(ctx)
	if len(opt.Statuses) > 0 {
		db = db.Where("status IN ?", opt.Statuses)
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}

	if err := db.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	for _, j := range jobs {
		ujobs = append(ujobs, j.ConvertToUsecase())
	}
	return ujobs, int(count), nil
}

func (s *service) GetGenerationJobByID(ctx context.Context, id uuid.UUID) (usecase.GenerationJob, error) {
	var j GenerationJob
	err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.GenerationJob{}, usecase.ErrNotFound{
				ID:      id,
				Code:    "job_not_found",
				Message: "generation job " + id.String() + " not found",
			}
		}
		return usecase.GenerationJob{}, err
	}
	return j.ConvertToUsecase(), nil
}

func (s *service) UpdateGenerationJob(ctx context.Context, uj usecase.GenerationJob) (usecase.GenerationJob, error) {
	j := GenerationJob{
		ID:              uj.ID,
		Status:          string(uj.Status),
		CompletedImages: uj.CompletedImages,
		Error:           uj.Error,
		StartedAt:       uj.StartedAt,
		FinishedAt:      uj.FinishedAt,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Updates(&j).Error; err != nil {
		return usecase.GenerationJob{}, err
	}
	return j.ConvertToUsecase(), nil
}

func (j GenerationJob) ConvertToUsecase() usecase.GenerationJob {
	var d *time.Time
	if j.DeletedAt != nil {
		d = &j.DeletedAt.Time
	}

	var productIDs, assetTypeIDs uuid.UUIDs
	_ = json.Unmarshal(j.ProductIDs, &productIDs)
	_ = json.Unmarshal(j.AssetTypeIDs, &assetTypeIDs)

	return usecase.GenerationJob{
		ID:              j.ID,
		ProductIDs:      productIDs,
		AssetTypeIDs:    assetTypeIDs,
		Status:          usecase.JobStatus(j.Status),
		Priority:        j.Priority,
		TotalImages:     j.TotalImages,
		CompletedImages: j.CompletedImages,
		Error:           j.Error,
		StartedAt:       j.StartedAt,
		FinishedAt:      j.FinishedAt,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		DeletedAt:       d,
	}
}
