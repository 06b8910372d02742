package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type AmazonImagePush struct {
	ID             uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	AssetID        uuid.UUID      `gorm:"column:asset_id;type:uuid;index"`
	ASIN           string         `gorm:"column:asin;type:varchar(20);index"`
	Slot           string         `gorm:"column:slot;type:varchar(10)"`
	ImageURL       string         `gorm:"column:image_url;type:varchar(2048)"`
	Status         string         `gorm:"column:status;type:varchar(20);default:PENDING"`
	SubmissionID   string         `gorm:"column:submission_id;type:varchar(255)"`
	AmazonResponse datatypes.JSON `gorm:"column:amazon_response"`
	ErrorMessage   string         `gorm:"column:error_message;type:text"`
	CompletedAt    *time.Time     `gorm:"column:completed_at"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`

	Asset *GeneratedAsset `gorm:"foreignKey:AssetID;references:ID"`
}

func (AmazonImagePush) TableName() string {
	return "amazon_image_pushes"
}

func (s *service) CreateImagePushes(ctx context.Context, upushes []usecase.AmazonImagePush) ([]usecase.AmazonImagePush, error) {
	rows := make([]AmazonImagePush, 0, len(upushes))
	for _, up := range upushes {
		rows = append(rows, AmazonImagePush{
			AssetID:  up.AssetID,
			ASIN:     up.ASIN,
			Slot:     up.Slot,
			ImageURL: up.ImageURL,
			Status:   string(up.Status),
		})
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]usecase.AmazonImagePush, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ConvertToUsecase())
	}
	return out, nil
}

func (s *service) ListImagePushes(ctx context.Context, opt usecase.ListImagePushesOption) ([]usecase.AmazonImagePush, int, error) {
	var (
		pushes  []AmazonImagePush
		upushes []usecase.AmazonImagePush
		count   int64
	)

	db := s.db.Model([]AmazonImagePush{}).WithContext(ctx)

	if len(opt.AssetIDs) > 0 {
		db = db.Where("asset_id IN ?", opt.AssetIDs)
	}
	if opt.ASIN != "" {
		db = db.Where("asin = ?", opt.ASIN)
	}
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

	if err := db.Order("created_at DESC").Find(&pushes).Error; err != nil {
		return nil, 0, err
	}
	for _, p := range pushes {
		upushes = append(upushes, p.ConvertToUsecase())
	}
	return upushes, int(count), nil
}

// ResolveImagePushes settles PENDING rows with a definitive outcome.
// Already-resolved rows are left alone so reconciliation never
// overwrites a result the push path already recorded.
func (s *service) ResolveImagePushes(ctx context.Context, ids []uuid.UUID, outcome usecase.PushOutcome) error {
	updates := map[string]any{
		"status":        string(outcome.Status),
		"submission_id": outcome.SubmissionID,
		"error_message": outcome.ErrorMessage,
		"completed_at":  outcome.CompletedAt,
	}
	if len(outcome.Response) > 0 {
		updates["amazon_response"] = datatypes.JSON(outcome.Response)
	}
	return s.db.
		WithContext(ctx).
		Model(&AmazonImagePush{}).
		Where("id IN ? AND status = ?", ids, string(usecase.PushStatusPending)).
		Updates(updates).
		Error
}

func (s *service) ListStalePendingPushes(ctx context.Context, olderThan time.Time) ([]usecase.AmazonImagePush, error) {
	var pushes []AmazonImagePush
	err := s.db.
		WithContext(ctx).
		Where("status = ? AND created_at < ?", string(usecase.PushStatusPending), olderThan).
		Order("created_at ASC").
		Find(&pushes).
		Error
	if err != nil {
		return nil, err
	}

	upushes := make([]usecase.AmazonImagePush, 0, len(pushes))
	for _, p := range pushes {
		upushes = append(upushes, p.ConvertToUsecase())
	}
	return upushes, nil
}

func (p AmazonImagePush) ConvertToUsecase() usecase.AmazonImagePush {
	return usecase.AmazonImagePush{
		ID:             p.ID,
		AssetID:        p.AssetID,
		ASIN:           p.ASIN,
		Slot:           p.Slot,
		ImageURL:       p.ImageURL,
		Status:         usecase.PushStatus(p.Status),
		SubmissionID:   p.SubmissionID,
		AmazonResponse: p.AmazonResponse,
		ErrorMessage:   p.ErrorMessage,
		CompletedAt:    p.CompletedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
