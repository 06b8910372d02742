package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type PromptOverride struct {
	ID           uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;index"`
	AssetTypeID  uuid.UUID `gorm:"column:asset_type_id;type:uuid"`
	CustomPrompt string    `gorm:"column:custom_prompt;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (PromptOverride) TableName() string {
	return "prompt_overrides"
}

func (s *service) GetPromptOverride(ctx context.Context, productID, assetTypeID uuid.UUID) (usecase.PromptOverride, error) {
	var po PromptOverride
	err := s.db.
		WithContext(ctx).
		First(&po, "product_id = ? AND asset_type_id = ?", productID, assetTypeID).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.PromptOverride{}, usecase.ErrNotFound{
				Code:    "prompt_override_not_found",
				Message: "no prompt override for this product and asset type",
			}
		}
		return usecase.PromptOverride{}, err
	}
	return po.ConvertToUsecase(), nil
}

func (s *service) UpsertPromptOverride(ctx context.Context, upo usecase.PromptOverride) (usecase.PromptOverride, error) {
	po := PromptOverride{
		ProductID:    upo.ProductID,
		AssetTypeID:  upo.AssetTypeID,
		CustomPrompt: upo.CustomPrompt,
	}
	err := s.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "asset_type_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"custom_prompt", "updated_at"}),
		}, clause.Returning{}).
		Create(&po).
		Error
	if err != nil {
		return usecase.PromptOverride{}, err
	}
	return po.ConvertToUsecase(), nil
}

func (s *service) DeletePromptOverride(ctx context.Context, productID, assetTypeID uuid.UUID) error {
	return s.db.
		WithContext(ctx).
		Where("product_id = ? AND asset_type_id = ?", productID, assetTypeID).
		Delete(&PromptOverride{}).
		Error
}

func (po PromptOverride) ConvertToUsecase() usecase.PromptOverride {
	return usecase.PromptOverride{
		ID:           po.ID,
		ProductID:    po.ProductID,
		AssetTypeID:  po.AssetTypeID,
		CustomPrompt: po.CustomPrompt,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
}
