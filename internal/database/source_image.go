package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type SourceImage struct {
	ID         uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;index"`
	Variant    string    `gorm:"column:variant;type:varchar(20)"`
	ImageOrder int       `gorm:"column:image_order"`
	OriginURL  string    `gorm:"column:origin_url;type:varchar(2048)"`
	Path       string    `gorm:"column:path;type:varchar(1024)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (SourceImage) TableName() string {
	return "source_images"
}

func (s *service) ListSourceImages(ctx context.Context, productID uuid.UUID) ([]usecase.SourceImage, error) {
	var imgs []SourceImage
	err := s.db.
		WithContext(ctx).
		Where("product_id = ?", productID).
		Order("image_order ASC").
		Find(&imgs).
		Error
	if err != nil {
		return nil, err
	}

	uimgs := make([]usecase.SourceImage, 0, len(imgs))
	for _, img := range imgs {
		uimgs = append(uimgs, img.ConvertToUsecase())
	}
	return uimgs, nil
}

func (s *service) GetSourceImageByID(ctx context.Context, id uuid.UUID) (usecase.SourceImage, error) {
	var img SourceImage
	err := s.db.WithContext(ctx).First(&img, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.SourceImage{}, usecase.ErrNotFound{
				ID:      id,
				Code:    "source_image_not_found",
				Message: "source image " + id.String() + " not found",
			}
		}
		return usecase.SourceImage{}, err
	}
	return img.ConvertToUsecase(), nil
}

// ReplaceSourceImages swaps a product's source set atomically so a
// half-finished catalog refresh never shows through.
func (s *service) ReplaceSourceImages(ctx context.Context, productID uuid.UUID, imgs []usecase.SourceImage) ([]usecase.SourceImage, error) {
	rows := make([]SourceImage, 0, len(imgs))
	for _, img := range imgs {
		rows = append(rows, SourceImage{
			ProductID:  productID,
			Variant:    img.Variant,
			ImageOrder: img.ImageOrder,
			OriginURL:  img.OriginURL,
			Path:       img.Path,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&SourceImage{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.Returning{}).Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	uimgs := make([]usecase.SourceImage, 0, len(rows))
	for _, row := range rows {
		uimgs = append(uimgs, row.ConvertToUsecase())
	}
	return uimgs, nil
}

func (img SourceImage) ConvertToUsecase() usecase.SourceImage {
	return usecase.SourceImage{
		ID:         img.ID,
		ProductID:  img.ProductID,
		Variant:    img.Variant,
		ImageOrder: img.ImageOrder,
		OriginURL:  img.OriginURL,
		Path:       img.Path,
		CreatedAt:  img.CreatedAt,
		UpdatedAt:  img.UpdatedAt,
	}
}
