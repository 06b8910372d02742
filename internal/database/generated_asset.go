package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type GeneratedAsset struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;index"`
	AssetTypeID uuid.UUID `gorm:"column:asset_type_id;type:uuid;index"`
	Status      string    `gorm:"column:status;type:varchar(20);default:PENDING"`
	Version     int       `gorm:"column:version"`
	Path        string    `gorm:"column:path;type:varchar(1024)"`
	PromptUsed  string    `gorm:"column:prompt_used;type:text"`
	Width       int       `gorm:"column:width"`
	Height      int       `gorm:"column:height"`
	FileSize    int64     `gorm:"column:file_size"`
	Duration    float64   `gorm:"column:duration"`
	Colors      datatypes.JSON `gorm:"column:colors"`
	Error       string         `gorm:"column:error;type:text"`

	ParentAssetID *uuid.UUID `gorm:"column:parent_asset_id;type:uuid"`
	SourceImageID *uuid.UUID `gorm:"column:source_image_id;type:uuid"`

	OperationName string `gorm:"column:operation_name;type:varchar(512)"`
	AIModel       string `gorm:"column:ai_model;type:varchar(255)"`

	AmazonSlot       string     `gorm:"column:amazon_slot;type:varchar(10)"`
	AmazonPushStatus string     `gorm:"column:amazon_push_status;type:varchar(20)"`
	AmazonPushedAt   *time.Time `gorm:"column:amazon_pushed_at"`

	LockVersion int `gorm:"column:lock_version;default:0"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt

	Product   *Product   `gorm:"foreignKey:ProductID;references:ID"`
	AssetType *AssetType `gorm:"foreignKey:AssetTypeID;references:ID"`
	Comments  []Comment  `gorm:"foreignKey:AssetID;references:ID"`
}

func (GeneratedAsset) TableName() string {
	return "generated_assets"
}

// AssetVersionCounter backs version allocation. One row per
// (product, asset type) pair holding the next version to hand out.
type AssetVersionCounter struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AssetTypeID uuid.UUID `gorm:"column:asset_type_id;type:uuid;primaryKey"`
	Next        int       `gorm:"column:next"`
}

func (AssetVersionCounter) TableName() string {
	return "asset_version_counters"
}

// NextAssetVersion hands out a version number exactly once per call.
// The upsert increments and returns in a single statement, so two
// concurrent generations can never see the same number.
func (s *service) NextAssetVersion(ctx context.Context, productID, assetTypeID uuid.UUID) (int, error) {
	var next int
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO asset_version_counters (product_id, asset_type_id, next)
		VALUES (?, ?, 1)
		ON CONFLICT (product_id, asset_type_id)
		DO UPDATE SET next = asset_version_counters.next + 1
		RETURNING next`,
		productID, assetTypeID,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *service) ListGeneratedAssets(ctx context.Context, opt usecase.ListGeneratedAssetsOption) ([]usecase.GeneratedAsset, int, error) {
	var (
		assets  []GeneratedAsset
		uassets []usecase.GeneratedAsset
		count   int64
	)

	db := s.db.Model([]GeneratedAsset{}).WithContext(ctx)

	if len(opt.ProductIDs) > 0 {
		db = db.Where("product_id IN ?", opt.ProductIDs)
	}
	if len(opt.AssetTypeIDs) > 0 {
		db = db.Where("asset_type_id IN ?", opt.AssetTypeIDs)
	}
	if len(opt.Statuses) > 0 {
		db = db.Where("status IN ?", opt.Statuses)
	}
	if opt.PushStatus != "" {
		db = db.Where("amazon_push_status = ?", opt.PushStatus)
	}

	var (
		orderBy = "created_at"
		desc    = true
	)
	switch opt.SortBy {
	case "version", "created_at", "updated_at", "status":
		orderBy = opt.SortBy
	}
	if opt.SortIn == "asc" || opt.SortIn == "ASC" {
		desc = false
	}
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}, Desc: desc})

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}

	if err := db.Preload("AssetType").Find(&assets).Error; err != nil {
		return nil, 0, err
	}

	for _, a := range assets {
		ua := a.ConvertToUsecase()
		if a.AssetType != nil {
			at := a.AssetType.ConvertToUsecase()
			ua.AssetType = &at
		}
		uassets = append(uassets, ua)
	}
	return uassets, int(count), nil
}

func (s *service) GetGeneratedAssetByID(ctx context.Context, id uuid.UUID) (usecase.GeneratedAsset, error) {
	var a GeneratedAsset
	err := s.db.
		WithContext(ctx).
		Preload("Product").
		Preload("AssetType").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&a, "id = ?", id).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.GeneratedAsset{}, usecase.ErrNotFound{
				ID:      id,
				Code:    "asset_not_found",
				Message: "generated asset " + id.String() + " not found",
			}
		}
		return usecase.GeneratedAsset{}, err
	}

	ua := a.ConvertToUsecase()
	if a.Product != nil {
		p := a.Product.ConvertToUsecase()
		ua.Product = &p
	}
	if a.AssetType != nil {
		at := a.AssetType.ConvertToUsecase()
		ua.AssetType = &at
	}
	for _, c := range a.Comments {
		ua.Comments = append(ua.Comments, c.ConvertToUsecase())
	}
	return ua, nil
}

func (s *service) CreateGeneratedAsset(ctx context.Context, ua usecase.GeneratedAsset) (usecase.GeneratedAsset, error) {
	a := GeneratedAsset{
		ProductID:     ua.ProductID,
		AssetTypeID:   ua.AssetTypeID,
		Status:        string(ua.Status),
		Version:       ua.Version,
		Path:          ua.Path,
		PromptUsed:    ua.PromptUsed,
		ParentAssetID: ua.ParentAssetID,
		SourceImageID: ua.SourceImageID,
		OperationName: ua.OperationName,
		AIModel:       ua.AIModel,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&a).Error; err != nil {
		return usecase.GeneratedAsset{}, err
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) UpdateGeneratedAsset(ctx context.Context, ua usecase.GeneratedAsset) (usecase.GeneratedAsset, error) {
	a := GeneratedAsset{
		ID:            ua.ID,
		Status:        string(ua.Status),
		Path:          ua.Path,
		Width:         ua.Width,
		Height:        ua.Height,
		FileSize:      ua.FileSize,
		Duration:      ua.Duration,
		Colors:        datatypes.JSON(ua.Colors),
		Error:         ua.Error,
		OperationName: ua.OperationName,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Updates(&a).Error; err != nil {
		return usecase.GeneratedAsset{}, err
	}
	return a.ConvertToUsecase(), nil
}

// UpdateAssetStatusCAS applies a review transition only if the caller
// still holds the row's current lock_version. Zero rows affected means
// either a concurrent transition won or the asset is gone; the caller
// gets the error matching what it finds on re-read.
func (s *service) UpdateAssetStatusCAS(ctx context.Context, id uuid.UUID, lockVersion int, status usecase.AssetStatus) (usecase.GeneratedAsset, error) {
	var a GeneratedAsset
	res := s.db.
		WithContext(ctx).
		Model(&a).
		Clauses(clause.Returning{}).
		Where("id = ? AND lock_version = ?", id, lockVersion).
		Updates(map[string]any{
			"status":       string(status),
			"lock_version": gorm.Expr("lock_version + 1"),
		})
	if res.Error != nil {
		return usecase.GeneratedAsset{}, res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := s.db.WithContext(ctx).Model(&GeneratedAsset{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return usecase.GeneratedAsset{}, err
		}
		if exists == 0 {
			return usecase.GeneratedAsset{}, usecase.ErrNotFound{
				ID:      id,
				Code:    "asset_not_found",
				Message: "generated asset " + id.String() + " not found",
			}
		}
		return usecase.GeneratedAsset{}, usecase.ErrConflict{
			Code:    "asset_version_conflict",
			Message: "asset was modified by another reviewer, reload and retry",
		}
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) SetAssetPushStatus(ctx context.Context, ids []uuid.UUID, status string, pushedAt *time.Time) error {
	updates := map[string]any{"amazon_push_status": status}
	if pushedAt != nil {
		updates["amazon_pushed_at"] = *pushedAt
	}
	return s.db.
		WithContext(ctx).
		Model(&GeneratedAsset{}).
		Where("id IN ?", ids).
		Updates(updates).
		Error
}

func (a GeneratedAsset) ConvertToUsecase() usecase.GeneratedAsset {
	var d *time.Time
	if a.DeletedAt != nil {
		d = &a.DeletedAt.Time
	}
	return usecase.GeneratedAsset{
		ID:               a.ID,
		ProductID:        a.ProductID,
		AssetTypeID:      a.AssetTypeID,
		Status:           usecase.AssetStatus(a.Status),
		Version:          a.Version,
		Path:             a.Path,
		PromptUsed:       a.PromptUsed,
		Width:            a.Width,
		Height:           a.Height,
		FileSize:         a.FileSize,
		Duration:         a.Duration,
		Colors:           a.Colors,
		Error:            a.Error,
		ParentAssetID:    a.ParentAssetID,
		SourceImageID:    a.SourceImageID,
		OperationName:    a.OperationName,
		AIModel:          a.AIModel,
		AmazonSlot:       a.AmazonSlot,
		AmazonPushStatus: a.AmazonPushStatus,
		AmazonPushedAt:   a.AmazonPushedAt,
		LockVersion:      a.LockVersion,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		DeletedAt:        d,
	}
}
