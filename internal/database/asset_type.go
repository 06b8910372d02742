package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type AssetType struct {
	ID            uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name          string    `gorm:"column:name;type:varchar(255)"`
	Kind          string    `gorm:"column:kind;type:varchar(10);default:IMAGE"`
	Order         int       `gorm:"column:display_order"`
	DefaultPrompt string    `gorm:"column:default_prompt;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
	DeletedAt     *gorm.DeletedAt

	PromptVersions []PromptVersion `gorm:"foreignKey:AssetTypeID;references:ID"`
}

func (AssetType) TableName() string {
	return "asset_types"
}

type PromptVersion struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	AssetTypeID uuid.UUID `gorm:"column:asset_type_id;type:uuid;index"`
	Version     int       `gorm:"column:version"`
	PromptText  string    `gorm:"column:prompt_text;type:text"`
	IsActive    bool      `gorm:"column:is_active;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (PromptVersion) TableName() string {
	return "prompt_versions"
}

func (s *service) ListAssetTypes(ctx context.Context, opt usecase.ListAssetTypesOption) ([]usecase.AssetType, int, error) {
	var (
		types  []AssetType
		utypes []usecase.AssetType
		count  int64
	)

	db := s.db.Model([]AssetType{}).WithContext(ctx)
	if opt.Kind != "" {
		db = db.Where("kind = ?", string(opt.Kind))
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

	if err := db.Order("display_order ASC").Find(&types).Error; err != nil {
		return nil, 0, err
	}
	for _, at := range types {
		utypes = append(utypes, at.ConvertToUsecase())
	}
	return utypes, int(count), nil
}

func (s *service) GetAssetTypeByID(ctx context.Context, id uuid.UUID) (usecase.AssetType, error) {
	var at AssetType
	err := s.db.
		WithContext(ctx).
		Preload("PromptVersions", func(db *gorm.DB) *gorm.DB {
			return db.Order("version DESC")
		}).
		First(&at, "id = ?", id).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.AssetType{}, usecase.ErrNotFound{
				ID:      id,
				Code:    "asset_type_not_found",
				Message: "asset type " + id.String() + " not found",
			}
		}
		return usecase.AssetType{}, err
	}

	uat := at.ConvertToUsecase()
	for _, pv := range at.PromptVersions {
		uat.PromptVersions = append(uat.PromptVersions, pv.ConvertToUsecase())
	}
	return uat, nil
}

func (s *service) CreateAssetType(ctx context.Context, uat usecase.AssetType) (usecase.AssetType, error) {
	at := AssetType{
		Name:          uat.Name,
		Kind:          string(uat.Kind),
		Order:         uat.Order,
		DefaultPrompt: uat.DefaultPrompt,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&at).Error; err != nil {
		return usecase.AssetType{}, err
	}
	return at.ConvertToUsecase(), nil
}

func (s *service) UpdateAssetType(ctx context.Context, uat usecase.AssetType) (usecase.AssetType, error) {
	at := AssetType{
		ID:            uat.ID,
		Name:          uat.Name,
		Kind:          string(uat.Kind),
		Order:         uat.Order,
		DefaultPrompt: uat.DefaultPrompt,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Updates(&at).Error; err != nil {
		return usecase.AssetType{}, err
	}
	return at.ConvertToUsecase(), nil
}

func (s *service) ListPromptVersions(ctx context.Context, assetTypeID uuid.UUID) ([]usecase.PromptVersion, error) {
	var pvs []PromptVersion
	err := s.db.
		WithContext(ctx).
		Where("asset_type_id = ?", assetTypeID).
		Order("version DESC").
		Find(&pvs).
		Error
	if err != nil {
		return nil, err
	}

	upvs := make([]usecase.PromptVersion, 0, len(pvs))
	for _, pv := range pvs {
		upvs = append(upvs, pv.ConvertToUsecase())
	}
	return upvs, nil
}

// CreatePromptVersion appends the next version number inside a
// transaction so concurrent edits never share a number.
func (s *service) CreatePromptVersion(ctx context.Context, upv usecase.PromptVersion) (usecase.PromptVersion, error) {
	pv := PromptVersion{
		AssetTypeID: upv.AssetTypeID,
		PromptText:  upv.PromptText,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var max int
		err := tx.Model(&PromptVersion{}).
			Where("asset_type_id = ?", pv.AssetTypeID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&max).
			Error
		if err != nil {
			return err
		}
		pv.Version = max + 1
		return tx.Clauses(clause.Returning{}).Create(&pv).Error
	})
	if err != nil {
		return usecase.PromptVersion{}, err
	}
	return pv.ConvertToUsecase(), nil
}

// ActivatePromptVersion deactivates the type's current active version
// and activates the given one. The partial unique index backs this up.
func (s *service) ActivatePromptVersion(ctx context.Context, id uuid.UUID) (usecase.PromptVersion, error) {
	var pv PromptVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pv, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return usecase.ErrNotFound{
					ID:      id,
					Code:    "prompt_version_not_found",
					Message: "prompt version " + id.String() + " not found",
				}
			}
			return err
		}

		err := tx.Model(&PromptVersion{}).
			Where("asset_type_id = ? AND is_active", pv.AssetTypeID).
			Update("is_active", false).
			Error
		if err != nil {
			return err
		}

		return tx.Model(&pv).
			Clauses(clause.Returning{}).
			Update("is_active", true).
			Error
	})
	if err != nil {
		return usecase.PromptVersion{}, err
	}
	return pv.ConvertToUsecase(), nil
}

func (s *service) GetActivePromptVersion(ctx context.Context, assetTypeID uuid.UUID) (usecase.PromptVersion, error) {
	var pv PromptVersion
	err := s.db.
		WithContext(ctx).
		First(&pv, "asset_type_id = ? AND is_active", assetTypeID).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.PromptVersion{}, usecase.ErrNotFound{
				Code:    "active_prompt_version_not_found",
				Message: "asset type " + assetTypeID.String() + " has no active prompt version",
			}
		}
		return usecase.PromptVersion{}, err
	}
	return pv.ConvertToUsecase(), nil
}

func (at AssetType) ConvertToUsecase() usecase.AssetType {
	var d *time.Time
	if at.DeletedAt != nil {
		d = &at.DeletedAt.Time
	}
	return usecase.AssetType{
		ID:            at.ID,
		Name:          at.Name,
		Kind:          usecase.AssetKind(at.Kind),
		Order:         at.Order,
		DefaultPrompt: at.DefaultPrompt,
		CreatedAt:     at.CreatedAt,
		UpdatedAt:     at.UpdatedAt,
		DeletedAt:     d,
	}
}

func (pv PromptVersion) ConvertToUsecase() usecase.PromptVersion {
	return usecase.PromptVersion{
		ID:          pv.ID,
		AssetTypeID: pv.AssetTypeID,
		Version:     pv.Version,
		PromptText:  pv.PromptText,
		IsActive:    pv.IsActive,
		CreatedAt:   pv.CreatedAt,
		UpdatedAt:   pv.UpdatedAt,
	}
}
