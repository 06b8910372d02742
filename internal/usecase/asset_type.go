package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AssetKind string

const (
	AssetKindImage AssetKind = "IMAGE"
	AssetKindVideo AssetKind = "VIDEO"
)

type AssetType struct {
	ID            uuid.UUID
	Name          string
	Kind          AssetKind
	Order         int
	DefaultPrompt string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time

	PromptVersions []PromptVersion
}

// PromptVersion is one entry in an asset type's versioned prompt history.
// At most one version per type is active.
type PromptVersion struct {
	ID          uuid.UUID
	AssetTypeID uuid.UUID
	Version     int
	PromptText  string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListAssetTypesOption struct {
	Skip  int
	Limit int
	Kind  AssetKind
}

func (u Usecase) ListAssetTypes(ctx context.Context, opt ListAssetTypesOption) ([]AssetType, int, error) {
	return u.repo.ListAssetTypes(ctx, opt)
}

func (u Usecase) GetAssetTypeByID(ctx context.Context, id uuid.UUID) (AssetType, error) {
	return u.repo.GetAssetTypeByID(ctx, id)
}

func (u Usecase) CreateAssetType(ctx context.Context, at AssetType) (AssetType, error) {
	if at.Kind == "" {
		at.Kind = AssetKindImage
	}
	return u.repo.CreateAssetType(ctx, at)
}

func (u Usecase) UpdateAssetType(ctx context.Context, at AssetType) (AssetType, error) {
	return u.repo.UpdateAssetType(ctx, at)
}

func (u Usecase) ListPromptVersions(ctx context.Context, assetTypeID uuid.UUID) ([]PromptVersion, error) {
	return u.repo.ListPromptVersions(ctx, assetTypeID)
}

// CreatePromptVersion appends a new inactive version to the type's history.
// Version numbers continue from the latest existing version.
func (u Usecase) CreatePromptVersion(ctx context.Context, pv PromptVersion) (PromptVersion, error) {
	if pv.PromptText == "" {
		return PromptVersion{}, ErrValidation{
			Code:    "prompt_text_required",
			Message: "prompt text must not be empty",
		}
	}
	if _, err := u.repo.GetAssetTypeByID(ctx, pv.AssetTypeID); err != nil {
		return PromptVersion{}, err
	}
	pv.IsActive = false
	return u.repo.CreatePromptVersion(ctx, pv)
}

// ActivatePromptVersion makes the given version the single active one for
// its asset type, deactivating the rest in the same transaction.
func (u Usecase) ActivatePromptVersion(ctx context.Context, id uuid.UUID) (PromptVersion, error) {
	return u.repo.ActivatePromptVersion(ctx, id)
}
