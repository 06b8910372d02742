package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AssetStatus string

const (
	AssetStatusPending     AssetStatus = "PENDING"
	AssetStatusCompleted   AssetStatus = "COMPLETED"
	AssetStatusFailed      AssetStatus = "FAILED"
	AssetStatusApproved    AssetStatus = "APPROVED"
	AssetStatusRejected    AssetStatus = "REJECTED"
	AssetStatusNeedsRework AssetStatus = "NEEDS_REWORK"
)

// Push progress recorded on the asset itself.
const (
	AssetPushStatusPushing = "PUSHING"
	AssetPushStatusSuccess = "SUCCESS"
	AssetPushStatusFailed  = "FAILED"
)

type GeneratedAsset struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	AssetTypeID uuid.UUID
	Status      AssetStatus
	Version     int
	Path        string
	PromptUsed  string
	Width       int
	Height      int
	FileSize    int64
	Duration    float64
	Colors      []byte
	Error       string

	ParentAssetID *uuid.UUID
	SourceImageID *uuid.UUID

	// Video generation handle.
	OperationName string
	AIModel       string

	// Marketplace push bookkeeping (images only).
	AmazonSlot       string
	AmazonPushStatus string
	AmazonPushedAt   *time.Time

	// Optimistic concurrency column for review transitions.
	LockVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	Product   *Product
	AssetType *AssetType
	Comments  []Comment

	// URL is the resolved public URL, filled in by the usecase layer.
	URL string
}

type ListGeneratedAssetsOption struct {
	Skip   int
	Limit  int
	SortBy string
	SortIn string

	ProductIDs   uuid.UUIDs
	AssetTypeIDs uuid.UUIDs
	Statuses     []AssetStatus
	PushStatus   string
}

func (u Usecase) ListGeneratedAssets(ctx context.Context, opt ListGeneratedAssetsOption) ([]GeneratedAsset, int, error) {
	assets, total, err := u.repo.ListGeneratedAssets(ctx, opt)
	if err != nil {
		return nil, 0, err
	}
	publicURL, _ := u.fileStorageProvider.GetPublicURL(ctx)
	for i, a := range assets {
		if a.Path != "" {
			assets[i].URL = fmt.Sprintf("%s/%s", publicURL, a.Path)
		}
	}
	return assets, total, nil
}

func (u Usecase) GetGeneratedAssetByID(ctx context.Context, id uuid.UUID) (GeneratedAsset, error) {
	a, err := u.repo.GetGeneratedAssetByID(ctx, id)
	if err != nil {
		return GeneratedAsset{}, err
	}
	if a.Path != "" {
		publicURL, _ := u.fileStorageProvider.GetPublicURL(ctx)
		a.URL = fmt.Sprintf("%s/%s", publicURL, a.Path)
	}
	return a, nil
}
