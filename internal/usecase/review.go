package usecase

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Review states reachable via TransitionAsset. PENDING, COMPLETED and
// FAILED belong to the generation flow and are never valid targets here.
var reviewStatuses = []AssetStatus{
	AssetStatusApproved,
	AssetStatusRejected,
	AssetStatusNeedsRework,
}

// Statuses a review transition may start from. NEEDS_REWORK may move again;
// APPROVED and REJECTED are terminal but changing between review states is
// tolerated for reviewer corrections, except that re-issuing the current
// status is a no-op.
var reviewableStatuses = []AssetStatus{
	AssetStatusCompleted,
	AssetStatusApproved,
	AssetStatusRejected,
	AssetStatusNeedsRework,
}

const issueTagReworkRequested = "REWORK_REQUESTED"

type TransitionAssetOption struct {
	AssetID  uuid.UUID
	Target   AssetStatus
	Comment  string
	IssueTag string
}

// TransitionAsset moves a generated asset through the review state machine
// and runs the transition's side effects: comment, activity log snapshot,
// daily analytics counter and product rollup. The status write is a
// compare-and-swap on the asset's lock version; a concurrent reviewer gets
// ErrConflict. Side effects after the status write are best effort and are
// logged, not rolled back.
func (u Usecase) TransitionAsset(ctx context.Context, opt TransitionAssetOption) (GeneratedAsset, error) {
	userID, err := actorID(ctx)
	if err != nil {
		return GeneratedAsset{}, err
	}

	if !slices.Contains(reviewStatuses, opt.Target) {
		return GeneratedAsset{}, ErrValidation{
			Code:    "invalid_target_status",
			Message: "status " + string(opt.Target) + " is not a review status",
		}
	}

	asset, err := u.repo.GetGeneratedAssetByID(ctx, opt.AssetID)
	if err != nil {
		return GeneratedAsset{}, err
	}

	if !slices.Contains(reviewableStatuses, asset.Status) {
		return GeneratedAsset{}, ErrValidation{
			Code:    "asset_not_reviewable",
			Message: "asset in status " + string(asset.Status) + " cannot be reviewed",
		}
	}

	// Re-issuing the current status is a no-op: no duplicate comments,
	// activity rows or analytics increments.
	if asset.Status == opt.Target {
		return asset, nil
	}

	updated, err := u.repo.UpdateAssetStatusCAS(ctx, asset.ID, asset.LockVersion, opt.Target)
	if err != nil {
		return GeneratedAsset{}, err
	}

	if opt.Comment != "" {
		tag := opt.IssueTag
		if tag == "" && opt.Target == AssetStatusNeedsRework {
			tag = issueTagReworkRequested
		}
		if _, err := u.repo.CreateComment(ctx, Comment{
			AssetID:  asset.ID,
			UserID:   userID,
			Body:     opt.Comment,
			IssueTag: tag,
		}); err != nil {
			u.log().ErrorContext(ctx, "transition comment failed",
				"asset_id", asset.ID, "err", err)
		}
	}

	u.appendTransitionActivity(ctx, userID, updated)

	if opt.Target == AssetStatusApproved || opt.Target == AssetStatusRejected {
		approved, rejected := 0, 0
		if opt.Target == AssetStatusApproved {
			approved = 1
		} else {
			rejected = 1
		}
		if err := u.repo.IncrementDailyAnalytics(ctx, time.Now().UTC(), approved, rejected); err != nil {
			u.log().ErrorContext(ctx, "analytics increment failed",
				"asset_id", asset.ID, "err", err)
		}
	}

	if err := u.RecomputeProductStatus(ctx, asset.ProductID); err != nil {
		u.log().ErrorContext(ctx, "product rollup failed",
			"product_id", asset.ProductID, "err", err)
	}

	return updated, nil
}

// appendTransitionActivity writes the audit row with the product and asset
// type snapshotted into metadata, so the entry stays correct if the product
// is later renamed.
func (u Usecase) appendTransitionActivity(ctx context.Context, userID uuid.UUID, asset GeneratedAsset) {
	var (
		productTitle, productASIN, typeName string
	)
	if p, err := u.repo.GetProductByID(ctx, asset.ProductID); err == nil {
		productTitle, productASIN = p.Title, p.ASIN
	}
	if at, err := u.repo.GetAssetTypeByID(ctx, asset.AssetTypeID); err == nil {
		typeName = at.Name
	}

	meta, _ := json.Marshal(map[string]any{
		"product_title":   productTitle,
		"product_asin":    productASIN,
		"asset_type_name": typeName,
		"version":         asset.Version,
		"status":          asset.Status,
	})

	if _, err := u.repo.CreateActivityLog(ctx, ActivityLog{
		UserID:     userID,
		Action:     "IMAGE_" + string(asset.Status),
		EntityType: "GENERATED_ASSET",
		EntityID:   asset.ID,
		Metadata:   meta,
	}); err != nil {
		u.log().ErrorContext(ctx, "transition activity log failed",
			"asset_id", asset.ID, "err", err)
	}
}
