package usecase

import (
	"context"

	"github.com/google/uuid"
)

// RecomputeProductStatus derives the product's completion state from its
// generated assets: a non-empty set with every asset APPROVED marks the
// product COMPLETED. Anything else leaves the status untouched; the flag is
// a one-way ratchet and never reverts on its own. Safe to call redundantly.
func (u Usecase) RecomputeProductStatus(ctx context.Context, productID uuid.UUID) error {
	assets, _, err := u.repo.ListGeneratedAssets(ctx, ListGeneratedAssetsOption{
		ProductIDs: uuid.UUIDs{productID},
	})
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return nil
	}

	for _, a := range assets {
		if a.Status != AssetStatusApproved {
			return nil
		}
	}

	return u.repo.UpdateProductStatus(ctx, productID, ProductStatusCompleted)
}
