package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PromptOverride struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	AssetTypeID  uuid.UUID
	CustomPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u Usecase) GetPromptOverride(ctx context.Context, productID, assetTypeID uuid.UUID) (PromptOverride, error) {
	return u.repo.GetPromptOverride(ctx, productID, assetTypeID)
}

func (u Usecase) UpsertPromptOverride(ctx context.Context, po PromptOverride) (PromptOverride, error) {
	if po.CustomPrompt == "" {
		return PromptOverride{}, ErrValidation{
			Code:    "custom_prompt_required",
			Message: "custom prompt must not be empty",
		}
	}
	if _, err := u.repo.GetProductByID(ctx, po.ProductID); err != nil {
		return PromptOverride{}, err
	}
	if _, err := u.repo.GetAssetTypeByID(ctx, po.AssetTypeID); err != nil {
		return PromptOverride{}, err
	}
	return u.repo.UpsertPromptOverride(ctx, po)
}

func (u Usecase) DeletePromptOverride(ctx context.Context, productID, assetTypeID uuid.UUID) error {
	return u.repo.DeletePromptOverride(ctx, productID, assetTypeID)
}

// ResolvePrompt resolves the effective prompt for a (product, asset type)
// pair: the pair's override wins, then the type's active prompt version,
// then the type's default prompt. Template variables are substituted with
// literal product fields; unresolved braces pass through verbatim. Extra
// instructions, if any, are appended after a blank line and never take part
// in substitution.
func (u Usecase) ResolvePrompt(ctx context.Context, productID, assetTypeID uuid.UUID, extra string) (string, error) {
	product, err := u.repo.GetProductByID(ctx, productID)
	if err != nil {
		return "", err
	}

	template, err := u.resolveTemplate(ctx, productID, assetTypeID)
	if err != nil {
		return "", err
	}

	prompt := strings.NewReplacer(
		"{product_name}", product.Title,
		"{product_title}", product.Title,
		"{category}", product.Category,
		"{asin}", product.ASIN,
	).Replace(template)

	if extra != "" {
		prompt = prompt + "\n\n" + extra
	}
	return prompt, nil
}

func (u Usecase) resolveTemplate(ctx context.Context, productID, assetTypeID uuid.UUID) (string, error) {
	if override, err := u.repo.GetPromptOverride(ctx, productID, assetTypeID); err == nil &&
		override.CustomPrompt != "" {
		return override.CustomPrompt, nil
	}

	if active, err := u.repo.GetActivePromptVersion(ctx, assetTypeID); err == nil &&
		active.PromptText != "" {
		return active.PromptText, nil
	}

	at, err := u.repo.GetAssetTypeByID(ctx, assetTypeID)
	if err != nil {
		return "", err
	}
	if at.DefaultPrompt != "" {
		return at.DefaultPrompt, nil
	}

	return "", ErrValidation{
		Code:    "prompt_missing",
		Message: "no prompt configured for asset type " + at.Name,
	}
}
