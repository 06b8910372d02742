package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SourceImage struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Variant    string
	ImageOrder int
	OriginURL  string
	Path       string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// URL is the resolved public URL, filled in by the usecase layer.
	URL string
}

func (u Usecase) ListSourceImages(ctx context.Context, productID uuid.UUID) ([]SourceImage, error) {
	imgs, err := u.repo.ListSourceImages(ctx, productID)
	if err != nil {
		return nil, err
	}
	publicURL, _ := u.fileStorageProvider.GetPublicURL(ctx)
	for i, img := range imgs {
		if img.Path != "" {
			imgs[i].URL = fmt.Sprintf("%s/%s", publicURL, img.Path)
		}
	}
	return imgs, nil
}

// RefreshSourceImages re-fetches the product's catalog images from the
// marketplace and replaces the stored set wholesale. Source images are
// immutable otherwise.
func (u Usecase) RefreshSourceImages(ctx context.Context, productID uuid.UUID) ([]SourceImage, error) {
	p, err := u.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.ASIN == "" {
		return nil, ErrValidation{
			Code:    "product_no_asin",
			Message: "product " + productID.String() + " has no ASIN to refresh images from",
		}
	}

	item, err := u.marketplace.GetCatalogItem(ctx, p.ASIN)
	if err != nil {
		return nil, err
	}

	imgs := make([]SourceImage, 0, len(item.Images))
	for i, ci := range item.Images {
		imgs = append(imgs, SourceImage{
			ProductID:  productID,
			Variant:    ci.Variant,
			ImageOrder: i,
			OriginURL:  ci.URL,
		})
	}

	return u.repo.ReplaceSourceImages(ctx, productID, imgs)
}
