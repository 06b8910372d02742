package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/listora/listora/internal/config"
)

type ProductStatus string

const (
	ProductStatusNotStarted ProductStatus = "NOT_STARTED"
	ProductStatusInProgress ProductStatus = "IN_PROGRESS"
	ProductStatusCompleted  ProductStatus = "COMPLETED"
)

type Product struct {
	ID        uuid.UUID
	ASIN      string
	Title     string
	Category  string
	Status    ProductStatus
	Metadata  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	SourceImages    []SourceImage
	GeneratedAssets []GeneratedAsset
}

type ListProductsOption struct {
	Skip   int
	Limit  int
	SortBy string
	SortIn string

	ASIN     string
	Category string
	Statuses []ProductStatus
	Title    string
}

func (u Usecase) ListProducts(ctx context.Context, opt ListProductsOption) ([]Product, int, error) {
	return u.repo.ListProducts(ctx, opt)
}

func (u Usecase) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := u.repo.GetProductByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	publicURL, _ := u.fileStorageProvider.GetPublicURL(ctx)
	for i, img := range p.SourceImages {
		if img.Path != "" {
			p.SourceImages[i].URL = fmt.Sprintf("%s/%s", publicURL, img.Path)
		}
	}
	for i, a := range p.GeneratedAssets {
		if a.Path != "" {
			p.GeneratedAssets[i].URL = fmt.Sprintf("%s/%s", publicURL, a.Path)
		}
	}
	return p, nil
}

func (u Usecase) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if p.Status == "" {
		p.Status = ProductStatusNotStarted
	}
	return u.repo.CreateProduct(ctx, p)
}

func (u Usecase) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	// Status is derived by the rollup engine, never accepted from callers.
	p.Status = ""
	return u.repo.UpdateProduct(ctx, p)
}

func (u Usecase) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return u.repo.DeleteProduct(ctx, id)
}

// GetListingQRCode renders a QR code PNG pointing at the product's live
// marketplace listing. Products without an ASIN have no listing to encode.
func (u Usecase) GetListingQRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	p, err := u.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ASIN == "" {
		return nil, ErrValidation{
			Code:    "product_no_asin",
			Message: "product " + id.String() + " has no marketplace listing",
		}
	}

	base := os.Getenv(config.ENV_KEY_LISTING_BASE_URL)
	if base == "" {
		base = "https://www.amazon.com/dp"
	}
	return qrcode.Encode(fmt.Sprintf("%s/%s", base, p.ASIN), qrcode.Medium, 256)
}
