package usecase

import (
	"context"
	"encoding/json"
	"fmt"
)

// InventoryItem is one sellable unit reported by the marketplace.
type InventoryItem struct {
	ASIN        string
	SKU         string
	ProductName string
	Quantity    int
}

// CatalogItem is the marketplace's catalog view of a listed product.
type CatalogItem struct {
	ASIN         string
	Title        string
	Brand        string
	Manufacturer string
	ProductType  string
	Images       []CatalogImage
}

type CatalogImage struct {
	Variant string
	URL     string
}

type ImportInventoryResult struct {
	Imported int
	Updated  int
	Skipped  int
}

// ImportInventory pulls the seller's inventory and upserts products by
// ASIN; catalog metadata (sku, quantity, product type) lands in the
// product's opaque metadata. New products start NOT_STARTED with their
// source images fetched from the catalog.
func (u Usecase) ImportInventory(ctx context.Context, onlyInStock bool) (ImportInventoryResult, error) {
	items, err := u.marketplace.ListInventory(ctx, onlyInStock)
	if err != nil {
		return ImportInventoryResult{}, err
	}

	var res ImportInventoryResult
	for _, item := range items {
		if item.ASIN == "" {
			res.Skipped++
			continue
		}

		catalog, err := u.marketplace.GetCatalogItem(ctx, item.ASIN)
		if err != nil {
			u.log().WarnContext(ctx, "catalog lookup failed during import",
				"asin", item.ASIN, "err", err)
			res.Skipped++
			continue
		}

		meta, _ := json.Marshal(map[string]any{
			"sku":          item.SKU,
			"quantity":     item.Quantity,
			"product_type": catalog.ProductType,
			"brand":        catalog.Brand,
			"manufacturer": catalog.Manufacturer,
		})

		title := catalog.Title
		if title == "" {
			title = item.ProductName
		}

		existing, err := u.repo.GetProductByASIN(ctx, item.ASIN)
		switch err.(type) {
		case nil:
			existing.Title = title
			existing.Metadata = meta
			if _, err := u.repo.UpdateProduct(ctx, existing); err != nil {
				return res, fmt.Errorf("update product %s: %w", item.ASIN, err)
			}
			res.Updated++
		case ErrNotFound:
			created, err := u.repo.CreateProduct(ctx, Product{
				ASIN:     item.ASIN,
				Title:    title,
				Status:   ProductStatusNotStarted,
				Metadata: meta,
			})
			if err != nil {
				return res, fmt.Errorf("create product %s: %w", item.ASIN, err)
			}
			if _, err := u.RefreshSourceImages(ctx, created.ID); err != nil {
				u.log().WarnContext(ctx, "source image refresh failed during import",
					"asin", item.ASIN, "err", err)
			}
			res.Imported++
		default:
			return res, err
		}
	}

	return res, nil
}
