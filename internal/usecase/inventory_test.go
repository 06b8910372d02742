package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestImportInventory(t *testing.T) {
	existing := Product{ID: uuid.New(), ASIN: "B000000001", Title: "Old Title"}

	var updated *Product
	var created *Product
	var refreshed bool
	repo := &fakeRepo{
		getProductByASIN: func(ctx context.Context, asin string) (Product, error) {
			if asin == existing.ASIN {
				return existing, nil
			}
			return Product{}, ErrNotFound{Code: "product_not_found", Message: "product not found"}
		},
		updateProduct: func(ctx context.Context, p Product) (Product, error) {
			updated = &p
			return p, nil
		},
		createProduct: func(ctx context.Context, p Product) (Product, error) {
			p.ID = uuid.New()
			created = &p
			return p, nil
		},
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, ASIN: "B000000002"}, nil
		},
		replaceSourceImages: func(ctx context.Context, productID uuid.UUID, imgs []SourceImage) ([]SourceImage, error) {
			refreshed = true
			return imgs, nil
		},
	}
	mp := &fakeMarketplace{
		listInventory: func(ctx context.Context, onlyInStock bool) ([]InventoryItem, error) {
			return []InventoryItem{
				{ASIN: existing.ASIN, SKU: "SKU-1", ProductName: "Desk", Quantity: 4},
				{ASIN: "B000000002", SKU: "SKU-2", ProductName: "Chair", Quantity: 0},
				{SKU: "SKU-3"}, // no ASIN, nothing to key on
			}, nil
		},
		getCatalogItem: func(ctx context.Context, asin string) (CatalogItem, error) {
			return CatalogItem{
				ASIN:        asin,
				Title:       "Catalog Title",
				ProductType: "FURNITURE",
				Images:      []CatalogImage{{Variant: "MAIN", URL: "https://img.test/main.jpg"}},
			}, nil
		},
	}
	u := New(repo, newFakeStorage(), &fakeGenerator{}, mp, &fakeMailer{}, &fakeLock{}, &fakeQueue{}, nil)

	res, err := u.ImportInventory(context.Background(), false)
	if err != nil {
		t.Fatalf("ImportInventory: %v", err)
	}
	if res.Imported != 1 || res.Updated != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 imported, 1 updated, 1 skipped", res)
	}
	if updated == nil || updated.Title != "Catalog Title" {
		t.Errorf("updated = %+v", updated)
	}
	if created == nil || created.Status != ProductStatusNotStarted {
		t.Fatalf("created = %+v", created)
	}

	var meta map[string]any
	if err := json.Unmarshal(created.Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["sku"] != "SKU-2" || meta["product_type"] != "FURNITURE" {
		t.Errorf("metadata = %v", meta)
	}
	if !refreshed {
		t.Error("new products must get their catalog images fetched")
	}
}

func TestImportInventorySkipsBrokenCatalog(t *testing.T) {
	repo := &fakeRepo{}
	mp := &fakeMarketplace{
		listInventory: func(ctx context.Context, onlyInStock bool) ([]InventoryItem, error) {
			return []InventoryItem{{ASIN: "B000000009", SKU: "SKU-9"}}, nil
		},
		getCatalogItem: func(ctx context.Context, asin string) (CatalogItem, error) {
			return CatalogItem{}, errors.New("throttled")
		},
	}
	u := New(repo, newFakeStorage(), &fakeGenerator{}, mp, &fakeMailer{}, &fakeLock{}, &fakeQueue{}, nil)

	res, err := u.ImportInventory(context.Background(), true)
	if err != nil {
		t.Fatalf("ImportInventory: %v", err)
	}
	if res.Skipped != 1 || res.Imported != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestGetAnalyticsRejectsInvertedRange(t *testing.T) {
	u, _ := newTestUsecase(&fakeRepo{})

	_, err := u.GetAnalytics(context.Background(), GetAnalyticsOption{
		From: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	var ve ErrValidation
	if !errors.As(err, &ve) || ve.Code != "invalid_range" {
		t.Fatalf("err = %v, want invalid_range", err)
	}
}

func TestGetAnalyticsDefaultsRange(t *testing.T) {
	var gotFrom, gotTo time.Time
	repo := &fakeRepo{
		listDailyAnalytics: func(ctx context.Context, from, to time.Time) ([]DailyAnalytics, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	u, _ := newTestUsecase(repo)

	if _, err := u.GetAnalytics(context.Background(), GetAnalyticsOption{}); err != nil {
		t.Fatalf("GetAnalytics: %v", err)
	}
	if want := gotTo.AddDate(0, 0, -30); !gotFrom.Equal(want) {
		t.Errorf("default window = %s..%s, want 30 days", gotFrom, gotTo)
	}
}
