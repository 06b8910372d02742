package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestResolvePromptOverrideWins(t *testing.T) {
	productID := uuid.New()
	assetTypeID := uuid.New()

	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Walnut Desk", Category: "Furniture", ASIN: "B000000001"}, nil
		},
		getPromptOverride: func(ctx context.Context, pid, atid uuid.UUID) (PromptOverride, error) {
			return PromptOverride{CustomPrompt: "Studio shot of {product_title} in {category}"}, nil
		},
		getActivePromptVersion: func(ctx context.Context, atid uuid.UUID) (PromptVersion, error) {
			t.Fatal("active version must not be consulted when an override exists")
			return PromptVersion{}, nil
		},
	}
	u, _ := newTestUsecase(repo)

	got, err := u.ResolvePrompt(context.Background(), productID, assetTypeID, "")
	if err != nil {
		t.Fatalf("ResolvePrompt: %v", err)
	}
	want := "Studio shot of Walnut Desk in Furniture"
	if got != want {
		t.Errorf("prompt = %q, want %q", got, want)
	}
}

func TestResolvePromptActiveVersion(t *testing.T) {
	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Walnut Desk"}, nil
		},
		getActivePromptVersion: func(ctx context.Context, atid uuid.UUID) (PromptVersion, error) {
			return PromptVersion{Version: 3, PromptText: "Render {product_name} on white", IsActive: true}, nil
		},
	}
	u, _ := newTestUsecase(repo)

	got, err := u.ResolvePrompt(context.Background(), uuid.New(), uuid.New(), "")
	if err != nil {
		t.Fatalf("ResolvePrompt: %v", err)
	}
	if got != "Render Walnut Desk on white" {
		t.Errorf("prompt = %q", got)
	}
}

func TestResolvePromptDefaultFallback(t *testing.T) {
	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Walnut Desk", ASIN: "B000000001"}, nil
		},
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id, Name: "main", DefaultPrompt: "Listing photo for {asin}"}, nil
		},
	}
	u, _ := newTestUsecase(repo)

	got, err := u.ResolvePrompt(context.Background(), uuid.New(), uuid.New(), "")
	if err != nil {
		t.Fatalf("ResolvePrompt: %v", err)
	}
	if got != "Listing photo for B000000001" {
		t.Errorf("prompt = %q", got)
	}
}

func TestResolvePromptNoneConfigured(t *testing.T) {
	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id}, nil
		},
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id, Name: "main"}, nil
		},
	}
	u, _ := newTestUsecase(repo)

	_, err := u.ResolvePrompt(context.Background(), uuid.New(), uuid.New(), "")
	var ve ErrValidation
	if !errors.As(err, &ve) || ve.Code != "prompt_missing" {
		t.Fatalf("err = %v, want prompt_missing validation error", err)
	}
}

func TestResolvePromptExtraInstructions(t *testing.T) {
	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Desk"}, nil
		},
		getPromptOverride: func(ctx context.Context, pid, atid uuid.UUID) (PromptOverride, error) {
			return PromptOverride{CustomPrompt: "Shot of {product_title}"}, nil
		},
	}
	u, _ := newTestUsecase(repo)

	got, err := u.ResolvePrompt(context.Background(), uuid.New(), uuid.New(), "warmer lighting")
	if err != nil {
		t.Fatalf("ResolvePrompt: %v", err)
	}
	if got != "Shot of Desk\n\nwarmer lighting" {
		t.Errorf("prompt = %q", got)
	}
}

func TestResolvePromptUnknownVariablePassesThrough(t *testing.T) {
	repo := &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Desk"}, nil
		},
		getPromptOverride: func(ctx context.Context, pid, atid uuid.UUID) (PromptOverride, error) {
			return PromptOverride{CustomPrompt: "{product_title} with {color} accents"}, nil
		},
	}
	u, _ := newTestUsecase(repo)

	got, err := u.ResolvePrompt(context.Background(), uuid.New(), uuid.New(), "")
	if err != nil {
		t.Fatalf("ResolvePrompt: %v", err)
	}
	if got != "Desk with {color} accents" {
		t.Errorf("prompt = %q, unresolved braces must pass through", got)
	}
}

func TestUpsertPromptOverrideRequiresPrompt(t *testing.T) {
	u, _ := newTestUsecase(&fakeRepo{})

	_, err := u.UpsertPromptOverride(context.Background(), PromptOverride{
		ProductID:   uuid.New(),
		AssetTypeID: uuid.New(),
	})
	var ve ErrValidation
	if !errors.As(err, &ve) || ve.Code != "custom_prompt_required" {
		t.Fatalf("err = %v, want custom_prompt_required", err)
	}
}

func TestCreatePromptVersionStartsInactive(t *testing.T) {
	repo := &fakeRepo{
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id, Name: "main"}, nil
		},
		createPromptVersion: func(ctx context.Context, pv PromptVersion) (PromptVersion, error) {
			if pv.IsActive {
				t.Error("new prompt versions must not be created active")
			}
			pv.ID = uuid.New()
			pv.Version = 4
			return pv, nil
		},
	}
	u, _ := newTestUsecase(repo)

	pv, err := u.CreatePromptVersion(context.Background(), PromptVersion{
		AssetTypeID: uuid.New(),
		PromptText:  "new prompt",
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreatePromptVersion: %v", err)
	}
	if pv.Version != 4 {
		t.Errorf("version = %d, want 4", pv.Version)
	}
}
