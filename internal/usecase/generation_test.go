package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func generationRepo(productID, assetTypeID uuid.UUID, kind AssetKind) *fakeRepo {
	version := 0
	return &fakeRepo{
		getProductByID: func(ctx context.Context, id uuid.UUID) (Product, error) {
			return Product{ID: id, Title: "Desk", ASIN: "B000000001"}, nil
		},
		getAssetTypeByID: func(ctx context.Context, id uuid.UUID) (AssetType, error) {
			return AssetType{ID: id, Name: "main", Kind: kind, DefaultPrompt: "Shot of {product_title}"}, nil
		},
		nextAssetVersion: func(ctx context.Context, pid, atid uuid.UUID) (int, error) {
			version++
			return version, nil
		},
	}
}

func TestGenerateImageRejectsVideoType(t *testing.T) {
	productID, assetTypeID := uuid.New(), uuid.New()
	u, _ := newTestUsecase(generationRepo(productID, assetTypeID, AssetKindVideo))

	_, err := u.GenerateImage(actorContext(uuid.New()), GenerateAssetOption{
		ProductID:   productID,
		AssetTypeID: assetTypeID,
	})
	var ve ErrValidation
	if !errors.As(err, &ve) || ve.Code != "asset_type_not_image" {
		t.Fatalf("err = %v, want asset_type_not_image", err)
	}
}

func TestGenerateImageSuccess(t *testing.T) {
	productID, assetTypeID := uuid.New(), uuid.New()
	repo := generationRepo(productID, assetTypeID, AssetKindImage)

	var finalized *GeneratedAsset
	repo.updateGeneratedAsset = func(ctx context.Context, a GeneratedAsset) (GeneratedAsset, error) {
		finalized = &a
		return a, nil
	}
	u, fs := newTestUsecase(repo)

	got, err := u.GenerateImage(actorContext(uuid.New()), GenerateAssetOption{
		ProductID:   productID,
		AssetTypeID: assetTypeID,
	})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if got.Status != AssetStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
	if got.PromptUsed != "Shot of Desk" {
		t.Errorf("prompt = %q", got.PromptUsed)
	}
	wantPath := fmt.Sprintf("products/%s/main/v1.jpg", productID)
	if got.Path != wantPath {
		t.Errorf("path = %q, want %q", got.Path, wantPath)
	}
	if _, ok := fs.files[wantPath]; !ok {
		t.Error("generated image not stored")
	}
	if finalized == nil || finalized.Width != 1024 {
		t.Errorf("finalized = %+v", finalized)
	}
}

func TestGenerateImageGeneratorFailureConsumesVersion(t *testing.T) {
	productID, assetTypeID := uuid.New(), uuid.New()
	repo := generationRepo(productID, assetTypeID, AssetKindImage)

	var failed *GeneratedAsset
	repo.updateGeneratedAsset = func(ctx context.Context, a GeneratedAsset) (GeneratedAsset, error) {
		failed = &a
		return a, nil
	}
	gen := &fakeGenerator{
		generateImage: func(ctx context.Context, prompt string, source []byte) (GeneratedImage, error) {
			return GeneratedImage{}, errors.New("model overloaded")
		},
	}
	u := New(repo, newFakeStorage(), gen, &fakeMarketplace{}, &fakeMailer{}, &fakeLock{}, &fakeQueue{}, nil)

	_, err := u.GenerateImage(actorContext(uuid.New()), GenerateAssetOption{
		ProductID:   productID,
		AssetTypeID: assetTypeID,
	})
	var es ErrExternalService
	if !errors.As(err, &es) || es.Service != "generator" {
		t.Fatalf("err = %v, want generator external service error", err)
	}
	if failed == nil || failed.Status != AssetStatusFailed {
		t.Fatalf("failed asset = %+v, want FAILED record", failed)
	}
	if failed.Version != 1 {
		t.Errorf("version = %d, failed generations still consume a version", failed.Version)
	}
	if failed.Error == "" {
		t.Error("failure cause not recorded on the asset")
	}
}

func TestGenerateImageConcurrentVersionsAreDistinct(t *testing.T) {
	const n = 16
	productID, assetTypeID := uuid.New(), uuid.New()
	repo := generationRepo(productID, assetTypeID, AssetKindImage)

	var mu sync.Mutex
	version := 0
	repo.nextAssetVersion = func(ctx context.Context, pid, atid uuid.UUID) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		version++
		return version, nil
	}
	created := make([]int, 0, n)
	repo.createGeneratedAsset = func(ctx context.Context, a GeneratedAsset) (GeneratedAsset, error) {
		mu.Lock()
		defer mu.Unlock()
		created = append(created, a.Version)
		a.ID = uuid.New()
		return a, nil
	}
	u, _ := newTestUsecase(repo)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = u.GenerateImage(actorContext(uuid.New()), GenerateAssetOption{
				ProductID:   productID,
				AssetTypeID: assetTypeID,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("GenerateImage #%d: %v", i, err)
		}
	}
	if len(created) != n {
		t.Fatalf("created %d assets, want %d", len(created), n)
	}
	seen := make(map[int]bool, n)
	for _, v := range created {
		if v < 1 || v > n {
			t.Errorf("version %d out of range 1..%d", v, n)
		}
		if seen[v] {
			t.Errorf("version %d allocated twice", v)
		}
		seen[v] = true
	}
}

func TestGenerateVideoHoldsOperation(t *testing.T) {
	productID, assetTypeID := uuid.New(), uuid.New()
	repo := generationRepo(productID, assetTypeID, AssetKindVideo)
	u, _ := newTestUsecase(repo)

	got, err := u.GenerateVideo(actorContext(uuid.New()), GenerateAssetOption{
		ProductID:   productID,
		AssetTypeID: assetTypeID,
		VideoParams: VideoParams{Model: "veo-3", DurationSeconds: 8, AspectRatio: "16:9"},
	})
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if got.Status != AssetStatusPending {
		t.Errorf("status = %s, videos stay PENDING until the operation resolves", got.Status)
	}
	if got.OperationName != "operations/test" {
		t.Errorf("operation = %q", got.OperationName)
	}
	if got.AIModel != "veo-3" {
		t.Errorf("model = %q", got.AIModel)
	}
}

func TestCheckVideoOperationNotDone(t *testing.T) {
	asset := GeneratedAsset{ID: uuid.New(), Status: AssetStatusPending, OperationName: "operations/slow"}
	repo := &fakeRepo{
		getGeneratedAssetByID: func(ctx context.Context, id uuid.UUID) (GeneratedAsset, error) {
			return asset, nil
		},
		updateGeneratedAsset: func(ctx context.Context, a GeneratedAsset) (GeneratedAsset, error) {
			t.Fatal("an unresolved operation must not write")
			return a, nil
		},
	}
	gen := &fakeGenerator{
		getOperation: func(ctx context.Context, name string) (OperationStatus, error) {
			return OperationStatus{Name: name, Done: false}, nil
		},
	}
	u := New(repo, newFakeStorage(), gen, &fakeMarketplace{}, &fakeMailer{}, &fakeLock{}, &fakeQueue{}, nil)

	got, err := u.CheckVideoOperation(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("CheckVideoOperation: %v", err)
	}
	if got.Status != AssetStatusPending {
		t.Errorf("status = %s, want still PENDING", got.Status)
	}
}

func TestCheckVideoOperationFailure(t *testing.T) {
	asset := GeneratedAsset{ID: uuid.New(), Status: AssetStatusPending, OperationName: "operations/bad"}
	var failed *GeneratedAsset
	repo := &fakeRepo{
		getGeneratedAssetByID: func(ctx context.Context, id uuid.UUID) (GeneratedAsset, error) {
			return asset, nil
		},
		updateGeneratedAsset: func(ctx context.Context, a GeneratedAsset) (GeneratedAsset, error) {
			failed = &a
			return a, nil
		},
	}
	gen := &fakeGenerator{
		getOperation: func(ctx context.Context, name string) (OperationStatus, error) {
			return OperationStatus{Name: name, Done: true, Error: "content policy violation"}, nil
		},
	}
	u := New(repo, newFakeStorage(), gen, &fakeMarketplace{}, &fakeMailer{}, &fakeLock{}, &fakeQueue{}, nil)

	_, err := u.CheckVideoOperation(context.Background(), asset.ID)
	if err == nil || err.Error() != "content policy violation" {
		t.Fatalf("err = %v", err)
	}
	if failed == nil || failed.Status != AssetStatusFailed {
		t.Fatalf("failed asset = %+v", failed)
	}
}

func TestCheckVideoOperationRequiresHandle(t *testing.T) {
	repo := &fakeRepo{
		getGeneratedAssetByID: func(ctx context.Context, id uuid.UUID) (GeneratedAsset, error) {
			return GeneratedAsset{ID: id, Status: AssetStatusPending}, nil
		},
	}
	u, _ := newTestUsecase(repo)

	_, err := u.CheckVideoOperation(context.Background(), uuid.New())
	var ve ErrValidation
	if !errors.As(err, &ve) || ve.Code != "asset_not_video" {
		t.Fatalf("err = %v, want asset_not_video", err)
	}
}
