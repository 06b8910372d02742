package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/listora/listora/internal/config"
)

// fakeRepo satisfies Repository through per-method function fields. Tests
// set only the methods the path under test touches; anything else returns
// a zero value or ErrNotFound.
type fakeRepo struct {
	listUsers   func(context.Context, ListUsersOption) ([]User, int, error)
	getUserByID func(context.Context, uuid.UUID) (User, error)

	listProducts        func(context.Context, ListProductsOption) ([]Product, int, error)
	getProductByID      func(context.Context, uuid.UUID) (Product, error)
	getProductByASIN    func(context.Context, string) (Product, error)
	createProduct       func(context.Context, Product) (Product, error)
	updateProduct       func(context.Context, Product) (Product, error)
	updateProductStatus func(context.Context, uuid.UUID, ProductStatus) error

	listSourceImages    func(context.Context, uuid.UUID) ([]SourceImage, error)
	getSourceImageByID  func(context.Context, uuid.UUID) (SourceImage, error)
	replaceSourceImages func(context.Context, uuid.UUID, []SourceImage) ([]SourceImage, error)

	getAssetTypeByID func(context.Context, uuid.UUID) (AssetType, error)

	createPromptVersion    func(context.Context, PromptVersion) (PromptVersion, error)
	getActivePromptVersion func(context.Context, uuid.UUID) (PromptVersion, error)

	getPromptOverride func(context.Context, uuid.UUID, uuid.UUID) (PromptOverride, error)

	nextAssetVersion      func(context.Context, uuid.UUID, uuid.UUID) (int, error)
	listGeneratedAssets   func(context.Context, ListGeneratedAssetsOption) ([]GeneratedAsset, int, error)
	getGeneratedAssetByID func(context.Context, uuid.UUID) (GeneratedAsset, error)
	createGeneratedAsset  func(context.Context, GeneratedAsset) (GeneratedAsset, error)
	updateGeneratedAsset  func(context.Context, GeneratedAsset) (GeneratedAsset, error)
	updateAssetStatusCAS  func(context.Context, uuid.UUID, int, AssetStatus) (GeneratedAsset, error)
	setAssetPushStatus    func(context.Context, []uuid.UUID, string, *time.Time) error

	createComment func(context.Context, Comment) (Comment, error)

	createActivityLog func(context.Context, ActivityLog) (ActivityLog, error)

	incrementDailyAnalytics func(context.Context, time.Time, int, int) error
	listDailyAnalytics      func(context.Context, time.Time, time.Time) ([]DailyAnalytics, error)

	createGenerationJob  func(context.Context, GenerationJob) (GenerationJob, error)
	getGenerationJobByID func(context.Context, uuid.UUID) (GenerationJob, error)
	updateGenerationJob  func(context.Context, GenerationJob) (GenerationJob, error)

	createImagePushes      func(context.Context, []AmazonImagePush) ([]AmazonImagePush, error)
	resolveImagePushes     func(context.Context, []uuid.UUID, PushOutcome) error
	listStalePendingPushes func(context.Context, time.Time) ([]AmazonImagePush, error)
}

func (f *fakeRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (f *fakeRepo) Close() error              { return nil }

func (f *fakeRepo) ListUsers(ctx context.Context, opt ListUsersOption) ([]User, int, error) {
	if f.listUsers != nil {
		return f.listUsers(ctx, opt)
	}
	return nil, 0, nil
}

func (f *fakeRepo) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	if f.getUserByID != nil {
		return f.getUserByID(ctx, id)
	}
	return User{}, ErrNotFound{ID: id, Code: "user_not_found", Message: "user not found"}
}

func (f *fakeRepo) GetUserByUID(ctx context.Context, uid string) (User, error) {
	return User{}, ErrNotFound{Code: "user_not_found", Message: "user not found"}
}

func (f *fakeRepo) CreateUser(ctx context.Context, u User) (User, error) {
	u.ID = uuid.New()
	return u, nil
}

func (f *fakeRepo) ListProducts(ctx context.Context, opt ListProductsOption) ([]Product, int, error) {
	if f.listProducts != nil {
		return f.listProducts(ctx, opt)
	}
	return nil, 0, nil
}

func (f *fakeRepo) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	if f.getProductByID != nil {
		return f.getProductByID(ctx, id)
	}
	return Product{}, ErrNotFound{ID: id, Code: "product_not_found", Message: "product not found"}
}

func (f *fakeRepo) GetProductByASIN(ctx context.Context, asin string) (Product, error) {
	if f.getProductByASIN != nil {
		return f.getProductByASIN(ctx, asin)
	}
	return Product{}, ErrNotFound{Code: "product_not_found", Message: "product not found"}
}

func (f *fakeRepo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if f.createProduct != nil {
		return f.createProduct(ctx, p)
	}
	p.ID = uuid.New()
	return p, nil
}

func (f *fakeRepo) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if f.updateProduct != nil {
		return f.updateProduct(ctx, p)
	}
	return p, nil
}

func (f *fakeRepo) UpdateProductStatus(ctx context.Context, id uuid.UUID, st ProductStatus) error {
	if f.updateProductStatus != nil {
		return f.updateProductStatus(ctx, id, st)
	}
	return nil
}

func (f *fakeRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeRepo) ListSourceImages(ctx context.Context, productID uuid.UUID) ([]SourceImage, error) {
	if f.listSourceImages != nil {
		return f.listSourceImages(ctx, productID)
	}
	return nil, nil
}

func (f *fakeRepo) GetSourceImageByID(ctx context.Context, id uuid.UUID) (SourceImage, error) {
	if f.getSourceImageByID != nil {
		return f.getSourceImageByID(ctx, id)
	}
	return SourceImage{}, ErrNotFound{ID: id, Code: "source_image_not_found", Message: "source image not found"}
}

func (f *fakeRepo) ReplaceSourceImages(ctx context.Context, productID uuid.UUID, imgs []SourceImage) ([]SourceImage, error) {
	if f.replaceSourceImages != nil {
		return f.replaceSourceImages(ctx, productID, imgs)
	}
	return imgs, nil
}

func (f *fakeRepo) ListAssetTypes(ctx context.Context, opt ListAssetTypesOption) ([]AssetType, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) GetAssetTypeByID(ctx context.Context, id uuid.UUID) (AssetType, error) {
	if f.getAssetTypeByID != nil {
		return f.getAssetTypeByID(ctx, id)
	}
	return AssetType{}, ErrNotFound{ID: id, Code: "asset_type_not_found", Message: "asset type not found"}
}

func (f *fakeRepo) CreateAssetType(ctx context.Context, at AssetType) (AssetType, error) {
	at.ID = uuid.New()
	return at, nil
}

func (f *fakeRepo) UpdateAssetType(ctx context.Context, at AssetType) (AssetType, error) {
	return at, nil
}

func (f *fakeRepo) ListPromptVersions(ctx context.Context, assetTypeID uuid.UUID) ([]PromptVersion, error) {
	return nil, nil
}

func (f *fakeRepo) CreatePromptVersion(ctx context.Context, pv PromptVersion) (PromptVersion, error) {
	if f.createPromptVersion != nil {
		return f.createPromptVersion(ctx, pv)
	}
	pv.ID = uuid.New()
	pv.Version = 1
	return pv, nil
}

func (f *fakeRepo) ActivatePromptVersion(ctx context.Context, id uuid.UUID) (PromptVersion, error) {
	return PromptVersion{}, ErrNotFound{ID: id, Code: "prompt_version_not_found", Message: "prompt version not found"}
}

func (f *fakeRepo) GetActivePromptVersion(ctx context.Context, assetTypeID uuid.UUID) (PromptVersion, error) {
	if f.getActivePromptVersion != nil {
		return f.getActivePromptVersion(ctx, assetTypeID)
	}
	return PromptVersion{}, ErrNotFound{Code: "active_prompt_version_not_found", Message: "no active prompt version"}
}

func (f *fakeRepo) GetPromptOverride(ctx context.Context, productID, assetTypeID uuid.UUID) (PromptOverride, error) {
	if f.getPromptOverride != nil {
		return f.getPromptOverride(ctx, productID, assetTypeID)
	}
	return PromptOverride{}, ErrNotFound{Code: "prompt_override_not_found", Message: "prompt override not found"}
}

func (f *fakeRepo) UpsertPromptOverride(ctx context.Context, po PromptOverride) (PromptOverride, error) {
	po.ID = uuid.New()
	return po, nil
}

func (f *fakeRepo) DeletePromptOverride(ctx context.Context, productID, assetTypeID uuid.UUID) error {
	return nil
}

func (f *fakeRepo) NextAssetVersion(ctx context.Context, productID, assetTypeID uuid.UUID) (int, error) {
	if f.nextAssetVersion != nil {
		return f.nextAssetVersion(ctx, productID, assetTypeID)
	}
	return 1, nil
}

func (f *fakeRepo) ListGeneratedAssets(ctx context.Context, opt ListGeneratedAssetsOption) ([]GeneratedAsset, int, error) {
	if f.listGeneratedAssets != nil {
		return f.listGeneratedAssets(ctx, opt)
	}
	return nil, 0, nil
}

func (f *fakeRepo) GetGeneratedAssetByID(ctx context.Context, id uuid.UUID) (GeneratedAsset, error) {
	if f.getGeneratedAssetByID != nil {
		return f.getGeneratedAssetByID(ctx, id)
	}
	return GeneratedAsset{}, ErrNotFound{ID: id, Code: "asset_not_found", Message: "asset not found"}
}

func (f *fakeRepo) CreateGeneratedAsset(ctx context.Context, a GeneratedAsset) (GeneratedAsset, error) {
	if f.createGeneratedAsset != nil {
		return f.createGeneratedAsset(ctx, a)
	}
	a.ID = uuid.New()
	return a, nil
}

func (f *fakeRepo) UpdateGeneratedAsset(ctx context.Context, a GeneratedAsset) (GeneratedAsset, error) {
	if f.updateGeneratedAsset != nil {
		return f.updateGeneratedAsset(ctx, a)
	}
	return a, nil
}

func (f *fakeRepo) UpdateAssetStatusCAS(ctx context.Context, id uuid.UUID, lockVersion int, status AssetStatus) (GeneratedAsset, error) {
	if f.updateAssetStatusCAS != nil {
		return f.updateAssetStatusCAS(ctx, id, lockVersion, status)
	}
	return GeneratedAsset{ID: id, Status: status, LockVersion: lockVersion + 1}, nil
}

func (f *fakeRepo) SetAssetPushStatus(ctx context.Context, ids []uuid.UUID, status string, pushedAt *time.Time) error {
	if f.setAssetPushStatus != nil {
		return f.setAssetPushStatus(ctx, ids, status, pushedAt)
	}
	return nil
}

func (f *fakeRepo) ListComments(ctx context.Context, assetID uuid.UUID) ([]Comment, error) {
	return nil, nil
}

func (f *fakeRepo) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	if f.createComment != nil {
		return f.createComment(ctx, c)
	}
	c.ID = uuid.New()
	return c, nil
}

func (f *fakeRepo) CreateActivityLog(ctx context.Context, al ActivityLog) (ActivityLog, error) {
	if f.createActivityLog != nil {
		return f.createActivityLog(ctx, al)
	}
	al.ID = uuid.New()
	return al, nil
}

func (f *fakeRepo) ListActivityLogs(ctx context.Context, opt ListActivityLogsOption) ([]ActivityLog, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) SubscribeActivity(ch chan<- ActivityLog)   {}
func (f *fakeRepo) UnsubscribeActivity(ch chan<- ActivityLog) {}

func (f *fakeRepo) IncrementDailyAnalytics(ctx context.Context, day time.Time, approved, rejected int) error {
	if f.incrementDailyAnalytics != nil {
		return f.incrementDailyAnalytics(ctx, day, approved, rejected)
	}
	return nil
}

func (f *fakeRepo) ListDailyAnalytics(ctx context.Context, from, to time.Time) ([]DailyAnalytics, error) {
	if f.listDailyAnalytics != nil {
		return f.listDailyAnalytics(ctx, from, to)
	}
	return nil, nil
}

func (f *fakeRepo) CreateGenerationJob(ctx context.Context, j GenerationJob) (GenerationJob, error) {
	if f.createGenerationJob != nil {
		return f.createGenerationJob(ctx, j)
	}
	j.ID = uuid.New()
	return j, nil
}

func (f *fakeRepo) ListGenerationJobs(ctx context.Context, opt ListGenerationJobsOption) ([]GenerationJob, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) GetGenerationJobByID(ctx context.Context, id uuid.UUID) (GenerationJob, error) {
	if f.getGenerationJobByID != nil {
		return f.getGenerationJobByID(ctx, id)
	}
	return GenerationJob{}, ErrNotFound{ID: id, Code: "generation_job_not_found", Message: "generation job not found"}
}

func (f *fakeRepo) UpdateGenerationJob(ctx context.Context, j GenerationJob) (GenerationJob, error) {
	if f.updateGenerationJob != nil {
		return f.updateGenerationJob(ctx, j)
	}
	return j, nil
}

func (f *fakeRepo) CreateImagePushes(ctx context.Context, pushes []AmazonImagePush) ([]AmazonImagePush, error) {
	if f.createImagePushes != nil {
		return f.createImagePushes(ctx, pushes)
	}
	for i := range pushes {
		pushes[i].ID = uuid.New()
	}
	return pushes, nil
}

func (f *fakeRepo) ListImagePushes(ctx context.Context, opt ListImagePushesOption) ([]AmazonImagePush, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ResolveImagePushes(ctx context.Context, ids []uuid.UUID, outcome PushOutcome) error {
	if f.resolveImagePushes != nil {
		return f.resolveImagePushes(ctx, ids, outcome)
	}
	return nil
}

func (f *fakeRepo) ListStalePendingPushes(ctx context.Context, olderThan time.Time) ([]AmazonImagePush, error) {
	if f.listStalePendingPushes != nil {
		return f.listStalePendingPushes(ctx, olderThan)
	}
	return nil, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	files     map[string][]byte
	publicURL string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}, publicURL: "https://cdn.test"}
}

func (f *fakeStorage) UploadFile(ctx context.Context, path string, content []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
	return nil
}

func (f *fakeStorage) GetFile(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[path]
	if !ok {
		return nil, ErrNotFound{Code: "file_not_found", Message: "file not found: " + path}
	}
	return b, nil
}

func (f *fakeStorage) GetPublicURL(ctx context.Context) (string, error) { return f.publicURL, nil }

func (f *fakeStorage) GetPresignedURL(ctx context.Context, path string) (string, error) {
	return f.publicURL + "/" + path + "?signed", nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}

type fakeGenerator struct {
	generateImage func(context.Context, string, []byte) (GeneratedImage, error)
	generateVideo func(context.Context, string, VideoParams) (string, error)
	getOperation  func(context.Context, string) (OperationStatus, error)
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string, source []byte) (GeneratedImage, error) {
	if f.generateImage != nil {
		return f.generateImage(ctx, prompt, source)
	}
	return GeneratedImage{Data: []byte("img"), Width: 1024, Height: 1024, FileSize: 3}, nil
}

func (f *fakeGenerator) GenerateVideo(ctx context.Context, prompt string, params VideoParams) (string, error) {
	if f.generateVideo != nil {
		return f.generateVideo(ctx, prompt, params)
	}
	return "operations/test", nil
}

func (f *fakeGenerator) GetOperation(ctx context.Context, name string) (OperationStatus, error) {
	if f.getOperation != nil {
		return f.getOperation(ctx, name)
	}
	return OperationStatus{Name: name}, nil
}

type fakeMarketplace struct {
	updateListingImages func(context.Context, string, []ListingImage, string) (ListingSubmission, error)
	getSubmissionStatus func(context.Context, string) (ListingSubmission, error)
	listInventory       func(context.Context, bool) ([]InventoryItem, error)
	getCatalogItem      func(context.Context, string) (CatalogItem, error)
}

func (f *fakeMarketplace) UpdateListingImages(ctx context.Context, sku string, images []ListingImage, productType string) (ListingSubmission, error) {
	if f.updateListingImages != nil {
		return f.updateListingImages(ctx, sku, images, productType)
	}
	return ListingSubmission{SubmissionID: "sub-1", Accepted: true, Status: "ACCEPTED"}, nil
}

func (f *fakeMarketplace) GetSubmissionStatus(ctx context.Context, submissionID string) (ListingSubmission, error) {
	if f.getSubmissionStatus != nil {
		return f.getSubmissionStatus(ctx, submissionID)
	}
	return ListingSubmission{SubmissionID: submissionID, Accepted: true, Status: "ACCEPTED"}, nil
}

func (f *fakeMarketplace) ListInventory(ctx context.Context, onlyInStock bool) ([]InventoryItem, error) {
	if f.listInventory != nil {
		return f.listInventory(ctx, onlyInStock)
	}
	return nil, nil
}

func (f *fakeMarketplace) GetCatalogItem(ctx context.Context, asin string) (CatalogItem, error) {
	if f.getCatalogItem != nil {
		return f.getCatalogItem(ctx, asin)
	}
	return CatalogItem{}, ErrNotFound{Code: "catalog_item_not_found", Message: "catalog item not found"}
}

type fakeLock struct {
	acquireErr error
	held       []string
}

func (f *fakeLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.held = append(f.held, key)
	return func() {}, nil
}

type fakeMailer struct {
	sent []Email
}

func (f *fakeMailer) SendEmail(ctx context.Context, email Email) error {
	f.sent = append(f.sent, email)
	return nil
}

type fakeQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeQueue) EnqueueGenerationJob(ctx context.Context, jobID uuid.UUID, priority int) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, jobID)
	return nil
}

func newTestUsecase(repo *fakeRepo) (Usecase, *fakeStorage) {
	fs := newFakeStorage()
	return New(repo, fs, &fakeGenerator{}, &fakeMarketplace{}, &fakeMailer{}, &fakeLock{}, &fakeQueue{}, nil), fs
}

func actorContext(id uuid.UUID) context.Context {
	return context.WithValue(context.Background(), config.CTX_KEY_USER_ID, id)
}
