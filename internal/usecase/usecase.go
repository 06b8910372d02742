package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

func New(
	repo Repository,
	fsp FileStorageProvider,
	gen GeneratorProvider,
	mp MarketplaceProvider,
	mailer MailProvider,
	locker LockProvider,
	qc QueueClient,
	logger *slog.Logger,
) Usecase {
	return Usecase{
		repo:                repo,
		fileStorageProvider: fsp,
		generator:           gen,
		marketplace:         mp,
		mailer:              mailer,
		locker:              locker,
		queue:               qc,
		logger:              logger,
	}
}

type Repository interface {
	Health() map[string]string
	Close() error

	ListUsers(context.Context, ListUsersOption) ([]User, int, error)
	GetUserByID(context.Context, uuid.UUID) (User, error)
	GetUserByUID(context.Context, string) (User, error)
	CreateUser(context.Context, User) (User, error)

	ListProducts(context.Context, ListProductsOption) ([]Product, int, error)
	GetProductByID(context.Context, uuid.UUID) (Product, error)
	GetProductByASIN(context.Context, string) (Product, error)
	CreateProduct(context.Context, Product) (Product, error)
	UpdateProduct(context.Context, Product) (Product, error)
	UpdateProductStatus(context.Context, uuid.UUID, ProductStatus) error
	DeleteProduct(context.Context, uuid.UUID) error

	ListSourceImages(context.Context, uuid.UUID) ([]SourceImage, error)
	GetSourceImageByID(context.Context, uuid.UUID) (SourceImage, error)
	ReplaceSourceImages(context.Context, uuid.UUID, []SourceImage) ([]SourceImage, error)

	ListAssetTypes(context.Context, ListAssetTypesOption) ([]AssetType, int, error)
	GetAssetTypeByID(context.Context, uuid.UUID) (AssetType, error)
	CreateAssetType(context.Context, AssetType) (AssetType, error)
	UpdateAssetType(context.Context, AssetType) (AssetType, error)

	ListPromptVersions(context.Context, uuid.UUID) ([]PromptVersion, error)
	CreatePromptVersion(context.Context, PromptVersion) (PromptVersion, error)
	ActivatePromptVersion(context.Context, uuid.UUID) (PromptVersion, error)
	GetActivePromptVersion(context.Context, uuid.UUID) (PromptVersion, error)

	GetPromptOverride(context.Context, uuid.UUID, uuid.UUID) (PromptOverride, error)
	UpsertPromptOverride(context.Context, PromptOverride) (PromptOverride, error)
	DeletePromptOverride(context.Context, uuid.UUID, uuid.UUID) error

	NextAssetVersion(context.Context, uuid.UUID, uuid.UUID) (int, error)
	ListGeneratedAssets(context.Context, ListGeneratedAssetsOption) ([]GeneratedAsset, int, error)
	GetGeneratedAssetByID(context.Context, uuid.UUID) (GeneratedAsset, error)
	CreateGeneratedAsset(context.Context, GeneratedAsset) (GeneratedAsset, error)
	UpdateGeneratedAsset(context.Context, GeneratedAsset) (GeneratedAsset, error)
	UpdateAssetStatusCAS(ctx context.Context, id uuid.UUID, lockVersion int, status AssetStatus) (GeneratedAsset, error)
	SetAssetPushStatus(ctx context.Context, ids []uuid.UUID, status string, pushedAt *time.Time) error

	ListComments(context.Context, uuid.UUID) ([]Comment, error)
	CreateComment(context.Context, Comment) (Comment, error)

	CreateActivityLog(context.Context, ActivityLog) (ActivityLog, error)
	ListActivityLogs(context.Context, ListActivityLogsOption) ([]ActivityLog, int, error)
	SubscribeActivity(ch chan<- ActivityLog)
	UnsubscribeActivity(ch chan<- ActivityLog)

	IncrementDailyAnalytics(ctx context.Context, day time.Time, approved, rejected int) error
	ListDailyAnalytics(ctx context.Context, from, to time.Time) ([]DailyAnalytics, error)

	CreateGenerationJob(context.Context, GenerationJob) (GenerationJob, error)
	ListGenerationJobs(context.Context, ListGenerationJobsOption) ([]GenerationJob, int, error)
	GetGenerationJobByID(context.Context, uuid.UUID) (GenerationJob, error)
	UpdateGenerationJob(context.Context, GenerationJob) (GenerationJob, error)

	CreateImagePushes(context.Context, []AmazonImagePush) ([]AmazonImagePush, error)
	ListImagePushes(context.Context, ListImagePushesOption) ([]AmazonImagePush, int, error)
	ResolveImagePushes(ctx context.Context, ids []uuid.UUID, outcome PushOutcome) error
	ListStalePendingPushes(ctx context.Context, olderThan time.Time) ([]AmazonImagePush, error)
}

// FileStorageProvider abstracts the object storage backend.
type FileStorageProvider interface {
	UploadFile(ctx context.Context, path string, content []byte) error
	GetFile(ctx context.Context, path string) ([]byte, error)
	GetPublicURL(ctx context.Context) (string, error)
	GetPresignedURL(ctx context.Context, path string) (string, error)
	DeleteFile(ctx context.Context, path string) error
}

// GeneratorProvider abstracts the external image/video generator.
type GeneratorProvider interface {
	GenerateImage(ctx context.Context, prompt string, source []byte) (GeneratedImage, error)
	GenerateVideo(ctx context.Context, prompt string, params VideoParams) (string, error)
	GetOperation(ctx context.Context, name string) (OperationStatus, error)
}

// MarketplaceProvider abstracts the Amazon listing and inventory APIs.
type MarketplaceProvider interface {
	UpdateListingImages(ctx context.Context, sku string, images []ListingImage, productType string) (ListingSubmission, error)
	GetSubmissionStatus(ctx context.Context, submissionID string) (ListingSubmission, error)
	ListInventory(ctx context.Context, onlyInStock bool) ([]InventoryItem, error)
	GetCatalogItem(ctx context.Context, asin string) (CatalogItem, error)
}

type MailProvider interface {
	SendEmail(ctx context.Context, email Email) error
}

// LockProvider serializes work on a shared key across instances.
// The returned func releases the lock.
type LockProvider interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type QueueClient interface {
	EnqueueGenerationJob(ctx context.Context, jobID uuid.UUID, priority int) error
}

type Usecase struct {
	repo                Repository
	fileStorageProvider FileStorageProvider
	generator           GeneratorProvider
	marketplace         MarketplaceProvider
	mailer              MailProvider
	locker              LockProvider
	queue               QueueClient
	logger              *slog.Logger
}

func (u Usecase) Health() map[string]string {
	return u.repo.Health()
}

func (u Usecase) Close() error {
	return u.repo.Close()
}
