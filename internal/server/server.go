package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"github.com/listora/listora/internal/config"
	"github.com/listora/listora/internal/database"
	"github.com/listora/listora/internal/email"
	"github.com/listora/listora/internal/filestorage"
	"github.com/listora/listora/internal/generator"
	"github.com/listora/listora/internal/lock"
	"github.com/listora/listora/internal/marketplace"
	"github.com/listora/listora/internal/queue"
	"github.com/listora/listora/internal/usecase"
)

// Service is the surface the HTTP layer consumes from the usecase.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	ListUsers(context.Context, usecase.ListUsersOption) ([]usecase.User, int, error)
	GetUserByID(context.Context, uuid.UUID) (usecase.User, error)
	GetUserByUID(context.Context, string) (usecase.User, error)
	CreateUser(context.Context, usecase.User) (usecase.User, error)

	ListProducts(context.Context, usecase.ListProductsOption) ([]usecase.Product, int, error)
	GetProductByID(context.Context, uuid.UUID) (usecase.Product, error)
	CreateProduct(context.Context, usecase.Product) (usecase.Product, error)
	UpdateProduct(context.Context, usecase.Product) (usecase.Product, error)
	DeleteProduct(context.Context, uuid.UUID) error
	GetListingQRCode(context.Context, uuid.UUID) ([]byte, error)
	ImportInventory(context.Context, bool) (usecase.ImportInventoryResult, error)

	ListSourceImages(context.Context, uuid.UUID) ([]usecase.SourceImage, error)
	RefreshSourceImages(context.Context, uuid.UUID) ([]usecase.SourceImage, error)

	ListAssetTypes(context.Context, usecase.ListAssetTypesOption) ([]usecase.AssetType, int, error)
	GetAssetTypeByID(context.Context, uuid.UUID) (usecase.AssetType, error)
	CreateAssetType(context.Context, usecase.AssetType) (usecase.AssetType, error)
	UpdateAssetType(context.Context, usecase.AssetType) (usecase.AssetType, error)

	ListPromptVersions(context.Context, uuid.UUID) ([]usecase.PromptVersion, error)
	CreatePromptVersion(context.Context, usecase.PromptVersion) (usecase.PromptVersion, error)
	ActivatePromptVersion(context.Context, uuid.UUID) (usecase.PromptVersion, error)
	GetPromptOverride(context.Context, uuid.UUID, uuid.UUID) (usecase.PromptOverride, error)
	UpsertPromptOverride(context.Context, usecase.PromptOverride) (usecase.PromptOverride, error)
	DeletePromptOverride(context.Context, uuid.UUID, uuid.UUID) error
	ResolvePrompt(context.Context, uuid.UUID, uuid.UUID, string) (string, error)

	ListGeneratedAssets(context.Context, usecase.ListGeneratedAssetsOption) ([]usecase.GeneratedAsset, int, error)
	GetGeneratedAssetByID(context.Context, uuid.UUID) (usecase.GeneratedAsset, error)
	GenerateImage(context.Context, usecase.GenerateAssetOption) (usecase.GeneratedAsset, error)
	GenerateVideo(context.Context, usecase.GenerateAssetOption) (usecase.GeneratedAsset, error)
	CheckVideoOperation(context.Context, uuid.UUID) (usecase.GeneratedAsset, error)
	TransitionAsset(context.Context, usecase.TransitionAssetOption) (usecase.GeneratedAsset, error)

	ListComments(context.Context, uuid.UUID) ([]usecase.Comment, error)
	CreateComment(context.Context, usecase.Comment) (usecase.Comment, error)

	ListActivityLogs(context.Context, usecase.ListActivityLogsOption) ([]usecase.ActivityLog, int, error)
	StreamActivityLogs(context.Context) (<-chan usecase.ActivityLog, error)

	GetAnalytics(context.Context, usecase.GetAnalyticsOption) ([]usecase.DailyAnalytics, error)

	EnqueueGenerationJob(context.Context, usecase.EnqueueGenerationJobOption) (usecase.GenerationJob, error)
	ListGenerationJobs(context.Context, usecase.ListGenerationJobsOption) ([]usecase.GenerationJob, int, error)
	GetGenerationJobByID(context.Context, uuid.UUID) (usecase.GenerationJob, error)

	PushToAmazon(context.Context, uuid.UUID, []usecase.PushItem) (usecase.PushBatchResult, error)
	ListImagePushes(context.Context, usecase.ListImagePushesOption) ([]usecase.AmazonImagePush, int, error)
}

type Server struct {
	port int

	server    Service
	validator *validator.Validate
	logger    *slog.Logger
}

// App bundles the HTTP server with the resources it owns.
type App struct {
	httpServer *http.Server
	service    Service
	qc         *queue.Client
	logger     *slog.Logger
}

// NewApp wires the repository, providers and usecase into an HTTP
// server ready to listen.
func NewApp() (*App, error) {
	level := slog.LevelInfo
	switch os.Getenv(config.ENV_KEY_LOG_LEVEL) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	repo, err := database.New(logger, true)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	fsp := filestorage.NewMinIOStorage(
		os.Getenv(config.ENV_KEY_MINIO_BUCKET),
		os.Getenv(config.ENV_KEY_MINIO_ENDPOINT),
		os.Getenv(config.ENV_KEY_MINIO_ACCESS_KEY),
		os.Getenv(config.ENV_KEY_MINIO_SECRET_KEY),
	)

	gen := generator.NewClient(
		os.Getenv(config.ENV_KEY_GENERATOR_ENDPOINT),
		os.Getenv(config.ENV_KEY_GENERATOR_API_KEY),
	)

	mp, err := marketplace.NewClient(
		os.Getenv(config.ENV_KEY_AMAZON_ENDPOINT),
		os.Getenv(config.ENV_KEY_AMAZON_REFRESH_TOKEN),
		os.Getenv(config.ENV_KEY_AMAZON_SELLER_ID),
		os.Getenv(config.ENV_KEY_AMAZON_MARKETPLACE),
	)
	if err != nil {
		return nil, fmt.Errorf("create marketplace client: %w", err)
	}

	mailer := email.NewEmailProvider(
		os.Getenv(config.ENV_KEY_SMTP_HOST),
		os.Getenv(config.ENV_KEY_SMTP_USERNAME),
		os.Getenv(config.ENV_KEY_SMTP_PASSWORD),
		os.Getenv(config.ENV_KEY_SMTP_PORT),
		logger,
	)

	redisAddr := fmt.Sprintf("%s:%s",
		os.Getenv(config.ENV_KEY_REDIS_HOST),
		os.Getenv(config.ENV_KEY_REDIS_PORT),
	)
	redisPassword := os.Getenv(config.ENV_KEY_REDIS_PASSWORD)

	locker := lock.NewRedisLock(redisAddr, redisPassword, 0)
	qc := queue.NewClient(redisAddr, redisPassword)

	uc := usecase.New(repo, fsp, gen, mp, mailer, locker, qc, logger)

	port, _ := strconv.Atoi(os.Getenv(config.ENV_KEY_PORT))
	if port == 0 {
		port = 8080
	}

	sv := &Server{
		port:      port,
		server:    uc,
		validator: validator.New(),
		logger:    logger,
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      sv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &App{
		httpServer: httpServer,
		service:    uc,
		qc:         qc,
		logger:     logger,
	}, nil
}

func (a *App) Addr() string {
	return a.httpServer.Addr
}

func (a *App) ListenAndServe() error {
	return a.httpServer.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if err := a.qc.Close(); err != nil {
		a.logger.Error("closing queue client", "error", err)
	}
	return a.service.Close()
}
