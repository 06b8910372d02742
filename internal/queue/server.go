package queue

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/listora/listora/internal/config"
	"github.com/listora/listora/internal/database"
	"github.com/listora/listora/internal/email"
	"github.com/listora/listora/internal/filestorage"
	"github.com/listora/listora/internal/generator"
	"github.com/listora/listora/internal/lock"
	"github.com/listora/listora/internal/marketplace"
	"github.com/listora/listora/internal/queue/handlers"
	"github.com/listora/listora/internal/usecase"
)

// Worker processes background tasks: generation jobs, video operation
// polls and push reconciliation.
type Worker struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	uc          usecase.Usecase
	logger      *slog.Logger
}

// NewWorker creates a fully configured worker with all dependencies.
func NewWorker(logger *slog.Logger) (*Worker, error) {
	uc, err := newWorkerUsecase(logger)
	if err != nil {
		return nil, err
	}

	concurrency := 10
	if wc := os.Getenv(config.ENV_KEY_WORKER_CONCURRENCY); wc != "" {
		if n, err := strconv.Atoi(wc); err == nil && n > 0 {
			concurrency = n
		}
	}

	asynqServer := asynq.NewServer(
		redisOpt(),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: &asynqSlogLogger{logger: logger},
		},
	)

	h := handlers.NewHandlers(uc, logger)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskGenerationProcess, h.HandleGenerationJob)
	mux.HandleFunc(TaskPushReconcile, h.HandlePushReconcile)
	mux.HandleFunc(TaskVideoPoll, h.HandleVideoPoll)

	return &Worker{
		asynqServer: asynqServer,
		mux:         mux,
		uc:          uc,
		logger:      logger,
	}, nil
}

// Start starts the worker server
func (w *Worker) Start() error {
	return w.asynqServer.Start(w.mux)
}

// Stop stops the worker server gracefully
func (w *Worker) Stop() {
	w.asynqServer.Shutdown()
	if err := w.uc.Close(); err != nil {
		w.logger.Error("closing repository", "error", err)
	}
}

// Scheduler enqueues the periodic maintenance tasks.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt(), &asynq.SchedulerOpts{
		Logger: &asynqSlogLogger{logger: logger},
	})

	if _, err := scheduler.Register("@every 5m", asynq.NewTask(TaskPushReconcile, nil)); err != nil {
		return nil, fmt.Errorf("register push reconcile: %w", err)
	}
	if _, err := scheduler.Register("@every 1m", asynq.NewTask(TaskVideoPoll, nil)); err != nil {
		return nil, fmt.Errorf("register video poll: %w", err)
	}

	return &Scheduler{scheduler: scheduler, logger: logger}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}

// newWorkerUsecase wires the same providers as the API, minus the hub
// and queue client which workers do not need.
func newWorkerUsecase(logger *slog.Logger) (usecase.Usecase, error) {
	repo, err := database.New(logger, false)
	if err != nil {
		return usecase.Usecase{}, fmt.Errorf("failed to create repository: %w", err)
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
		return usecase.Usecase{}, fmt.Errorf("failed to create marketplace client: %w", err)
	}

	mailer := email.NewEmailProvider(
		os.Getenv(config.ENV_KEY_SMTP_HOST),
		os.Getenv(config.ENV_KEY_SMTP_USERNAME),
		os.Getenv(config.ENV_KEY_SMTP_PASSWORD),
		os.Getenv(config.ENV_KEY_SMTP_PORT),
		logger,
	)

	locker := lock.NewRedisLock(redisAddr(), os.Getenv(config.ENV_KEY_REDIS_PASSWORD), 0)

	return usecase.New(repo, fsp, gen, mp, mailer, locker, nil, logger), nil
}

func redisAddr() string {
	return fmt.Sprintf("%s:%s",
		os.Getenv(config.ENV_KEY_REDIS_HOST),
		os.Getenv(config.ENV_KEY_REDIS_PORT),
	)
}

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     redisAddr(),
		Password: os.Getenv(config.ENV_KEY_REDIS_PASSWORD),
	}
}

// asynqSlogLogger adapts asynq's logger interface onto slog.
type asynqSlogLogger struct {
	logger *slog.Logger
}

func (l *asynqSlogLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Fatal(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
