package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/listora/listora/internal/config"
)

// implements usecase.Repository
type service struct {
	db  *gorm.DB
	hub *activityHub
}

func connString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv(config.ENV_KEY_DB_USER),
		os.Getenv(config.ENV_KEY_DB_PASSWORD),
		os.Getenv(config.ENV_KEY_DB_HOST),
		os.Getenv(config.ENV_KEY_DB_PORT),
		os.Getenv(config.ENV_KEY_DB_DATABASE),
	)
}

// New opens the database, runs migrations and starts the activity
// LISTEN/NOTIFY hub. withHub is false for workers, which write activity
// rows but serve no live stream.
func New(logger *slog.Logger, withHub bool) (*service, error) {
	connStr := connString()

	gormDB, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: NewSlogGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := gormDB.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("register otel plugin: %w", err)
	}

	db, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	if m, err := strconv.Atoi(os.Getenv(config.ENV_KEY_DB_MAX_OPEN_CONNECTIONS)); err == nil {
		db.SetMaxOpenConns(m)
	}

	if err := gormDB.AutoMigrate(
		User{},
		Product{},
		SourceImage{},
		AssetType{},
		PromptVersion{},
		PromptOverride{},
		AssetVersionCounter{},
		GeneratedAsset{},
		Comment{},
		ActivityLog{},
		DailyAnalytics{},
		GenerationJob{},
		AmazonImagePush{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	for _, stmt := range []string{
		// one active prompt version per asset type
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_active_prompt_version
			ON prompt_versions (asset_type_id)
			WHERE is_active = true`,
		// one override per (product, asset type) pair
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_prompt_override_pair
			ON prompt_overrides (product_id, asset_type_id)`,
		// unique marketplace identifier when present
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_product_asin
			ON products (asin)
			WHERE asin IS NOT NULL AND deleted_at IS NULL`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	}

	s := &service{db: gormDB}

	if withHub {
		conn, err := pgx.Connect(context.Background(), connStr)
		if err != nil {
			return nil, fmt.Errorf("open listen connection: %w", err)
		}
		if _, err := conn.Exec(context.Background(), "LISTEN "+activityChannel); err != nil {
			return nil, fmt.Errorf("listen %s: %w", activityChannel, err)
		}
		s.hub = newActivityHub(conn, logger)
	}

	return s, nil
}

// Health pings the database and reports connection pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	db, _ := s.db.DB()

	if err := db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	if dbStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

func (s *service) Close() error {
	if s.hub != nil {
		s.hub.close()
	}
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
