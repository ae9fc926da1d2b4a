package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectMaxRetries     = 3
	connectInitialBackoff = 1 * time.Second
)

// NewDatabase creates a new database connection with retry for transient
// startup failures. The driver is "postgres" in all deployed environments;
// "sqlite" exists for local development without a Postgres instance.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error
	backoff := connectInitialBackoff

	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		switch cfg.Driver {
		case "sqlite":
			db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		default:
			db, err = gorm.Open(postgres.Open(cfg.ConnectionString()), gormCfg)
		}
		if err == nil {
			break
		}

		log.Warn("database connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectMaxRetries),
			zap.Error(err),
		)
		if attempt < connectMaxRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs automatic migrations (for development only; deployed
// environments use the goose migrations in migrations/)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Post{},
		&domain.Vote{},
		&domain.PrivatePost{},
		&domain.TeamTag{},
		&domain.TeamPreference{},
		&domain.Team{},
		&domain.DigestLog{},
	)
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Ping()
}

// HealthCheckWithStats pings the database and returns connection pool stats
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
