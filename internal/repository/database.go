// Package repository provides data access layer using GORM for database operations.
package repository

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aimd54/kibo-gamification/internal/config"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// DB holds the database connection.
type DB struct {
	*gorm.DB
}

// NewDB creates a new database connection.
func NewDB(cfg *config.PostgresConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Connected to PostgreSQL")

	return &DB{db}, nil
}

// NewLocalDB opens the device-local SQLite store used for reminders.
func NewLocalDB(path string, log *logger.Logger) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open local store %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get local store handle: %w", err)
	}
	// SQLite allows a single writer; ":memory:" is also per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Reminder{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened local reminder store")

	return &DB{db}, nil
}

func gormConfig(log *logger.Logger) *gorm.Config {
	gormLogLevel := gormlogger.Warn
	if log.GetLogger().GetLevel() == 0 { // debug
		gormLogLevel = gormlogger.Info
	}
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	}
}

// AutoMigrate runs GORM migrations for all remote models. Tests and development use this
// instead of the SQL migrations.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.Profile{},
		&models.LevelThreshold{},
		&models.DailyActivity{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.AssessmentAttempt{},
		&models.Application{},
	)
}

// WithTx returns a DB bound to an open transaction.
func WithTx(tx *gorm.DB) *DB {
	return &DB{tx}
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database is healthy.
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
