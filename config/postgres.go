package config

import (
	"errors"
	"os"
	"time"

	"github.com/tawafuqapp/tawafuq/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var PostgresDB *gorm.DB

func InitPostgres() error {
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		return errors.New("POSTGRES_URI environment variable is not set")
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// Connection Pooling settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	PostgresDB = db
	return nil
}

// MigratePostgres creates the schema. The pgvector extension must exist before
// the users table migrates its embedding column; the partial unique index
// enforces one live match row per pair while letting blocked history pile up.
func MigratePostgres() error {
	if PostgresDB == nil {
		return errors.New("PostgresDB is nil; call InitPostgres() first")
	}

	if err := PostgresDB.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}

	err := PostgresDB.AutoMigrate(
		&models.User{},
		&models.Match{},
		&models.TestResult{},
		&models.Photo{},
	)
	if err != nil {
		return err
	}

	return PostgresDB.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS uniq_matches_pair_key_live ON matches (pair_key) WHERE status <> 'blocked'",
	).Error
}
