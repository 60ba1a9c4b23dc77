package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultMaxOpenConns = 10

// Options holds the connection settings for the Postgres pool.
type Options struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// MaxOpenConns bounds the pool; callers queue on exhaustion.
	MaxOpenConns int
}

// Connect opens a pooled Postgres connection. The caller owns the returned
// handle and injects it where needed; there is no package-level singleton.
func Connect(opts Options) (*gorm.DB, error) {
	if opts.SSLMode == "" {
		opts.SSLMode = "disable"
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = defaultMaxOpenConns
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		opts.Host, opts.User, opts.Password, opts.Name, opts.Port, opts.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxOpenConns)

	return db, nil
}
