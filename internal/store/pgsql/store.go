// Package pgsql is the PostgreSQL backend, built on gorm.
package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oerhub/oerhub-server/internal/store"
)

// Store provides PostgreSQL-backed persistence.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Open connects to dsn and migrates the schema.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&keywordModel{}, &resourceModel{}, &documentModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	if logger != nil {
		logger.Info("postgres database opened")
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return store.Unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return store.Unavailable("ping", err)
	}
	return nil
}

// wrapErr maps gorm.ErrRecordNotFound to store.ErrNotFound, passes store
// errors through, and hides everything else behind Unavailable.
func wrapErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}
	return store.Unavailable(op, err)
}
