package preferences

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"circuitbot/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ Store = (*PostgresStore)(nil)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	selectCounterQuery = `SELECT concise, detailed FROM ab_preferences WHERE user_id = $1`

	// Инкремент атомарен на уровне строки: INSERT либо UPDATE существующих счетчиков.
	incrementCounterQuery = `
		INSERT INTO ab_preferences (user_id, concise, detailed, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			concise    = ab_preferences.concise + EXCLUDED.concise,
			detailed   = ab_preferences.detailed + EXCLUDED.detailed,
			updated_at = NOW()
		RETURNING concise, detailed`
)

// PostgresStore хранит счетчики в таблице ab_preferences.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore создает хранилище поверх пула соединений.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.Named("PgPrefsStore"),
	}
}

// ApplyMigrations применяет встроенные миграции к базе по DSN.
func ApplyMigrations(dsn string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Counter читает счетчики пользователя; отсутствие строки - нули.
func (s *PostgresStore) Counter(ctx context.Context, userID string) (models.StyleCounter, error) {
	var counter models.StyleCounter
	if err := pgxscan.Get(ctx, s.pool, &counter, selectCounterQuery, userID); err != nil {
		if pgxscan.NotFound(err) {
			return models.StyleCounter{}, nil
		}
		return models.StyleCounter{}, fmt.Errorf("select counter: %w", err)
	}
	return counter, nil
}

// Leaning реализует Store.
func (s *PostgresStore) Leaning(ctx context.Context, userID string) models.Leaning {
	counter, err := s.Counter(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to read prefs, assuming neutral", zap.String("userID", userID), zap.Error(err))
		return models.LeaningNeutral
	}
	return counter.Leaning()
}

// RecordChoice реализует Store.
func (s *PostgresStore) RecordChoice(ctx context.Context, userID string, style models.Style) models.StyleCounter {
	var delta models.StyleCounter
	delta.Increment(style)

	var counter models.StyleCounter
	err := pgxscan.Get(ctx, s.pool, &counter, incrementCounterQuery, userID, delta.Concise, delta.Detailed)
	if err != nil {
		s.logger.Error("Failed to record choice", zap.String("userID", userID), zap.String("style", string(style)), zap.Error(err))
		return models.StyleCounter{}
	}

	s.logger.Debug("Recorded A/B choice",
		zap.String("userID", userID),
		zap.String("style", string(style)),
		zap.Int("concise", counter.Concise),
		zap.Int("detailed", counter.Detailed),
	)
	return counter
}
