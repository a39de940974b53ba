package preferences

import (
	"context"
	"sync"
	"testing"
	"time"

	"circuitbot/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// PostgresStoreSuite поднимает Postgres в контейнере один раз на весь набор.
type PostgresStoreSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("prefs-test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(2*time.Minute),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(ApplyMigrations(dsn))
	// Повторный прогон миграций - no-op
	s.Require().NoError(ApplyMigrations(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool
	s.store = NewPostgresStore(pool, zap.NewNop())
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE ab_preferences")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestUnknownUserIsNeutral() {
	s.Equal(models.LeaningNeutral, s.store.Leaning(context.Background(), "ghost"))

	counter, err := s.store.Counter(context.Background(), "ghost")
	s.NoError(err)
	s.Equal(models.StyleCounter{}, counter)
}

func (s *PostgresStoreSuite) TestRecordChoiceIncrements() {
	ctx := context.Background()

	s.Equal(models.StyleCounter{Concise: 1}, s.store.RecordChoice(ctx, "u1", models.StyleConcise))
	s.Equal(models.StyleCounter{Concise: 2}, s.store.RecordChoice(ctx, "u1", models.StyleConcise))
	s.Equal(models.LeaningConcise, s.store.Leaning(ctx, "u1"))

	s.Equal(models.StyleCounter{Concise: 2, Detailed: 1}, s.store.RecordChoice(ctx, "u1", models.StyleDetailed))
	s.Equal(models.StyleCounter{Concise: 2, Detailed: 2}, s.store.RecordChoice(ctx, "u1", models.StyleDetailed))
	s.Equal(models.LeaningDetailed, s.store.Leaning(ctx, "u1"))
}

func (s *PostgresStoreSuite) TestConcurrentChoicesAreExact() {
	ctx := context.Background()
	const writers = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.store.RecordChoice(ctx, "u1", models.StyleConcise)
		}()
	}
	wg.Wait()

	counter, err := s.store.Counter(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(writers, counter.Concise)
}
