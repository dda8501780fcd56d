package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// One container serves the whole package; tests truncate between runs.
var shared struct {
	once      sync.Once
	pool      *Pool
	err       error
	terminate func()
}

func TestMain(m *testing.M) {
	code := m.Run()
	if shared.terminate != nil {
		shared.terminate()
	}
	os.Exit(code)
}

// setupTestDB returns a migrated, empty database. The returned func
// releases per-test state.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	shared.once.Do(func() { shared.pool, shared.terminate, shared.err = startPostgres() })
	require.NoError(t, shared.err, "start postgres")

	ctx := context.Background()
	_, err := shared.pool.Exec(ctx, "TRUNCATE swap_records")
	require.NoError(t, err, "truncate swap_records")

	return shared.pool, func() {}
}

func startPostgres() (*Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("journal"),
		postgres.WithUsername("journal"),
		postgres.WithPassword("journal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}
	terminate := func() { _ = container.Terminate(context.Background()) }

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, nil, err
	}
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		terminate()
		return nil, nil, err
	}
	if err := applySchema(ctx, pool); err != nil {
		pool.Close()
		terminate()
		return nil, nil, err
	}
	return pool, func() { pool.Close(); terminate() }, nil
}

// applySchema executes the migration sources from disk; the migrations
// package imports this one and cannot be used here.
func applySchema(ctx context.Context, pool *Pool) error {
	dir := filepath.Join("..", "migrations", "postgres")
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return err
		}
	}
	return nil
}
