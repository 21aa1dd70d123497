package postgres

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	os.Exit(runWithContainer(m))
}

func runWithContainer(m *testing.M) int {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		return 1
	}

	testPool, err = Connect(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to test database: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrationsWithLock(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		return 1
	}

	return m.Run()
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	_, err := testPool.Exec(context.Background(), "TRUNCATE snapshots")
	require.NoError(t, err)
	return testPool
}

func TestSnapshotStore_LoadEmpty(t *testing.T) {
	store := NewSnapshotStore(setupTestDB(t))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestSnapshotStore_Ping(t *testing.T) {
	store := NewSnapshotStore(setupTestDB(t))

	assert.NoError(t, store.Ping(context.Background()))
}

func TestSnapshotStore_SaveAndOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(setupTestDB(t))

	require.NoError(t, store.Save(ctx, []byte(`{"version":1,"user_votes":{"hi":{"joy":1}}}`)))
	require.NoError(t, store.Save(ctx, []byte(`{"version":1,"user_votes":{"hi":{"joy":2},"спасибо":{"gratitude":1}}}`)))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"user_votes":{"hi":{"joy":2},"спасибо":{"gratitude":1}}}`, string(got))

	var rows int
	require.NoError(t, testPool.QueryRow(ctx, "SELECT count(*) FROM snapshots").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSnapshotStore_RejectsInvalidJSON(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(setupTestDB(t))
	require.NoError(t, store.Save(ctx, []byte(`{"version":1}`)))

	assert.Error(t, store.Save(ctx, []byte(`{"version":`)))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(got), "failed save leaves the previous document")
}

func TestSnapshotStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(setupTestDB(t))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, _ := json.Marshal(map[string]int{"version": 1, "n": i})
			assert.NoError(t, store.Save(ctx, doc))
		}(i)
	}
	wg.Wait()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	var doc map[string]int
	require.NoError(t, json.Unmarshal(got, &doc))
	assert.Equal(t, 1, doc["version"])
}

func TestRunMigrationsWithLock_Idempotent(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, RunMigrationsWithLock(context.Background(), testPool))
}

func TestExtractSSLMode(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://u:p@localhost/db?sslmode=disable", "disable"},
		{"postgres://u:p@localhost/db?sslmode=REQUIRE", "require"},
		{"postgres://u:p@localhost/db", "prefer (default)"},
		{"://bad", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractSSLMode(tt.url), tt.url)
	}
}
