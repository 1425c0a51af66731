package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/history"
	"github.com/liver-predict/migrations"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	url, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrations.Files, ".")
	require.NoError(t, err)
	defer src.Close()

	latest, err := lastVersion(src)
	require.NoError(t, err)
	assert.Equal(t, uint(1), latest)

	up, _, err := src.ReadUp(latest)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS predictions")
}

func TestSchemaVersion_Pending(t *testing.T) {
	assert.True(t, SchemaVersion{Current: 0, Latest: 1}.Pending())
	assert.False(t, SchemaVersion{Current: 1, Latest: 1}.Pending())
}

func TestDatabaseConnection(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	db, err := NewConnection(ctx, DefaultConfig(url), logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Health(ctx))
	assert.NotZero(t, db.Pool.Stat().TotalConns(), "Expected at least one connection in pool")
}

func TestMigrationsAndHistoryStore(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := NewConnection(ctx, DefaultConfig(url), logger)
	require.NoError(t, err)
	defer db.Close()

	runner, err := NewMigrationRunner(ctx, db, logger)
	require.NoError(t, err)

	version, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion{Current: 0, Latest: 1}, version)

	require.NoError(t, runner.Up())
	version, err = runner.Version()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion{Current: 1, Latest: 1}, version)
	require.NoError(t, runner.Close())

	// Closing the runner leaves the pool usable, and a second run is a no-op.
	require.NoError(t, db.Health(ctx))
	require.NoError(t, Migrate(ctx, db, logger))

	var table string
	require.NoError(t, db.Pool.QueryRow(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_name = $1", MigrationsTable).Scan(&table))
	assert.Equal(t, MigrationsTable, table)

	store, err := history.NewPostgresStore(db.SQL())
	require.NoError(t, err)

	entry := &history.Entry{
		Record:  domain.ClinicalRecord{Age: 52, Gender: 1, TotalBilirubin: 2.1, DirectBilirubin: 0.9},
		Result:  domain.PredictionResult{Prediction: "Liver Disease Detected", Risk: "High Risk"},
		Outcome: domain.StatusDisease,
		Source:  "gateway",
	}
	require.NoError(t, store.Save(ctx, entry))

	got, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Record, got.Record)
	assert.Equal(t, "Liver Disease Detected", got.Result.Prediction)
	assert.Equal(t, domain.StatusDisease, got.Outcome)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
