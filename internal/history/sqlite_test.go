package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liver-predict/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	return store
}

func testEntry(age float64, prediction string, outcome domain.Status) *Entry {
	return &Entry{
		Record: domain.ClinicalRecord{
			Age:                 age,
			Gender:              domain.GenderMale,
			TotalBilirubin:      0.9,
			DirectBilirubin:     0.2,
			AlkalinePhosphatase: 120,
			ALT:                 30,
			AST:                 25,
			TotalProteins:       7,
			Albumin:             4,
			AGRatio:             1.2,
		},
		Result: domain.PredictionResult{
			Prediction: prediction,
			Risk:       "Low Risk",
			Warnings:   []domain.MedicalWarning{},
		},
		Outcome: outcome,
		Source:  "cli",
	}
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := NewSQLiteStore(dbPath)

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	entry := testEntry(45, "No Liver Disease Detected", domain.StatusHealthy)

	require.NoError(t, store.Save(ctx, entry))
	assert.NotEmpty(t, entry.ID, "ID should be assigned")
	assert.False(t, entry.CreatedAt.IsZero(), "CreatedAt should be set")

	got, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Record, got.Record)
	assert.Equal(t, entry.Result.Prediction, got.Result.Prediction)
	assert.Equal(t, domain.StatusHealthy, got.Outcome)
	assert.Equal(t, "cli", got.Source)
	assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	_, err := store.Get(context.Background(), "missing")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStore_SaveDuplicateID(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	entry := testEntry(45, "No Liver Disease Detected", domain.StatusHealthy)
	require.NoError(t, store.Save(ctx, entry))

	dup := testEntry(50, "Liver Disease Detected", domain.StatusDisease)
	dup.ID = entry.ID
	assert.Error(t, store.Save(ctx, dup))
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := testEntry(float64(30+i), "No Liver Disease Detected", domain.StatusHealthy)
		entry.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, entry))
	}

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 34.0, page[0].Record.Age)
	assert.Equal(t, 33.0, page[1].Record.Age)

	page, err = store.List(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 31.0, page[0].Record.Age)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	entries, err := store.List(context.Background(), 10, 0)

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	entry := testEntry(45, "No Liver Disease Detected", domain.StatusHealthy)
	require.NoError(t, store.Save(ctx, entry))

	require.NoError(t, store.Delete(ctx, entry.ID))

	_, err := store.Get(ctx, entry.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, entry.ID), domain.ErrNotFound))
}

func TestSQLiteStore_ExportImport(t *testing.T) {
	source := createTestStore(t)
	defer source.Close()
	ctx := context.Background()

	require.NoError(t, source.Save(ctx, testEntry(40, "No Liver Disease Detected", domain.StatusHealthy)))
	require.NoError(t, source.Save(ctx, testEntry(60, "Liver Disease Detected", domain.StatusDisease)))

	var buf bytes.Buffer
	require.NoError(t, source.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, ExportVersion, export.Version)
	assert.Equal(t, 2, export.Count)

	target := createTestStore(t)
	defer target.Close()

	imported, skipped, err := target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 0, skipped)

	imported, skipped, err = target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 2, skipped)

	count, err := target.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_ImportInvalidJSON(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	_, _, err := store.ImportJSON(context.Background(), bytes.NewReader([]byte("not json")))

	assert.Error(t, err)
}
