package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"asset-exporter/core/database"
	"asset-exporter/core/pipeline"
)

func setupSQLite(t *testing.T) *Recorder {
	t.Helper()
	db, err := database.Connect(context.Background(), database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	return NewRecorder(db, nil)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func result(id string, started time.Time) *pipeline.RunResult {
	return &pipeline.RunResult{
		RunID:        id,
		Status:       pipeline.StatusSuccess,
		StartedAt:    started,
		Elapsed:      1500 * time.Millisecond,
		Items:        2,
		AssetsLoaded: 3,
		FailedAssets: []string{"Game/Items/b.uasset"},
		Units: []pipeline.UnitResult{
			{Name: "CardPack", Kind: pipeline.KindExporter, Items: 2, AssetsLoaded: 3, FailedAssets: 1, Elapsed: time.Second},
			{Name: "Images", Kind: pipeline.KindPostExporter, Failed: true},
		},
	}
}

func TestRecorder_RecordAndRecent(t *testing.T) {
	r := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, r.Migrate(ctx))

	now := time.Now()
	require.NoError(t, r.Record(ctx, result("run-old", now.Add(-time.Hour))))
	fatal := result("run-new", now)
	fatal.Status = pipeline.StatusFatal
	fatal.Err = errors.New("keys unavailable")
	fatal.FailedAssets = nil
	require.NoError(t, r.Record(ctx, fatal))

	runs, err := r.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "fatal", runs[0].Status)
	assert.Equal(t, pipeline.ExitFatal, runs[0].ExitCode)
	assert.Equal(t, "keys unavailable", runs[0].Error)
	assert.Empty(t, runs[0].FailedAssets)

	old := runs[1]
	assert.Equal(t, int64(1500), old.ElapsedMS)
	assert.Equal(t, 1, old.FailedCount)
	require.Len(t, old.FailedAssets, 1)
	assert.Equal(t, "Game/Items/b.uasset", old.FailedAssets[0].Path)
	require.Len(t, old.Units, 2)

	runs, err = r.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecorder_RecordRequiresID(t *testing.T) {
	r := setupSQLite(t)
	assert.Error(t, r.Record(context.Background(), &pipeline.RunResult{}))
	assert.Error(t, r.Record(context.Background(), nil))
}

func TestRecorder_Verify(t *testing.T) {
	r := setupSQLite(t)
	ctx := context.Background()

	missing, err := r.Verify(ctx)
	require.NoError(t, err)
	assert.Contains(t, missing, "export_runs.status")
	assert.Contains(t, missing, "export_failed_assets.path")

	require.NoError(t, r.Migrate(ctx))
	missing, err = r.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRecorder_RecordRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	r := NewRecorder(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `export_runs`").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := r.Record(context.Background(), result("run-1", time.Now()))
	assert.ErrorContains(t, err, "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFromResult(t *testing.T) {
	run := FromResult(result("run-1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))))
	assert.Equal(t, time.UTC, run.StartedAt.Location())
	assert.Equal(t, "success", run.Status)
	assert.Equal(t, pipeline.ExitSuccess, run.ExitCode)
	require.Len(t, run.Units, 2)
	assert.Equal(t, "run-1", run.Units[1].RunID)
	assert.True(t, run.Units[1].Failed)
	assert.Equal(t, int64(1000), run.Units[0].ElapsedMS)
}
