package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(context.Background(), Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE export_runs (id TEXT PRIMARY KEY, status TEXT, items INTEGER)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "export_runs")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}
	assert.Equal(t, "text", colMap["id"])
	assert.Equal(t, "integer", colMap["items"])

	// PRAGMA table_info returns no rows for a missing table
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(context.Background(), Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE export_runs (id TEXT, status TEXT)").Error)

	missing, err := MissingColumns(db, "export_runs", []string{"id", "Status", "elapsed_ms"})
	require.NoError(t, err)
	assert.Equal(t, []string{"elapsed_ms"}, missing)

	missing, err = MissingColumns(db, "other", []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)
}
