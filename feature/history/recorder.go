package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"asset-exporter/core/database"
	"asset-exporter/core/pipeline"
)

var runColumns = map[string][]string{
	Run{}.TableName():         {"id", "status", "exit_code", "started_at", "elapsed_ms", "items", "assets_loaded", "failed_count", "error"},
	Unit{}.TableName():        {"id", "run_id", "name", "kind", "failed", "items", "assets_loaded", "failed_assets", "elapsed_ms"},
	FailedAsset{}.TableName(): {"id", "run_id", "path"},
}

// Recorder writes runs to the ledger.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{db: db, log: log}
}

// Migrate creates or updates the ledger tables.
func (r *Recorder) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Run{}, &Unit{}, &FailedAsset{}); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	return nil
}

// Record stores res in one transaction.
func (r *Recorder) Record(ctx context.Context, res *pipeline.RunResult) error {
	if res == nil || res.RunID == "" {
		return errors.New("record run: missing run id")
	}
	run := FromResult(res)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Units", "FailedAssets").Create(&run).Error; err != nil {
			return err
		}
		if len(run.Units) > 0 {
			if err := tx.Create(&run.Units).Error; err != nil {
				return err
			}
		}
		if len(run.FailedAssets) > 0 {
			if err := tx.CreateInBatches(&run.FailedAssets, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record run %s: %w", res.RunID, err)
	}

	r.log.Debug("Recorded run", zap.String("run_id", run.ID), zap.String("status", run.Status))
	return nil
}

// Recent returns the latest runs, newest first, with their units and failed
// assets.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []Run
	err := r.db.WithContext(ctx).
		Preload("Units").
		Preload("FailedAssets").
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Verify reports ledger columns missing from the database as "table.column".
func (r *Recorder) Verify(ctx context.Context) ([]string, error) {
	db := r.db.WithContext(ctx)
	var missing []string
	for _, table := range []string{Run{}.TableName(), Unit{}.TableName(), FailedAsset{}.TableName()} {
		cols, err := database.MissingColumns(db, table, runColumns[table])
		if err != nil {
			return nil, err
		}
		for _, c := range cols {
			missing = append(missing, table+"."+c)
		}
	}
	return missing, nil
}
