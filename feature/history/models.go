package history

import (
	"time"

	"asset-exporter/core/pipeline"
)

// Run is one export run.
type Run struct {
	ID           string        `gorm:"column:id;primaryKey;size:36"`
	Status       string        `gorm:"column:status;size:16;index"`
	ExitCode     int           `gorm:"column:exit_code"`
	StartedAt    time.Time     `gorm:"column:started_at;index"`
	ElapsedMS    int64         `gorm:"column:elapsed_ms"`
	Items        int           `gorm:"column:items"`
	AssetsLoaded int           `gorm:"column:assets_loaded"`
	FailedCount  int           `gorm:"column:failed_count"`
	Error        string        `gorm:"column:error;type:text"`
	Units        []Unit        `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	FailedAssets []FailedAsset `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (Run) TableName() string { return "export_runs" }

// Unit is the outcome of one unit within a run.
type Unit struct {
	ID           uint   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID        string `gorm:"column:run_id;size:36;index"`
	Name         string `gorm:"column:name;size:64"`
	Kind         string `gorm:"column:kind;size:16"`
	Failed       bool   `gorm:"column:failed"`
	Items        int    `gorm:"column:items"`
	AssetsLoaded int    `gorm:"column:assets_loaded"`
	FailedAssets int    `gorm:"column:failed_assets"`
	ElapsedMS    int64  `gorm:"column:elapsed_ms"`
}

func (Unit) TableName() string { return "export_units" }

// FailedAsset is one path that could not be exported.
type FailedAsset struct {
	ID    uint   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID string `gorm:"column:run_id;size:36;index"`
	Path  string `gorm:"column:path;type:text"`
}

func (FailedAsset) TableName() string { return "export_failed_assets" }

// FromResult converts a pipeline result into ledger rows.
func FromResult(res *pipeline.RunResult) Run {
	run := Run{
		ID:           res.RunID,
		Status:       res.Status.String(),
		ExitCode:     res.ExitCode(),
		StartedAt:    res.StartedAt.UTC(),
		ElapsedMS:    res.Elapsed.Milliseconds(),
		Items:        res.Items,
		AssetsLoaded: res.AssetsLoaded,
		FailedCount:  len(res.FailedAssets),
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	for _, u := range res.Units {
		run.Units = append(run.Units, Unit{
			RunID:        res.RunID,
			Name:         u.Name,
			Kind:         u.Kind,
			Failed:       u.Failed,
			Items:        u.Items,
			AssetsLoaded: u.AssetsLoaded,
			FailedAssets: u.FailedAssets,
			ElapsedMS:    u.Elapsed.Milliseconds(),
		})
	}
	for _, p := range res.FailedAssets {
		run.FailedAssets = append(run.FailedAssets, FailedAsset{RunID: res.RunID, Path: p})
	}
	return run
}
