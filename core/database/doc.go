// Package database opens the optional run ledger database.
//
// It wraps GORM to configure either a MySQL server or a local SQLite file
// from the application's configuration, and provides a small schema
// inspector used to confirm that the ledger tables carry the expected
// columns.
//
// # Usage
//
//	db, err := database.Connect(ctx, cfg.Database)
//	if err != nil {
//	    log.Warn("Run ledger unavailable", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "export_runs")
package database
