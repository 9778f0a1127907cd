// Package logger provides a structured logging facility based on Zap.
//
// The logger is built once from configuration and handed explicitly to the
// pipeline, its units and the artifact writers. There is no package-level
// logger.
//
// # Correlation
//
// WithRun attaches the run ID so every line of one export run can be
// correlated, and WithUnit tags lines with the extraction or refinement unit
// that produced them.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	runLog := logger.WithRun(log, runID)
//	logger.WithUnit(runLog, "CardPack").Info("Exporting")
package logger
