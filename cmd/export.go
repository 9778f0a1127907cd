package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"asset-exporter/core/config"
	"asset-exporter/core/database"
	"asset-exporter/core/logger"
	"asset-exporter/core/pipeline"
	"asset-exporter/core/provision"
	"asset-exporter/core/sink"
	"asset-exporter/core/tracing"
	"asset-exporter/feature/exporters"
	"asset-exporter/feature/history"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export game assets to JSON artifacts",
	Long: `Runs every selected extraction unit against the configured asset source,
merges their output, runs the refinement units and writes the artifacts.

Exit codes: 0 on success (even with failed assets), 1 when the run could not
produce output, 130 when interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyScopeFlags(cmd, cfg)

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := runExport(ctx, cfg, logg)
		if err != nil {
			return err
		}
		recordHistory(cfg, logg, result)

		exitCode = result.ExitCode()
		return nil
	},
}

func runExport(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*pipeline.RunResult, error) {
	tp, shutdown, err := tracing.Init(ctx, cfg.Tracing, logg)
	if err != nil {
		return nil, err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logg.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	src, err := openSource(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	out, err := openSink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	post, err := buildPostExporters(cfg, src, out, logg)
	if err != nil {
		return nil, err
	}
	// Artifacts reach the sink only when the run is not cancelled.
	staged := sink.NewStagedSink(out)
	arts, err := buildArtifacts(cfg, staged, logg)
	if err != nil {
		return nil, err
	}

	ectx := exporters.Context{
		Source:         src,
		Logger:         logg,
		MaxParallelism: cfg.Performance.MaxParallelism,
		Limit:          cfg.Scope.Limit,
	}
	p := pipeline.New(pipeline.Options{
		Logger:        logg,
		Source:        src,
		Provisioner:   provision.NewServiceFromConfig(logg, cfg.Provision),
		Exporters:     exporters.All(ectx),
		PostExporters: post,
		Artifacts:     arts,
		Only:          pipeline.ParseOnly(cfg.Scope.Only),
		Progress:      pipeline.LogProgress(logg),
		Tracer:        tp.Tracer(tracing.TracerName),
		Staging:       staged,
	})
	return p.Run(ctx), nil
}

// recordHistory stores the run in the optional ledger. Failures only warn.
func recordHistory(cfg *config.Config, logg *zap.Logger, result *pipeline.RunResult) {
	if !cfg.Database.Enabled {
		return
	}
	// The export context may already be cancelled; the ledger still gets the
	// outcome.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logg.Warn("Optional database connection failed", zap.Error(err))
		return
	}
	rec := history.NewRecorder(db, logg)
	if err := rec.Migrate(ctx); err != nil {
		logg.Warn("Failed to prepare run history", zap.Error(err))
		return
	}
	if err := rec.Record(ctx, result); err != nil {
		logg.Warn("Failed to record run", zap.Error(err))
	}
}

func applyScopeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("only") {
		cfg.Scope.Only, _ = flags.GetString("only")
	}
	if flags.Changed("limit") {
		cfg.Scope.Limit, _ = flags.GetInt("limit")
	}
	if flags.Changed("merge") {
		cfg.Scope.Merge, _ = flags.GetBool("merge")
	}
	if flags.Changed("parallelism") {
		cfg.Performance.MaxParallelism, _ = flags.GetInt("parallelism")
	}
}

func init() {
	exportCmd.Flags().String("only", "", "Comma-separated extraction units to run (default all)")
	exportCmd.Flags().Int("limit", 0, "Maximum paths per unit (0 for no limit)")
	exportCmd.Flags().Bool("merge", false, "Merge artifacts into existing output instead of replacing it")
	exportCmd.Flags().Int("parallelism", 0, "Worker count per unit")
	RootCmd.AddCommand(exportCmd)
}
