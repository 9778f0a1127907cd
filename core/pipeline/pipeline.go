package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"asset-exporter/core/assets"
	"asset-exporter/core/logger"
	"asset-exporter/core/output"
	"asset-exporter/core/tracing"
)

// Options configure a Pipeline.
type Options struct {
	Logger      *zap.Logger
	Source      assets.Source
	Provisioner Provisioner
	// Exporters in dependency order. The order is also the merge order.
	Exporters     []Exporter
	PostExporters []PostExporter
	Artifacts     []Artifact
	// Only restricts the exporters that run, by case-insensitive name.
	Only     []string
	Progress ProgressSink
	Tracer   trace.Tracer
	// Staging, when set, receives the writes of Artifacts. It is committed
	// after generation and discarded when the run is cancelled.
	Staging Stager
}

// Pipeline runs one export.
type Pipeline struct {
	opts Options
}

// New creates a pipeline, filling in a no-op logger, tracer and progress
// sink when they are not set.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer(tracing.TracerName)
	}
	if opts.Progress == nil {
		opts.Progress = Discard
	}
	return &Pipeline{opts: opts}
}

type run struct {
	*Pipeline
	log    *zap.Logger
	result *RunResult
}

// Run executes every stage and reports the outcome. It never panics because
// of a unit; the returned result always carries a status.
func (p *Pipeline) Run(ctx context.Context) *RunResult {
	result := &RunResult{RunID: uuid.NewString(), StartedAt: time.Now()}
	r := &run{Pipeline: p, log: logger.WithRun(p.opts.Logger, result.RunID), result: result}

	ctx, span := p.opts.Tracer.Start(ctx, "export.run", trace.WithAttributes(attribute.String("run.id", result.RunID)))
	defer span.End()

	r.execute(ctx)

	result.Elapsed = time.Since(result.StartedAt)
	span.SetAttributes(attribute.String("run.status", result.Status.String()))
	if result.Err != nil && result.Status == StatusFatal {
		span.SetStatus(codes.Error, result.Err.Error())
	}

	fields := []zap.Field{
		zap.String("status", result.Status.String()),
		zap.Int("items", result.Items),
		zap.Int("assets_loaded", result.AssetsLoaded),
		zap.Int("failed_assets", len(result.FailedAssets)),
		zap.Duration("elapsed", result.Elapsed),
	}
	switch result.Status {
	case StatusSuccess:
		r.log.Info("Export finished", fields...)
	case StatusCancelled:
		r.log.Warn("Export cancelled", fields...)
	default:
		r.log.Error("Export failed", append(fields, zap.Error(result.Err))...)
	}
	return result
}

func (r *run) fatal(err error) {
	r.result.Status = StatusFatal
	r.result.Err = err
}

func (r *run) cancelled(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		r.result.Status = StatusCancelled
		r.result.Err = err
		return true
	}
	return false
}

func (r *run) stage(ctx context.Context, name string) (context.Context, trace.Span) {
	r.log.Debug("Stage started", zap.String("stage", name))
	return r.opts.Tracer.Start(ctx, "stage."+name)
}

func (r *run) execute(ctx context.Context) {
	if r.opts.Source == nil {
		r.fatal(errors.New("no asset source configured"))
		return
	}

	if !r.provision(ctx) {
		return
	}

	selected, unknown := SelectExporters(r.opts.Exporters, r.opts.Only)
	for _, name := range unknown {
		r.log.Warn("Unknown exporter in scope", zap.String("name", name))
	}
	r.registerInterest(ctx)

	buffers := r.extract(ctx, selected)
	if r.cancelled(ctx) {
		return
	}

	ds := r.merge(ctx, selected, buffers)
	r.result.Dataset = ds
	r.result.Items = ds.Len()

	r.refine(ctx, ds)
	if r.cancelled(ctx) {
		return
	}

	err := r.generate(ctx, ds)
	if r.cancelled(ctx) {
		if r.opts.Staging != nil {
			r.opts.Staging.Discard()
		}
		return
	}
	if r.opts.Staging != nil {
		// Once committing starts it runs to completion so the output is not
		// left half replaced.
		if cerr := r.opts.Staging.Commit(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}

	r.report(selected)
	r.result.Items = ds.Len()
	if err != nil {
		r.fatal(err)
		return
	}
	r.result.Status = StatusSuccess
}

func (r *run) provision(ctx context.Context) bool {
	if r.opts.Provisioner == nil {
		return true
	}
	ctx, span := r.stage(ctx, "provision")
	defer span.End()

	bundle, err := r.opts.Provisioner.Acquire(ctx)
	if err != nil {
		if r.cancelled(ctx) {
			return false
		}
		span.SetStatus(codes.Error, err.Error())
		r.fatal(fmt.Errorf("provisioning failed: %w", err))
		return false
	}

	if m, ok := r.opts.Source.(Mounter); ok {
		if err := m.Mount(bundle); err != nil {
			r.fatal(fmt.Errorf("failed to mount keys: %w", err))
			return false
		}
	}
	return true
}

func (r *run) registerInterest(ctx context.Context) {
	_, span := r.stage(ctx, "interest")
	defer span.End()

	counts := make([]int, len(r.opts.Exporters))
	offered := 0
	for _, path := range r.opts.Source.Files() {
		if !Eligible(path) {
			continue
		}
		offered++
		for i, e := range r.opts.Exporters {
			if e.ObserveAsset(path) {
				counts[i]++
			}
		}
	}

	span.SetAttributes(attribute.Int("paths.offered", offered))
	for i, e := range r.opts.Exporters {
		r.log.Debug("Interest registered", zap.String("unit", e.Name()), zap.Int("paths", counts[i]))
	}
}

// extract runs every selected exporter. A failed unit gets a nil buffer and
// contributes nothing to the merge.
func (r *run) extract(ctx context.Context, selected []Exporter) []*output.Buffer {
	ctx, span := r.stage(ctx, "extract")
	defer span.End()

	buffers := make([]*output.Buffer, len(selected))
	units := make([]UnitResult, len(selected))

	var wg sync.WaitGroup
	for i, e := range selected {
		wg.Add(1)
		go func(i int, e Exporter) {
			defer wg.Done()
			buf, res := r.runExporter(ctx, e)
			buffers[i] = buf
			units[i] = res
		}(i, e)
	}
	wg.Wait()

	r.result.Units = append(r.result.Units, units...)
	return buffers
}

func (r *run) runExporter(ctx context.Context, e Exporter) (buf *output.Buffer, res UnitResult) {
	log := logger.WithUnit(r.log, e.Name())
	ctx, span := r.opts.Tracer.Start(ctx, "exporter "+e.Name())
	start := time.Now()
	res = UnitResult{Name: e.Name(), Kind: KindExporter}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Exporter panicked", zap.Any("panic", rec), zap.Stack("stack"))
			span.SetStatus(codes.Error, fmt.Sprint(rec))
			res.Failed = true
		}
		if res.Failed {
			buf = nil
		}
		res.Elapsed = time.Since(start)
		res.AssetsLoaded = e.AssetsLoaded()
		res.FailedAssets = e.FailedAssets().Len()
		if buf != nil {
			res.Items = buf.Len()
		}
		span.SetAttributes(attribute.Int("items", res.Items), attribute.Int("failed_assets", res.FailedAssets))
		span.End()
	}()

	buf = output.NewBuffer()
	if err := e.ExportAssets(ctx, r.opts.Progress, buf); err != nil {
		if ctx.Err() == nil {
			log.Error("Exporter failed", zap.Error(err))
			span.SetStatus(codes.Error, err.Error())
		}
		res.Failed = true
		return nil, res
	}
	log.Info("Exporter finished", zap.Int("items", buf.Len()), zap.Duration("elapsed", time.Since(start)))
	return buf, res
}

func (r *run) merge(ctx context.Context, selected []Exporter, buffers []*output.Buffer) *output.Dataset {
	_, span := r.stage(ctx, "merge")
	defer span.End()

	ds := output.NewDataset()
	for i, buf := range buffers {
		if buf == nil {
			continue
		}
		before := ds.Len()
		buf.CopyTo(ds)
		r.log.Debug("Merged buffer",
			zap.String("unit", selected[i].Name()),
			zap.Int("items", buf.Len()),
			zap.Int("new_keys", ds.Len()-before),
		)
	}

	applied := 0
	for _, buf := range buffers {
		if buf != nil {
			applied += buf.ApplyDisplayNameCorrections(ds)
		}
	}

	counts := ds.Counts()
	span.SetAttributes(attribute.Int("items", counts.Items), attribute.Int("corrections", applied))
	r.log.Info("Merged exports",
		zap.Int("items", counts.Items),
		zap.Int("images", counts.Images),
		zap.Int("recipes", counts.Recipes),
		zap.Int("stat_curves", counts.Stats),
		zap.Int("ratings", counts.Ratings),
		zap.Int("name_corrections", applied),
	)
	return ds
}

func (r *run) refine(ctx context.Context, ds *output.Dataset) {
	ctx, span := r.stage(ctx, "refine")
	defer span.End()

	units := make([]UnitResult, len(r.opts.PostExporters))
	var wg sync.WaitGroup
	for i, pe := range r.opts.PostExporters {
		wg.Add(1)
		go func(i int, pe PostExporter) {
			defer wg.Done()
			units[i] = r.runPostExporter(ctx, pe, ds)
		}(i, pe)
	}
	wg.Wait()
	r.result.Units = append(r.result.Units, units...)
}

func (r *run) runPostExporter(ctx context.Context, pe PostExporter, ds *output.Dataset) (res UnitResult) {
	log := logger.WithUnit(r.log, pe.Name())
	ctx, span := r.opts.Tracer.Start(ctx, "post-exporter "+pe.Name())
	start := time.Now()
	res = UnitResult{Name: pe.Name(), Kind: KindPostExporter}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Post-exporter panicked", zap.Any("panic", rec), zap.Stack("stack"))
			span.SetStatus(codes.Error, fmt.Sprint(rec))
			res.Failed = true
		}
		res.Elapsed = time.Since(start)
		res.AssetsLoaded = pe.AssetsLoaded()
		span.End()
	}()

	// Partial mutations of a failed post-exporter stay in the dataset.
	if err := pe.ProcessExports(ctx, ds); err != nil {
		if ctx.Err() == nil {
			log.Error("Post-exporter failed", zap.Error(err))
			span.SetStatus(codes.Error, err.Error())
		}
		res.Failed = true
		return res
	}
	log.Info("Post-exporter finished", zap.Duration("elapsed", time.Since(start)))
	return res
}

func (r *run) generate(ctx context.Context, ds *output.Dataset) error {
	ctx, span := r.stage(ctx, "artifacts")
	defer span.End()

	var errs []error
	for _, a := range r.opts.Artifacts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		start := time.Now()
		if err := a.Generate(ctx, ds); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Error("Artifact failed", zap.String("artifact", a.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("artifact %s: %w", a.Name(), err))
			continue
		}
		r.log.Info("Artifact written", zap.String("artifact", a.Name()), zap.Duration("elapsed", time.Since(start)))
	}
	if len(errs) > 0 {
		span.SetStatus(codes.Error, "artifact generation failed")
	}
	return errors.Join(errs...)
}

func (r *run) report(selected []Exporter) {
	failed := output.NewFailedSet()
	for _, e := range selected {
		failed.Union(e.FailedAssets())
	}
	r.result.FailedAssets = failed.Sorted()

	loaded := 0
	for _, u := range r.result.Units {
		loaded += u.AssetsLoaded
	}
	r.result.AssetsLoaded = loaded

	if len(r.result.FailedAssets) > 0 {
		r.log.Warn("Some assets failed to export", zap.Int("count", len(r.result.FailedAssets)))
		for _, path := range r.result.FailedAssets {
			r.log.Warn("Failed asset", zap.String("path", path))
		}
	}

	if s, ok := r.opts.Source.(StatsReporter); ok {
		stats := s.Stats()
		r.log.Info("Asset cache",
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses),
			zap.Int64("evictions", stats.Evictions),
			zap.Int("entries", stats.Entries),
		)
	}
}
