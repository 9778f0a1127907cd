package exporters

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"asset-exporter/core/assets"
	"asset-exporter/core/logger"
	"asset-exporter/core/output"
)

// Context carries what every unit needs.
type Context struct {
	Source assets.Source
	Logger *zap.Logger
	// MaxParallelism is the worker count per unit; values below 1 mean 1.
	MaxParallelism int
	// Limit caps the paths a unit processes; 0 means no cap.
	Limit int
}

type base struct {
	name     string
	ectx     Context
	log      *zap.Logger
	interest func(path string) bool
	paths    []string
	failed   *output.FailedSet
	loaded   atomic.Int64
}

func newBase(name string, ectx Context, interest func(string) bool) base {
	log := ectx.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return base{
		name:     name,
		ectx:     ectx,
		log:      logger.WithUnit(log, name),
		interest: interest,
		failed:   output.NewFailedSet(),
	}
}

func (b *base) Name() string { return b.name }

// ObserveAsset records path when the unit is interested in it.
func (b *base) ObserveAsset(path string) bool {
	if !b.interest(path) {
		return false
	}
	b.paths = append(b.paths, path)
	return true
}

func (b *base) AssetsLoaded() int { return int(b.loaded.Load()) }

func (b *base) FailedAssets() *output.FailedSet { return b.failed }

func (b *base) countLoaded() { b.loaded.Add(1) }

// scoped returns the observed paths truncated to the configured limit.
func (b *base) scoped() []string {
	if b.ectx.Limit > 0 && len(b.paths) > b.ectx.Limit {
		return b.paths[:b.ectx.Limit]
	}
	return b.paths
}

func (b *base) parallelism() int {
	if b.ectx.MaxParallelism < 1 {
		return 1
	}
	return b.ectx.MaxParallelism
}

func (b *base) load(ctx context.Context, path string) (*assets.Package, error) {
	b.countLoaded()
	return b.ectx.Source.Load(ctx, path)
}

func pathContains(sub string) func(string) bool {
	sub = strings.ToLower(sub)
	return func(path string) bool {
		return strings.Contains(strings.ToLower(path), sub)
	}
}

func pathHasSuffix(suffix string) func(string) bool {
	suffix = strings.ToLower(suffix)
	return func(path string) bool {
		return strings.HasSuffix(strings.ToLower(path), suffix)
	}
}
