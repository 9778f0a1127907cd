package pipeline

import (
	"context"
	"strings"

	"asset-exporter/core/assets"
	"asset-exporter/core/output"
	"asset-exporter/core/provision"
)

// Exporter is an extraction unit.
type Exporter interface {
	// Name identifies the unit for selection and logging.
	Name() string
	// ObserveAsset is offered every eligible path once, before ExportAssets.
	// It reports whether the unit will process the path.
	ObserveAsset(path string) bool
	// ExportAssets processes the observed paths into out.
	ExportAssets(ctx context.Context, progress ProgressSink, out *output.Buffer) error
	// AssetsLoaded counts package loads, including secondary tables.
	AssetsLoaded() int
	// FailedAssets holds the paths that could not be exported.
	FailedAssets() *output.FailedSet
}

// PostExporter is a refinement unit. It may amend existing items but must
// not add new item keys.
type PostExporter interface {
	Name() string
	ProcessExports(ctx context.Context, ds *output.Dataset) error
	AssetsLoaded() int
}

// Artifact serializes part of the dataset.
type Artifact interface {
	Name() string
	Generate(ctx context.Context, ds *output.Dataset) error
}

// Provisioner obtains keys and mappings.
type Provisioner interface {
	Acquire(ctx context.Context) (*provision.Bundle, error)
}

// Mounter is implemented by sources that accept a provisioning bundle.
type Mounter interface {
	Mount(b *provision.Bundle) error
}

// Stager holds artifact writes until the run decides to keep them.
type Stager interface {
	Commit(ctx context.Context) error
	Discard()
}

// StatsReporter is implemented by caching sources.
type StatsReporter interface {
	Stats() assets.Stats
}

// Eligible reports whether a path is offered to the units: it must have a
// recognized container extension and lie outside any Athena directory.
func Eligible(path string) bool {
	if !assets.IsAssetFile(path) {
		return false
	}
	return !strings.Contains(strings.ToLower(strings.ReplaceAll(path, "\\", "/")), "/athena/")
}

// ParseOnly splits a comma-separated unit list, dropping blanks.
func ParseOnly(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SelectExporters keeps the exporters named in only, ignoring case, in
// registration order. An empty list selects every exporter. Names matching
// no exporter are returned as unknown.
func SelectExporters(all []Exporter, only []string) (selected []Exporter, unknown []string) {
	if len(only) == 0 {
		return all, nil
	}
	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[strings.ToLower(name)] = false
	}
	for _, e := range all {
		key := strings.ToLower(e.Name())
		if _, ok := wanted[key]; ok {
			selected = append(selected, e)
			wanted[key] = true
		}
	}
	for _, name := range only {
		if !wanted[strings.ToLower(name)] {
			unknown = append(unknown, name)
		}
	}
	return selected, unknown
}
