package postexporters

import (
	"go.uber.org/zap"

	"asset-exporter/core/pipeline"
)

// Options selects the refinement units of a run.
type Options struct {
	Logger *zap.Logger
	// Images is nil when image export is disabled.
	Images *ImagesOptions
}

// All returns the configured refinement units.
func All(opts Options) []pipeline.PostExporter {
	units := []pipeline.PostExporter{NewSchematicRecipesPostExporter(opts.Logger)}
	if opts.Images != nil {
		img := *opts.Images
		if img.Logger == nil {
			img.Logger = opts.Logger
		}
		units = append(units, NewImagesPostExporter(img))
	}
	return units
}
