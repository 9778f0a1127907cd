package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"asset-exporter/core/assets"
	"asset-exporter/core/config"
	"asset-exporter/core/pipeline"
	"asset-exporter/core/sink"
	"asset-exporter/core/storage"
	"asset-exporter/feature/artifacts"
	"asset-exporter/feature/postexporters"
)

// openSource builds the configured asset source wrapped in the package cache.
func openSource(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*assets.CachingSource, error) {
	var src assets.Source
	switch cfg.Game.Driver {
	case "dir", "":
		s, err := assets.NewDirSource(cfg.Game.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open game directory: %w", err)
		}
		src = s
	case "archive":
		s, err := assets.OpenArchive(cfg.Game.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to open game archive: %w", err)
		}
		src = s
	case "bucket":
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		s, err := assets.NewBucketSource(ctx, client, cfg.Storage.Bucket, cfg.Game.Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to index game bucket: %w", err)
		}
		src = s
	default:
		return nil, fmt.Errorf("unsupported game driver %q", cfg.Game.Driver)
	}

	logg.Info("Opened asset source",
		zap.String("driver", cfg.Game.Driver),
		zap.Int("files", len(src.Files())),
		zap.Int("cache_size", cfg.Game.CacheSize),
	)
	return assets.NewCachingSource(src, cfg.Game.CacheSize), nil
}

// openSink builds the configured artifact sink.
func openSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch cfg.Output.Driver {
	case "file", "":
		return sink.NewFileSink(cfg.Output.Dir), nil
	case "bucket":
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.OutputBucket, cfg.Storage.Region); err != nil {
			return nil, fmt.Errorf("failed to prepare output bucket: %w", err)
		}
		return sink.NewBucketSink(client, cfg.Storage.OutputBucket, cfg.Output.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported output driver %q", cfg.Output.Driver)
	}
}

func buildPostExporters(cfg *config.Config, src assets.Source, out sink.Sink, logg *zap.Logger) ([]pipeline.PostExporter, error) {
	opts := postexporters.Options{Logger: logg}
	if cfg.Images.Enabled {
		kinds, err := postexporters.ParseImageKinds(cfg.Images.Types)
		if err != nil {
			return nil, fmt.Errorf("invalid images.types: %w", err)
		}
		opts.Images = &postexporters.ImagesOptions{
			Source:         src,
			Sink:           out,
			Kinds:          kinds,
			Directory:      cfg.Images.Directory,
			MaxParallelism: cfg.Performance.MaxParallelism,
		}
	}
	return postexporters.All(opts), nil
}

func buildArtifacts(cfg *config.Config, out sink.Sink, logg *zap.Logger) ([]pipeline.Artifact, error) {
	assetsArtifact, err := artifacts.NewAssetsArtifact(artifacts.Options{
		Path:   cfg.Output.Assets,
		Merge:  config.MergePolicy(cfg.Output.AssetsMerge, cfg.Scope.Merge),
		Sink:   out,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}

	list := []pipeline.Artifact{
		assetsArtifact,
		artifacts.NewSchematicsArtifact(artifacts.Options{
			Path:   cfg.Output.Schematics,
			Merge:  config.MergePolicy(cfg.Output.SchematicsMerge, cfg.Scope.Merge),
			Sink:   out,
			Logger: logg,
		}),
	}
	if cfg.Output.Split {
		list = append(list, artifacts.NewSplitArtifact(artifacts.Options{
			Path:   cfg.Output.SplitDir,
			Sink:   out,
			Logger: logg,
		}))
	}
	return list, nil
}
