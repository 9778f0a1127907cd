package postexporters

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"asset-exporter/core/assets"
	"asset-exporter/core/logger"
	"asset-exporter/core/models"
	"asset-exporter/core/output"
	"asset-exporter/core/sink"
	"asset-exporter/core/unique"
)

// DefaultImageDirectory is used when ImagesOptions.Directory is empty.
const DefaultImageDirectory = "ExportedImages"

// ImagesOptions configures ImagesPostExporter.
type ImagesOptions struct {
	Source assets.Source
	Sink   sink.Sink
	Logger *zap.Logger
	// Kinds lists the image kinds to export.
	Kinds []models.ImageType
	// Directory is the sink directory for image files.
	Directory      string
	MaxParallelism int
}

// ImagesPostExporter writes the textures referenced by items and records
// the written file on each referencing item.
type ImagesPostExporter struct {
	opts    ImagesOptions
	log     *zap.Logger
	names   *unique.Resolver[string, string]
	loaded  atomic.Int64
	written atomic.Int64
}

func NewImagesPostExporter(opts ImagesOptions) *ImagesPostExporter {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Directory == "" {
		opts.Directory = DefaultImageDirectory
	}
	if opts.MaxParallelism < 1 {
		opts.MaxParallelism = 1
	}
	p := &ImagesPostExporter{opts: opts}
	p.log = logger.WithUnit(opts.Logger, p.Name())
	// File names must not collide on case-insensitive filesystems.
	p.names = unique.New(imageFileName, nextFileName, unique.WithKey(strings.ToLower))
	return p
}

func (p *ImagesPostExporter) Name() string { return "Images" }

func (p *ImagesPostExporter) AssetsLoaded() int { return int(p.loaded.Load()) }

// Written returns the number of image files written.
func (p *ImagesPostExporter) Written() int { return int(p.written.Load()) }

func (p *ImagesPostExporter) ProcessExports(ctx context.Context, ds *output.Dataset) error {
	wanted := make(map[models.ImageType]bool, len(p.opts.Kinds))
	for _, k := range p.opts.Kinds {
		wanted[k] = true
	}

	refs := make(map[string][]models.ImageRef)
	for _, ref := range ds.ImageRefs() {
		if !wanted[ref.Type] || ref.AssetPath == "" {
			continue
		}
		key := assets.NormalizePath(ref.AssetPath)
		refs[key] = append(refs[key], ref)
	}
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Names are resolved up front so they do not depend on worker timing.
	files := make(map[string]string, len(keys))
	for _, k := range keys {
		name, _ := p.names.Resolve(refs[k][0].AssetPath)
		files[k] = path.Join(p.opts.Directory, name+".png")
	}

	p.log.Info("Exporting images", zap.Int("textures", len(keys)), zap.Int("references", len(ds.ImageRefs())))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxParallelism)
	for _, k := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := p.export(gctx, refs[k], files[k], ds); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.log.Warn("Failed to export image", zap.String("asset", refs[k][0].AssetPath), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.log.Info("Exported images", zap.Int("written", p.Written()), zap.Int("assets_loaded", p.AssetsLoaded()))
	return nil
}

func (p *ImagesPostExporter) export(ctx context.Context, refs []models.ImageRef, file string, ds *output.Dataset) error {
	p.loaded.Add(1)
	obj, err := assets.LoadObject(ctx, p.opts.Source, refs[0].AssetPath)
	if err != nil {
		return err
	}
	if len(obj.Data) == 0 {
		return fmt.Errorf("texture %s has no data", obj.Name)
	}
	if err := p.opts.Sink.Write(ctx, file, obj.Data); err != nil {
		return err
	}
	p.written.Add(1)

	for _, ref := range refs {
		err := ds.UpdateItem(ref.TemplateID, func(item models.ItemData) error {
			item.Base().SetImagePath(ref.Type, file)
			return nil
		})
		if err != nil {
			p.log.Debug("Image owner vanished", zap.String("template_id", ref.TemplateID), zap.Error(err))
		}
	}
	return nil
}

// imageFileName derives a file name from the object part of an asset path.
func imageFileName(assetPath string) string {
	_, name := assets.SplitObjectPath(assetPath)
	if name == "" {
		name = "image"
	}
	return name
}

// nextFileName turns "name" into "name_1" and "name_1" into "name_2".
func nextFileName(name string) string {
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		if n, err := strconv.Atoi(name[i+1:]); err == nil {
			return name[:i+1] + strconv.Itoa(n+1)
		}
	}
	return name + "_1"
}

// ParseImageKinds parses a comma-separated list of image kinds.
func ParseImageKinds(s string) ([]models.ImageType, error) {
	var kinds []models.ImageType
	seen := make(map[models.ImageType]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := models.ParseImageType(part)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
