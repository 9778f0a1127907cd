package exporters

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"asset-exporter/core/assets"
	"asset-exporter/core/models"
	"asset-exporter/core/output"
	"asset-exporter/core/pipeline"
)

// Export is the intermediate state of one item before it is written. Hooks
// may change the item, its images and queue display name corrections.
type Export struct {
	Path   string
	Object *assets.Object
	Item   models.ItemData
	Images map[models.ImageType]string

	corrections []output.Correction
}

// SetImage sets or replaces the image of the given kind. Empty paths are
// ignored.
func (x *Export) SetImage(kind models.ImageType, assetPath string) {
	if assetPath == "" {
		return
	}
	x.Images[kind] = assetPath
}

// CorrectNameFrom queues a correction copying the display name of another
// item after the merge.
func (x *Export) CorrectNameFrom(templateID string) {
	x.corrections = append(x.corrections, output.Correction{
		TemplateID:     x.Item.Base().TemplateID(),
		FromTemplateID: templateID,
	})
}

// Hook customizes an item for its type. Returning false drops the item
// without counting the path as failed.
type Hook func(ctx context.Context, e *ItemExporter, x *Export) (bool, error)

// ItemSpec describes an item unit.
type ItemSpec struct {
	// Name is the unit name used for selection.
	Name string
	// Type is the item type and template ID prefix.
	Type     string
	Interest func(path string) bool
	Hook     Hook
	// RequireRarity writes the rarity even when it is the default.
	RequireRarity bool
	// IgnoreLoadFailures skips unloadable paths instead of failing them.
	IgnoreLoadFailures bool
	// New creates the item record; it defaults to NamedItemData.
	New models.Factory
}

// ItemExporter exports one item record per observed path.
type ItemExporter struct {
	base
	spec      ItemSpec
	recipes   *recipeTables
	processed atomic.Int64
}

// NewItemExporter returns an item unit for spec.
func NewItemExporter(ectx Context, spec ItemSpec) *ItemExporter {
	if spec.New == nil {
		spec.New = func() models.ItemData { return &models.NamedItemData{} }
	}
	e := &ItemExporter{spec: spec}
	e.base = newBase(spec.Name, ectx, spec.Interest)
	e.recipes = newRecipeTables(&e.base)
	return e
}

func (e *ItemExporter) ExportAssets(ctx context.Context, progress pipeline.ProgressSink, out *output.Buffer) error {
	paths := e.scoped()
	total := len(paths)
	e.log.Info("Exporting items", zap.Int("paths", total), zap.Int("parallelism", e.parallelism()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism())
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.exportOne(gctx, path, out)
			done := e.processed.Add(1)
			progress.Report(pipeline.Progress{
				Unit:         e.name,
				Completed:    int(done),
				Total:        total,
				Current:      path,
				Failed:       e.failed.Snapshot(),
				AssetsLoaded: e.AssetsLoaded(),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.log.Info("Exported items",
		zap.Int("processed", int(e.processed.Load())),
		zap.Int("failed", e.failed.Len()),
		zap.Int("assets_loaded", e.AssetsLoaded()),
	)
	return nil
}

func (e *ItemExporter) exportOne(ctx context.Context, path string, out *output.Buffer) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("Panic while exporting asset", zap.String("path", path), zap.Any("panic", rec))
			e.failed.Add(path)
		}
	}()

	pkg, err := e.load(ctx, path)
	if err != nil {
		if ctx.Err() != nil || e.spec.IgnoreLoadFailures {
			return
		}
		e.log.Warn("Failed to load asset", zap.String("path", path), zap.Error(err))
		e.failed.Add(path)
		return
	}

	obj, ok := pkg.Export(assets.NameWithoutExtension(path))
	if !ok {
		if !e.spec.IgnoreLoadFailures {
			e.log.Warn("Asset has no main export", zap.String("path", path))
			e.failed.Add(path)
		}
		return
	}

	x, err := e.build(ctx, path, obj)
	if err == nil && e.spec.Hook != nil {
		var keep bool
		keep, err = e.spec.Hook(ctx, e, x)
		if err == nil && !keep {
			e.log.Debug("Item dropped", zap.String("path", path))
			return
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.log.Warn("Failed to export asset", zap.String("path", path), zap.Error(err))
		e.failed.Add(path)
		return
	}

	item := x.Item.Base()
	out.AddItem(item.TemplateID(), x.Item, x.Images)
	for _, c := range x.corrections {
		out.AddDisplayNameCorrection(c)
	}
}

func (e *ItemExporter) build(ctx context.Context, path string, obj *assets.Object) (*Export, error) {
	data := e.spec.New()
	item := data.Base()

	item.AssetPath = assets.TrimExtension(path)
	item.Name = obj.Name
	item.Type = e.spec.Type

	display, ok := obj.Text("ItemName", "DisplayName")
	if !ok {
		display = "<" + obj.Name + ">"
	}
	item.DisplayName = strings.TrimSpace(display)
	item.Description, _ = obj.Text("ItemDescription", "Description")
	item.IsInventoryLimitExempt = !obj.Bool("bInventorySizeLimited", true)

	if v, ok := obj.DataListValue("Tier"); ok {
		item.Tier = assets.ParseTier(v)
	}
	rarity := assets.ParseRarity(obj.String("Rarity"))
	if e.spec.RequireRarity || rarity != assets.DefaultRarity {
		item.Rarity = rarity
	}

	var err error
	if handles := obj.RowHandles("ConversionRecipes"); len(handles) > 0 {
		if item.TierUpRecipe, err = e.recipes.convert(ctx, handles[0]); err != nil {
			return nil, fmt.Errorf("tier up recipe: %w", err)
		}
	}
	if h, ok := obj.RowHandle("UpgradeRarityRecipeHandle"); ok {
		if item.RarityUpRecipe, err = e.recipes.convert(ctx, h); err != nil {
			return nil, fmt.Errorf("rarity up recipe: %w", err)
		}
	}
	if h, ok := obj.RowHandle("SacrificeRecipe"); ok {
		if item.RecycleRecipe, err = e.recipes.convert(ctx, h); err != nil {
			return nil, fmt.Errorf("recycle recipe: %w", err)
		}
	}
	if h, ok := obj.CurveHandle("LevelToSacrificeXpHandle"); ok {
		item.LevelToXPRow = h.RowName
	}

	x := &Export{
		Path:   path,
		Object: obj,
		Item:   data,
		Images: make(map[models.ImageType]string),
	}
	if p, ok := obj.DataListSoftPath("Icon"); ok {
		x.SetImage(models.SmallPreview, p)
	}
	if p, ok := obj.DataListSoftPath("LargeIcon"); ok {
		x.SetImage(models.LargePreview, p)
	}
	return x, nil
}

// Recipe resolves a recipe row through the unit's recipe table cache.
func (e *ItemExporter) Recipe(ctx context.Context, h assets.RowHandle) (*assets.Recipe, error) {
	return e.recipes.lookup(ctx, h)
}
