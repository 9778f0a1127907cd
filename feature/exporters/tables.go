package exporters

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"asset-exporter/core/assets"
	"asset-exporter/core/models"
	"asset-exporter/core/output"
	"asset-exporter/core/pipeline"
)

// errNoExport marks a table package without its main export.
var errNoExport = errors.New("main export not found")

// tableUnit is the shared shape of units that read a single table.
type tableUnit struct {
	base
}

// loadTable loads the main export of path. Failures are recorded in the
// failed set unless the context was cancelled.
func (u *tableUnit) loadTable(ctx context.Context, path string) (*assets.Object, error) {
	pkg, err := u.load(ctx, path)
	if err == nil {
		obj, ok := pkg.Export(assets.NameWithoutExtension(path))
		if ok {
			return obj, nil
		}
		err = errNoExport
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	u.log.Error("Failed to load table", zap.String("path", path), zap.Error(err))
	u.failed.Add(path)
	return nil, err
}

func (u *tableUnit) report(progress pipeline.ProgressSink, completed, total int, current string) {
	progress.Report(pipeline.Progress{
		Unit:         u.name,
		Completed:    completed,
		Total:        total,
		Current:      current,
		Failed:       u.failed.Snapshot(),
		AssetsLoaded: u.AssetsLoaded(),
	})
}

var heroStatRow = regexp.MustCompile(`(?i)^\w+\.([A-Z]+)_([A-Z]+)_(C|UC|R|VR|SR|UR)_T(\d+)\.(.+)$`)

// HeroStatExporter samples the hero scaling curves into a stat table.
type HeroStatExporter struct {
	tableUnit
}

func NewHeroStatExporter(ectx Context) *HeroStatExporter {
	return &HeroStatExporter{tableUnit{newBase("HeroStat", ectx, pathHasSuffix("AttributesHeroScaling.uasset"))}}
}

func (e *HeroStatExporter) ExportAssets(ctx context.Context, progress pipeline.ProgressSink, out *output.Buffer) error {
	paths := e.scoped()
	if len(paths) == 0 {
		e.log.Error("Hero scaling table not found")
		return nil
	}
	path := paths[0]

	tbl, err := e.loadTable(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}

	table := models.NewStatTable()
	for _, row := range tbl.CurveNames() {
		m := heroStatRow.FindStringSubmatch(row)
		if m == nil {
			e.log.Warn("Cannot parse hero stat", zap.String("row", row))
			continue
		}
		tier, err := strconv.Atoi(m[4])
		if err != nil {
			e.log.Warn("Cannot parse hero stat tier", zap.String("row", row))
			continue
		}
		table.Set(m[1]+"_"+m[2], m[3]+"_T0"+m[4], m[5], SampleCurve(tbl.Curves[row], tier))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out.AddStatTable(table)
	e.report(progress, 1, 1, path)
	e.log.Info("Exported hero stats", zap.Int("curves", table.Len()))
	return nil
}

// SampleCurve samples a tier's levels from curve. Tier t starts at level
// (t-1)*10 and covers 10 levels, 20 for tier 5; both ends are included.
func SampleCurve(curve assets.Curve, tier int) models.StatCurve {
	start := (tier - 1) * 10
	count := 10
	if tier == 5 {
		count = 20
	}
	values := make([]float64, 0, count+1)
	for i := start; i <= start+count; i++ {
		values = append(values, curve.Eval(float64(i)))
	}
	return models.StatCurve{FirstLevel: start, Values: values}
}

// HomebaseRatingExporter reads the homebase rating requirements.
type HomebaseRatingExporter struct {
	tableUnit
}

func NewHomebaseRatingExporter(ectx Context) *HomebaseRatingExporter {
	return &HomebaseRatingExporter{tableUnit{newBase("HomebaseRating", ectx, pathHasSuffix("HomebaseRatingMapping.uasset"))}}
}

func (e *HomebaseRatingExporter) ExportAssets(ctx context.Context, progress pipeline.ProgressSink, out *output.Buffer) error {
	var path string
	for _, p := range e.scoped() {
		if strings.EqualFold(assets.NameWithoutExtension(p), "HomebaseRatingMapping") {
			path = p
			break
		}
	}
	if path == "" {
		e.log.Error("Homebase rating table not found")
		return nil
	}
	e.report(progress, 0, 1, path)

	tbl, err := e.loadTable(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}

	names := tbl.CurveNames()
	if len(names) == 0 {
		e.log.Warn("Homebase rating table has no rows", zap.String("path", path))
		return nil
	}
	ratings := make(map[string]int)
	for _, k := range tbl.Curves[names[0]].Keys {
		ratings[strconv.Itoa(int(k.Time))] = int(k.Value)
	}

	out.AddRatings(ratings)
	e.report(progress, 1, 1, path)
	return nil
}

var craftedWeaponOrTrap = regexp.MustCompile(`(?i)^[tw]id_`)

// CraftingRecipeExporter exports the crafting recipe table keyed by the
// schematic each recipe belongs to.
type CraftingRecipeExporter struct {
	tableUnit
}

func NewCraftingRecipeExporter(ectx Context) *CraftingRecipeExporter {
	return &CraftingRecipeExporter{tableUnit{newBase("CraftingRecipe", ectx, pathContains("/CraftingRecipes_New"))}}
}

func (e *CraftingRecipeExporter) ExportAssets(ctx context.Context, progress pipeline.ProgressSink, out *output.Buffer) error {
	paths := e.scoped()
	if len(paths) == 0 {
		e.log.Error("Crafting recipe table not found")
		return nil
	}
	path := paths[0]

	tbl, err := e.loadTable(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}

	rows := tbl.RowNames()
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		recipe, err := e.convertRow(tbl, row)
		if err != nil {
			e.log.Warn("Skipping crafting recipe", zap.String("row", row), zap.Error(err))
			continue
		}
		out.AddRecipe(recipe)
		e.report(progress, i+1, len(rows), row)
	}
	return nil
}

func (e *CraftingRecipeExporter) convertRow(tbl *assets.Object, row string) (models.ExportedRecipe, error) {
	var r assets.Recipe
	if err := tbl.DecodeRow(row, &r); err != nil {
		return models.ExportedRecipe{}, err
	}
	if len(r.RecipeResults) == 0 {
		return models.ExportedRecipe{}, errors.New("recipe has no results")
	}

	result := r.RecipeResults[0]
	templateID := SchematicTemplateID(result)

	ingredients := make([]models.Ingredient, 0, len(r.RecipeCosts))
	for _, c := range r.RecipeCosts {
		ingredients = append(ingredients, models.Ingredient{TemplateID: c.TemplateID(), Quantity: c.Quantity})
	}
	cost, err := models.BuildCost(ingredients)
	if err != nil {
		return models.ExportedRecipe{}, err
	}
	return models.ExportedRecipe{TemplateID: templateID, Ingredients: cost}, nil
}

// SchematicTemplateID maps a crafted weapon or trap to the schematic that
// crafts it; other results keep their own template ID.
func SchematicTemplateID(result assets.ItemQuantity) string {
	if craftedWeaponOrTrap.MatchString(result.PrimaryAssetName) {
		return "Schematic:" + craftedWeaponOrTrap.ReplaceAllString(result.PrimaryAssetName, "sid_")
	}
	return result.TemplateID()
}
