package postexporters

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"asset-exporter/core/logger"
	"asset-exporter/core/models"
	"asset-exporter/core/output"
)

// SchematicRecipesPostExporter copies crafting recipe costs onto the
// schematics they belong to.
type SchematicRecipesPostExporter struct {
	log *zap.Logger
}

func NewSchematicRecipesPostExporter(log *zap.Logger) *SchematicRecipesPostExporter {
	if log == nil {
		log = zap.NewNop()
	}
	p := &SchematicRecipesPostExporter{}
	p.log = logger.WithUnit(log, p.Name())
	return p
}

func (p *SchematicRecipesPostExporter) Name() string { return "SchematicRecipes" }

func (p *SchematicRecipesPostExporter) AssetsLoaded() int { return 0 }

func (p *SchematicRecipesPostExporter) ProcessExports(ctx context.Context, ds *output.Dataset) error {
	attached, orphaned := 0, 0
	for _, r := range ds.Recipes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := ds.UpdateItem(r.TemplateID, func(item models.ItemData) error {
			s, ok := item.(*models.SchematicItemData)
			if !ok {
				return nil
			}
			s.CraftingCost = make(map[string]int, len(r.Ingredients))
			for k, v := range r.Ingredients {
				s.CraftingCost[k] = v
			}
			attached++
			return nil
		})
		switch {
		case errors.Is(err, output.ErrItemNotFound):
			orphaned++
		case err != nil:
			return err
		}
	}
	p.log.Info("Attached crafting costs", zap.Int("schematics", attached), zap.Int("orphaned_recipes", orphaned))
	return nil
}
