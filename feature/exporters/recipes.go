package exporters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"asset-exporter/core/assets"
	"asset-exporter/core/models"
)

type recipeTable struct {
	obj *assets.Object
	err error
}

// recipeTables loads each referenced recipe table at most once per unit.
// Failed loads are remembered too; only cancelled loads are retried.
type recipeTables struct {
	b      *base
	mu     sync.RWMutex
	tables map[string]*recipeTable
	group  singleflight.Group
}

func newRecipeTables(b *base) *recipeTables {
	return &recipeTables{b: b, tables: make(map[string]*recipeTable)}
}

func (c *recipeTables) table(ctx context.Context, ref string) (*assets.Object, error) {
	key := assets.NormalizePath(ref)

	c.mu.RLock()
	t, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		return t.obj, t.err
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		if t, ok := c.tables[key]; ok {
			c.mu.RUnlock()
			return t, nil
		}
		c.mu.RUnlock()

		obj, err := assets.LoadObject(ctx, c.b.ectx.Source, ref)
		t := &recipeTable{obj: obj, err: err}
		if err == nil {
			c.b.countLoaded()
		} else if ctx.Err() == nil {
			c.b.log.Warn("Failed to load recipe table", zap.String("table", ref), zap.Error(err))
		}

		if ctx.Err() == nil {
			c.mu.Lock()
			c.tables[key] = t
			c.mu.Unlock()
		}
		return t, nil
	})
	t = v.(*recipeTable)
	return t.obj, t.err
}

// lookup returns the recipe row behind h, or nil when the table or the row
// is unavailable.
func (c *recipeTables) lookup(ctx context.Context, h assets.RowHandle) (*assets.Recipe, error) {
	tbl, err := c.table(ctx, h.DataTable)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}

	var r assets.Recipe
	if err := tbl.DecodeRow(h.RowName, &r); err != nil {
		if errors.Is(err, assets.ErrRowNotFound) {
			c.b.log.Debug("Recipe row not found", zap.String("table", h.DataTable), zap.String("row", h.RowName))
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// convert resolves and converts the recipe behind h. A missing recipe gives
// nil without error.
func (c *recipeTables) convert(ctx context.Context, h assets.RowHandle) (*models.ItemRecipe, error) {
	r, err := c.lookup(ctx, h)
	if err != nil || r == nil {
		return nil, err
	}
	return ConvertRecipe(r)
}

// ConvertRecipe turns a recipe row into an item recipe. Only the first result
// is used.
func ConvertRecipe(r *assets.Recipe) (*models.ItemRecipe, error) {
	if len(r.RecipeResults) == 0 {
		return nil, fmt.Errorf("recipe has no results")
	}
	result := r.RecipeResults[0]

	costs := make([]models.Ingredient, 0, len(r.RecipeCosts))
	for _, c := range r.RecipeCosts {
		costs = append(costs, models.Ingredient{TemplateID: c.TemplateID(), Quantity: c.Quantity})
	}
	return models.NewItemRecipe(result.TemplateID(), result.Quantity, costs)
}
