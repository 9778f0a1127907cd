package artifacts

import (
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"asset-exporter/core/models"
	"asset-exporter/core/output"
)

// DefaultSchematicsPath is the default sink name of the schematics artifact.
const DefaultSchematicsPath = "schematics.json"

// SchematicEntry is one crafting recipe in schematics.json.
type SchematicEntry struct {
	TemplateID  string            `json:"TemplateId"`
	DisplayName string            `json:"DisplayName,omitempty"`
	Rarity      string            `json:"Rarity,omitempty"`
	Tier        int               `json:"Tier,omitempty"`
	CraftedItem string            `json:"CraftedItem,omitempty"`
	Ingredients []IngredientEntry `json:"Ingredients"`
}

// IngredientEntry is one ingredient of a SchematicEntry.
type IngredientEntry struct {
	TemplateID  string `json:"TemplateId"`
	DisplayName string `json:"DisplayName,omitempty"`
	Quantity    int    `json:"Quantity"`
}

// SchematicsArtifact writes every crafting recipe keyed by template ID, with
// the display names of the schematic and its ingredients resolved from the
// dataset.
type SchematicsArtifact struct {
	opts Options
}

func NewSchematicsArtifact(opts Options) *SchematicsArtifact {
	return &SchematicsArtifact{opts: opts.withDefaults(DefaultSchematicsPath)}
}

func (a *SchematicsArtifact) Name() string { return a.opts.Path }

func (a *SchematicsArtifact) Generate(ctx context.Context, ds *output.Dataset) error {
	entries := SchematicEntries(ds)

	prev, err := a.opts.readPrevious(ctx)
	if err != nil {
		return err
	}
	if prev != nil {
		var old map[string]SchematicEntry
		if err := json.Unmarshal(prev, &old); err != nil {
			return fmt.Errorf("merge %s: %w", a.opts.Path, err)
		}
		entries = overlay(old, entries)
	}

	if _, err := a.opts.write(ctx, entries); err != nil {
		return err
	}
	a.opts.Logger.Info("Wrote artifact", zap.String("path", a.opts.Path), zap.Int("recipes", len(entries)))
	return nil
}

// SchematicEntries resolves the crafting recipes of ds.
func SchematicEntries(ds *output.Dataset) map[string]SchematicEntry {
	recipes := ds.Recipes()
	entries := make(map[string]SchematicEntry, len(recipes))
	for _, r := range recipes {
		e := SchematicEntry{TemplateID: r.TemplateID, Ingredients: make([]IngredientEntry, 0, len(r.Ingredients))}
		if item, ok := ds.Item(r.TemplateID); ok {
			base := item.Base()
			e.DisplayName = base.DisplayName
			e.Rarity = base.Rarity
			e.Tier = base.Tier
			if s, ok := item.(*models.SchematicItemData); ok {
				e.CraftedItem = s.CraftedItem
			}
		}
		for id, qty := range r.Ingredients {
			ing := IngredientEntry{TemplateID: id, Quantity: qty}
			if item, ok := ds.Item(id); ok {
				ing.DisplayName = item.Base().DisplayName
			}
			e.Ingredients = append(e.Ingredients, ing)
		}
		sort.Slice(e.Ingredients, func(i, j int) bool {
			return models.NormalizeKey(e.Ingredients[i].TemplateID) < models.NormalizeKey(e.Ingredients[j].TemplateID)
		})
		entries[r.TemplateID] = e
	}
	return entries
}
