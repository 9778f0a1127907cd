package exporters

import (
	"context"
	"strings"

	"asset-exporter/core/models"
	"asset-exporter/core/utils"
)

// NewCardPackExporter exports card packs (llamas and reward packs).
func NewCardPackExporter(ectx Context) *ItemExporter {
	return NewItemExporter(ectx, ItemSpec{
		Name:     "CardPack",
		Type:     "CardPack",
		Interest: pathContains("/Items/CardPacks/"),
		Hook:     cardPackHook,
	})
}

func cardPackHook(_ context.Context, _ *ItemExporter, x *Export) (bool, error) {
	if p, ok := x.Object.SoftPath("PackImage"); ok {
		x.SetImage(models.PackImage, p)
	}
	// Card packs show their large icon in the small slot.
	if p, ok := x.Object.DataListSoftPath("LargeIcon"); ok {
		x.SetImage(models.SmallPreview, p)
	}
	return true, nil
}

// NewSurvivorPortraitExporter exports worker portrait definitions.
func NewSurvivorPortraitExporter(ectx Context) *ItemExporter {
	return NewItemExporter(ectx, ItemSpec{
		Name:               "SurvivorPortrait",
		Type:               "WorkerPortrait",
		Interest:           pathContains("/Icon-Worker/IconDefinitions"),
		Hook:               survivorPortraitHook,
		IgnoreLoadFailures: true,
	})
}

func survivorPortraitHook(_ context.Context, _ *ItemExporter, x *Export) (bool, error) {
	small, hasSmall := x.Object.SoftPath("SmallImage")
	large, hasLarge := x.Object.SoftPath("LargeImage")
	if !hasSmall {
		small = large
	}
	if !hasLarge {
		large = small
	}
	x.SetImage(models.SmallPreview, small)
	x.SetImage(models.LargePreview, large)
	return true, nil
}

// NewIngredientExporter exports crafting ingredients.
func NewIngredientExporter(ectx Context) *ItemExporter {
	return NewItemExporter(ectx, ItemSpec{
		Name:     "Ingredient",
		Type:     "Ingredient",
		Interest: pathContains("/Items/Ingredients/"),
	})
}

// NewAccountResourceExporter exports persistent account resources.
func NewAccountResourceExporter(ectx Context) *ItemExporter {
	return NewItemExporter(ectx, ItemSpec{
		Name:     "AccountResource",
		Type:     "AccountResource",
		Interest: pathContains("/Items/PersistentResources/"),
	})
}

// NewSchematicExporter exports schematics. Schematics always carry a rarity
// and record the item they craft.
func NewSchematicExporter(ectx Context) *ItemExporter {
	return NewItemExporter(ectx, ItemSpec{
		Name:          "Schematic",
		Type:          "Schematic",
		Interest:      pathContains("/Items/Schematics/"),
		Hook:          schematicHook,
		RequireRarity: true,
		New:           func() models.ItemData { return &models.SchematicItemData{} },
	})
}

func schematicHook(ctx context.Context, e *ItemExporter, x *Export) (bool, error) {
	s, ok := x.Item.(*models.SchematicItemData)
	if !ok {
		return true, nil
	}
	tags, _ := x.Object.Get("GameplayTags")
	s.Category, s.SubType = schematicCategory(tags)

	if h, ok := x.Object.RowHandle("CraftingRecipe"); ok {
		r, err := e.Recipe(ctx, h)
		if err != nil {
			return false, err
		}
		if r != nil && len(r.RecipeResults) > 0 {
			s.CraftedItem = r.RecipeResults[0].TemplateID()
		}
	}

	if isPlaceholderName(s.DisplayName, s.Name) {
		if s.CraftedItem == "" {
			return false, nil
		}
		x.CorrectNameFrom(s.CraftedItem)
	}
	return true, nil
}

// schematicCategory derives category and subtype from gameplay tags such as
// "Weapon.Ranged.Assault" or "Trap.Floor".
func schematicCategory(tags any) (category, subType string) {
	list, _ := tags.([]any)
	for _, t := range list {
		parts := strings.Split(utils.ToString(t), ".")
		switch {
		case len(parts) >= 3 && strings.EqualFold(parts[0], "Weapon"):
			return parts[1], parts[2]
		case len(parts) >= 2 && strings.EqualFold(parts[0], "Trap"):
			return "Trap", parts[1]
		}
	}
	return "", ""
}

func isPlaceholderName(display, name string) bool {
	return display == "" || display == "<"+name+">"
}
