package exporters

import "asset-exporter/core/pipeline"

// All returns a fresh instance of every built-in extraction unit in merge
// order. Later units win on key conflicts.
func All(ectx Context) []pipeline.Exporter {
	return []pipeline.Exporter{
		NewCardPackExporter(ectx),
		NewSurvivorPortraitExporter(ectx),
		NewIngredientExporter(ectx),
		NewAccountResourceExporter(ectx),
		NewSchematicExporter(ectx),
		NewHeroStatExporter(ectx),
		NewHomebaseRatingExporter(ectx),
		NewCraftingRecipeExporter(ectx),
	}
}
