package exporters_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-exporter/core/assets"
	"asset-exporter/core/models"
	"asset-exporter/core/output"
	"asset-exporter/core/pipeline"
	"asset-exporter/feature/exporters"
)

var tree = map[string]string{
	"Game/Items/CardPacks/CardPack_Bronze.uasset": `{"exports": [{
		"name": "CardPack_Bronze",
		"properties": {
			"DisplayName": "  Bronze Pack ",
			"ItemDescription": {"text": "Common stuff"},
			"bInventorySizeLimited": false,
			"Rarity": "EFortRarity::Rare",
			"PackImage": {"AssetPathName": "/Game/UI/T_Pack.T_Pack"},
			"DataList": [
				{"Tier": "EFortItemTier::III"},
				{"Icon": {"AssetPathName": "/Game/UI/T_Small.T_Small"}},
				{"LargeIcon": {"AssetPathName": "/Game/UI/T_Large.T_Large"}}
			],
			"ConversionRecipes": [{"DataTable": "/Game/Recipes.Recipes", "RowName": "Up"}],
			"SacrificeRecipe": {"DataTable": "/Game/Recipes.Recipes", "RowName": "Recycle"},
			"UpgradeRarityRecipeHandle": {"DataTable": "/Game/Recipes.Recipes", "RowName": "Missing"},
			"LevelToSacrificeXpHandle": {"CurveTable": "/Game/XP.XP", "RowName": "Pack"}
		}
	}]}`,
	"Game/Items/CardPacks/CardPack_Silver.uasset": `{"exports": [{
		"name": "CardPack_Silver",
		"properties": {
			"SacrificeRecipe": {"DataTable": "/Game/Recipes.Recipes", "RowName": "Recycle"}
		}
	}]}`,
	"Game/Items/CardPacks/CardPack_Broken.uasset": `{not json`,
	"Game/Items/CardPacks/CardPack_Lonely.uasset": `{"exports": [{"name": "SomethingElse"}]}`,
	"Game/Recipes.uasset": `{"exports": [{
		"name": "Recipes",
		"rows": {
			"Up": {
				"RecipeResults": [{"PrimaryAssetType": "CardPack", "PrimaryAssetName": "CardPack_Silver", "Quantity": 1}],
				"RecipeCosts": [{"PrimaryAssetType": "AccountResource", "PrimaryAssetName": "reagent_c_t01", "Quantity": 10}]
			},
			"Recycle": {
				"RecipeResults": [{"PrimaryAssetType": "AccountResource", "PrimaryAssetName": "heroxp", "Quantity": 25}],
				"RecipeCosts": []
			}
		}
	}]}`,
	"Game/Items/Schematics/SID_Assault_Auto_R_T01.uasset": `{"exports": [{
		"name": "SID_Assault_Auto_R_T01",
		"properties": {
			"GameplayTags": ["Item.Schematic", "Weapon.Ranged.Assault.Auto"],
			"CraftingRecipe": {"DataTable": "/Game/Items/CraftingRecipes_New.CraftingRecipes_New", "RowName": "Assault"}
		}
	}]}`,
	"Game/Items/Schematics/SID_Orphan.uasset": `{"exports": [{"name": "SID_Orphan"}]}`,
	"Game/Items/CraftingRecipes_New.uasset": `{"exports": [{
		"name": "CraftingRecipes_New",
		"rows": {
			"Assault": {
				"RecipeResults": [{"PrimaryAssetType": "Weapon", "PrimaryAssetName": "wid_assault_auto_r_t01", "Quantity": 1}],
				"RecipeCosts": [{"PrimaryAssetType": "Ingredient", "PrimaryAssetName": "ingredient_ore", "Quantity": 5}]
			},
			"Dup": {
				"RecipeResults": [{"PrimaryAssetType": "Trap", "PrimaryAssetName": "tid_floor_spikes", "Quantity": 1}],
				"RecipeCosts": [
					{"PrimaryAssetType": "Ingredient", "PrimaryAssetName": "ore", "Quantity": 1},
					{"PrimaryAssetType": "Ingredient", "PrimaryAssetName": "ORE", "Quantity": 2}
				]
			},
			"Other": {
				"RecipeResults": [{"PrimaryAssetType": "AccountResource", "PrimaryAssetName": "reagent_x", "Quantity": 2}],
				"RecipeCosts": [{"PrimaryAssetType": "Ingredient", "PrimaryAssetName": "ingredient_ore", "Quantity": 1}]
			}
		}
	}]}`,
	"Game/Balance/AttributesHeroScaling.uasset": `{"exports": [{
		"name": "AttributesHeroScaling",
		"curves": {
			"Default.Ninja_Shields_SR_T5.MaxHealth": {"keys": [{"time": 0, "value": 0}, {"time": 100, "value": 100}]},
			"Default.Ninja_Shields_SR_T1.MaxHealth": {"keys": [{"time": 0, "value": 1}, {"time": 10, "value": 11}]},
			"not a hero stat": {"keys": []}
		}
	}]}`,
	"Game/Balance/HomebaseRatingMapping.uasset": `{"exports": [{
		"name": "HomebaseRatingMapping",
		"curves": {
			"B": {"keys": [{"time": 1, "value": 99}]},
			"A": {"keys": [{"time": 1, "value": 5}, {"time": 2.7, "value": 15.9}]}
		}
	}]}`,
}

type countingSource struct {
	assets.Source
	mu     sync.Mutex
	counts map[string]int
}

func (s *countingSource) Load(ctx context.Context, path string) (*assets.Package, error) {
	s.mu.Lock()
	s.counts[path]++
	s.mu.Unlock()
	return s.Source.Load(ctx, path)
}

func (s *countingSource) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[path]
}

func newSource(t *testing.T) *countingSource {
	t.Helper()
	root := t.TempDir()
	for rel, content := range tree {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	src, err := assets.NewDirSource(root)
	require.NoError(t, err)
	return &countingSource{Source: src, counts: make(map[string]int)}
}

func run(t *testing.T, src assets.Source, e pipeline.Exporter) *output.Dataset {
	t.Helper()
	for _, p := range src.Files() {
		e.ObserveAsset(p)
	}
	buf := output.NewBuffer()
	require.NoError(t, e.ExportAssets(context.Background(), pipeline.Discard, buf))
	ds := output.NewDataset()
	buf.CopyTo(ds)
	buf.ApplyDisplayNameCorrections(ds)
	return ds
}

func TestCardPackExporter(t *testing.T) {
	src := newSource(t)
	e := exporters.NewCardPackExporter(exporters.Context{Source: src, Logger: zap.NewNop(), MaxParallelism: 4})

	var mu sync.Mutex
	var reports []pipeline.Progress
	for _, p := range src.Files() {
		e.ObserveAsset(p)
	}
	buf := output.NewBuffer()
	err := e.ExportAssets(context.Background(), pipeline.ProgressFunc(func(p pipeline.Progress) {
		mu.Lock()
		reports = append(reports, p)
		mu.Unlock()
	}), buf)
	require.NoError(t, err)
	ds := output.NewDataset()
	buf.CopyTo(ds)

	assert.Equal(t, []string{"CardPack:CardPack_Bronze", "CardPack:CardPack_Silver"}, ds.TemplateIDs())

	it, ok := ds.Item("CardPack:CardPack_Bronze")
	require.True(t, ok)
	bronze := it.Base()
	assert.Equal(t, "Game/Items/CardPacks/CardPack_Bronze", bronze.AssetPath)
	assert.Equal(t, "Bronze Pack", bronze.DisplayName)
	assert.Equal(t, "Common stuff", bronze.Description)
	assert.True(t, bronze.IsInventoryLimitExempt)
	assert.Equal(t, 3, bronze.Tier)
	assert.Equal(t, "Rare", bronze.Rarity)
	assert.Equal(t, "Pack", bronze.LevelToXPRow)
	require.NotNil(t, bronze.TierUpRecipe)
	assert.Equal(t, "CardPack:CardPack_Silver", bronze.TierUpRecipe.Result)
	assert.Zero(t, bronze.TierUpRecipe.Amount)
	assert.Equal(t, map[string]int{"AccountResource:reagent_c_t01": 10}, bronze.TierUpRecipe.Cost)
	require.NotNil(t, bronze.RecycleRecipe)
	assert.Equal(t, 25, bronze.RecycleRecipe.Amount)
	assert.Nil(t, bronze.RarityUpRecipe, "missing rows are skipped")

	assert.Equal(t, map[models.ImageType]string{
		models.SmallPreview: "/Game/UI/T_Large.T_Large",
		models.LargePreview: "/Game/UI/T_Large.T_Large",
		models.PackImage:    "/Game/UI/T_Pack.T_Pack",
	}, ds.Images("CardPack:CardPack_Bronze"))

	it, ok = ds.Item("CardPack:CardPack_Silver")
	require.True(t, ok)
	silver := it.Base()
	assert.Equal(t, "<CardPack_Silver>", silver.DisplayName)
	assert.Empty(t, silver.Rarity, "default rarity is omitted")
	assert.False(t, silver.IsInventoryLimitExempt)

	assert.Equal(t, []string{
		"Game/Items/CardPacks/CardPack_Broken.uasset",
		"Game/Items/CardPacks/CardPack_Lonely.uasset",
	}, e.FailedAssets().Sorted())

	assert.Equal(t, 1, src.count("Game/Recipes.uasset"), "recipe table loads once")
	assert.Equal(t, 5, e.AssetsLoaded())

	require.Len(t, reports, 4)
	maxCompleted := 0
	for _, r := range reports {
		assert.Equal(t, "CardPack", r.Unit)
		assert.Equal(t, 4, r.Total)
		maxCompleted = max(maxCompleted, r.Completed)
		if r.Completed == 4 {
			assert.ElementsMatch(t, e.FailedAssets().Sorted(), r.Failed, "the last report sees every failure")
		}
	}
	assert.Equal(t, 4, maxCompleted)
}

func TestItemExporter_Limit(t *testing.T) {
	src := newSource(t)
	e := exporters.NewCardPackExporter(exporters.Context{Source: src, Limit: 1})
	ds := run(t, src, e)

	assert.Equal(t, 0, ds.Len(), "the first card pack path is the broken one")
	assert.Equal(t, 1, e.FailedAssets().Len())
}

func TestItemExporter_PanicIsolated(t *testing.T) {
	src := newSource(t)
	e := exporters.NewItemExporter(exporters.Context{Source: src, MaxParallelism: 2}, exporters.ItemSpec{
		Name:               "Panicky",
		Type:               "CardPack",
		Interest:           func(p string) bool { return strings.HasSuffix(p, ".uasset") },
		IgnoreLoadFailures: true,
		Hook: func(_ context.Context, _ *exporters.ItemExporter, x *exporters.Export) (bool, error) {
			if x.Object.Name == "CardPack_Bronze" {
				panic("boom")
			}
			return x.Object.Name == "CardPack_Silver", nil
		},
	})
	ds := run(t, src, e)

	assert.Equal(t, []string{"CardPack:CardPack_Silver"}, ds.TemplateIDs())
	assert.Equal(t, []string{"Game/Items/CardPacks/CardPack_Bronze.uasset"}, e.FailedAssets().Sorted())
}

func TestItemExporter_Cancelled(t *testing.T) {
	src := newSource(t)
	e := exporters.NewCardPackExporter(exporters.Context{Source: src})
	for _, p := range src.Files() {
		e.ObserveAsset(p)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := output.NewBuffer()
	err := e.ExportAssets(ctx, pipeline.Discard, buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
	assert.Zero(t, e.FailedAssets().Len())
}

func TestSchematicExporter(t *testing.T) {
	src := newSource(t)
	e := exporters.NewSchematicExporter(exporters.Context{Source: src})
	for _, p := range src.Files() {
		e.ObserveAsset(p)
	}
	buf := output.NewBuffer()
	require.NoError(t, e.ExportAssets(context.Background(), pipeline.Discard, buf))

	ds := output.NewDataset()
	ds.AddItem("Weapon:wid_assault_auto_r_t01", &models.NamedItemData{
		Type: "Weapon", Name: "wid_assault_auto_r_t01", DisplayName: "Auto Rifle",
	})
	buf.CopyTo(ds)
	assert.Equal(t, 1, buf.ApplyDisplayNameCorrections(ds))

	it, ok := ds.Item("Schematic:SID_Assault_Auto_R_T01")
	require.True(t, ok)
	s, ok := it.(*models.SchematicItemData)
	require.True(t, ok)
	assert.Equal(t, "Auto Rifle", s.DisplayName)
	assert.Equal(t, "Uncommon", s.Rarity, "schematics always carry a rarity")
	assert.Equal(t, "Ranged", s.Category)
	assert.Equal(t, "Assault", s.SubType)
	assert.Equal(t, "Weapon:wid_assault_auto_r_t01", s.CraftedItem)

	_, ok = ds.Item("Schematic:SID_Orphan")
	assert.False(t, ok, "placeholder names without a crafted item are dropped")
	assert.Zero(t, e.FailedAssets().Len())
}

func TestSurvivorPortraitExporter_ImageFallback(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "Game", "UI", "Icon-Worker", "IconDefinitions", "IconDef-Worker-Ninja.uasset")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(`{"exports":[{"name":"IconDef-Worker-Ninja","properties":{
		"SmallImage": {"AssetPathName": "/Game/UI/T_Ninja.T_Ninja"}}}]}`), 0o644))
	src, err := assets.NewDirSource(root)
	require.NoError(t, err)

	e := exporters.NewSurvivorPortraitExporter(exporters.Context{Source: src})
	ds := run(t, src, e)

	assert.Equal(t, map[models.ImageType]string{
		models.SmallPreview: "/Game/UI/T_Ninja.T_Ninja",
		models.LargePreview: "/Game/UI/T_Ninja.T_Ninja",
	}, ds.Images("WorkerPortrait:IconDef-Worker-Ninja"))
}

func TestHeroStatExporter(t *testing.T) {
	src := newSource(t)
	e := exporters.NewHeroStatExporter(exporters.Context{Source: src})
	ds := run(t, src, e)

	table := ds.StatTable()
	require.Contains(t, table.Types, "Ninja_Shields")
	tiers := table.Types["Ninja_Shields"]

	t5 := tiers["SR_T05"]["MaxHealth"]
	assert.Equal(t, 40, t5.FirstLevel)
	require.Len(t, t5.Values, 21)
	assert.InDelta(t, 40, t5.Values[0], 1e-9)
	assert.InDelta(t, 60, t5.Values[20], 1e-9)

	t1 := tiers["SR_T01"]["MaxHealth"]
	assert.Equal(t, 0, t1.FirstLevel)
	require.Len(t, t1.Values, 11)
	assert.InDelta(t, 11, t1.Values[10], 1e-9)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 1, e.AssetsLoaded())
}

func TestHomebaseRatingExporter(t *testing.T) {
	src := newSource(t)
	e := exporters.NewHomebaseRatingExporter(exporters.Context{Source: src})
	ds := run(t, src, e)

	assert.Equal(t, map[string]int{"1": 5, "2": 15}, ds.Ratings())
}

func TestCraftingRecipeExporter(t *testing.T) {
	src := newSource(t)
	e := exporters.NewCraftingRecipeExporter(exporters.Context{Source: src})
	ds := run(t, src, e)

	recipes := ds.Recipes()
	require.Len(t, recipes, 2, "rows with duplicate ingredients are skipped")

	r, ok := ds.Recipe("Schematic:sid_assault_auto_r_t01")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"Ingredient:ingredient_ore": 5}, r.Ingredients)

	_, ok = ds.Recipe("AccountResource:reagent_x")
	assert.True(t, ok)
}

func TestExportersWithoutTables(t *testing.T) {
	src, err := assets.NewDirSource(t.TempDir())
	require.NoError(t, err)
	ectx := exporters.Context{Source: src}

	for _, e := range []pipeline.Exporter{
		exporters.NewHeroStatExporter(ectx),
		exporters.NewHomebaseRatingExporter(ectx),
		exporters.NewCraftingRecipeExporter(ectx),
	} {
		buf := output.NewBuffer()
		assert.NoError(t, e.ExportAssets(context.Background(), pipeline.Discard, buf), e.Name())
		assert.Equal(t, output.Counts{}, buf.Counts(), e.Name())
	}
}

func TestSampleCurve(t *testing.T) {
	c := assets.Curve{Keys: []assets.CurveKey{{Time: 0, Value: 0}, {Time: 50, Value: 100}}}
	s := exporters.SampleCurve(c, 2)
	assert.Equal(t, 10, s.FirstLevel)
	assert.Len(t, s.Values, 11)
	assert.InDelta(t, 20, s.Values[0], 1e-9)
	assert.InDelta(t, 40, s.Values[10], 1e-9)
}

func TestSchematicTemplateID(t *testing.T) {
	cases := map[assets.ItemQuantity]string{
		{PrimaryAssetType: "Weapon", PrimaryAssetName: "wid_sword"}:     "Schematic:sid_sword",
		{PrimaryAssetType: "Trap", PrimaryAssetName: "TID_Floor"}:       "Schematic:sid_Floor",
		{PrimaryAssetType: "Ingredient", PrimaryAssetName: "mid_thing"}: "Ingredient:mid_thing",
	}
	for in, want := range cases {
		assert.Equal(t, want, exporters.SchematicTemplateID(in))
	}
}

func TestAll(t *testing.T) {
	units := exporters.All(exporters.Context{})
	names := make(map[string]bool)
	for _, u := range units {
		assert.False(t, names[u.Name()], "duplicate unit %s", u.Name())
		names[u.Name()] = true
	}
	assert.Len(t, units, 8)
	assert.Equal(t, "CardPack", units[0].Name())
}
