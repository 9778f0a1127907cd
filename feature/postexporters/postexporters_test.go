package postexporters_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-exporter/core/assets"
	"asset-exporter/core/models"
	"asset-exporter/core/output"
	"asset-exporter/core/sink"
	"asset-exporter/feature/postexporters"
)

// "iVBORw0KGgo=" is the PNG signature.
var textures = map[string]string{
	"Game/UI/T_Icon.uasset":       `{"exports":[{"name":"T_Icon","data":"iVBORw0KGgo="}]}`,
	"Game/UI/Other/T_Icon.uasset": `{"exports":[{"name":"T_Icon","data":"iVBORw0KGgo="}]}`,
	"Game/UI/T_Empty.uasset":      `{"exports":[{"name":"T_Empty"}]}`,
	"Game/UI/Case/t_icon.uasset":  `{"exports":[{"name":"t_icon","data":"iVBORw0KGgo="}]}`,
}

func newSource(t *testing.T) assets.Source {
	t.Helper()
	root := t.TempDir()
	for rel, content := range textures {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	src, err := assets.NewDirSource(root)
	require.NoError(t, err)
	return src
}

func addItem(ds *output.Dataset, name string, images map[models.ImageType]string) {
	id := "CardPack:" + name
	ds.AddItem(id, &models.NamedItemData{Type: "CardPack", Name: name, DisplayName: name})
	for kind, p := range images {
		ds.AddImage(id, kind, p)
	}
}

func TestImagesPostExporter(t *testing.T) {
	ds := output.NewDataset()
	addItem(ds, "A", map[models.ImageType]string{
		models.SmallPreview: "/Game/UI/T_Icon.T_Icon",
		models.LargePreview: "/Game/UI/T_Icon.T_Icon",
		models.PackImage:    "/Game/UI/Other/T_Icon.T_Icon",
	})
	addItem(ds, "B", map[models.ImageType]string{
		models.SmallPreview: "/Game/UI/Other/T_Icon.T_Icon",
		models.Icon:         "/Game/UI/T_Empty.T_Empty",
	})
	addItem(ds, "C", map[models.ImageType]string{
		models.SmallPreview: "/Game/UI/T_Missing.T_Missing",
	})

	outDir := t.TempDir()
	p := postexporters.NewImagesPostExporter(postexporters.ImagesOptions{
		Source:         newSource(t),
		Sink:           sink.NewFileSink(outDir),
		Logger:         zap.NewNop(),
		Kinds:          []models.ImageType{models.SmallPreview, models.LargePreview, models.Icon},
		MaxParallelism: 3,
	})
	require.NoError(t, p.ProcessExports(context.Background(), ds))

	assert.Equal(t, 2, p.Written())
	assert.Equal(t, 4, p.AssetsLoaded(), "each distinct texture loads once")

	a, _ := ds.Item("CardPack:A")
	assert.Equal(t, map[models.ImageType]string{
		models.SmallPreview: "ExportedImages/T_Icon_1.png",
		models.LargePreview: "ExportedImages/T_Icon_1.png",
	}, a.Base().ImagePaths, "unwanted kinds are not exported")

	b, _ := ds.Item("CardPack:B")
	assert.Equal(t, map[models.ImageType]string{
		models.SmallPreview: "ExportedImages/T_Icon.png",
	}, b.Base().ImagePaths)

	c, _ := ds.Item("CardPack:C")
	assert.Empty(t, c.Base().ImagePaths)

	data, err := os.ReadFile(filepath.Join(outDir, "ExportedImages", "T_Icon.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data)
	assert.FileExists(t, filepath.Join(outDir, "ExportedImages", "T_Icon_1.png"))
	assert.NoFileExists(t, filepath.Join(outDir, "ExportedImages", "T_Empty.png"))
}

func TestImagesPostExporter_NamesIgnoreCase(t *testing.T) {
	ds := output.NewDataset()
	addItem(ds, "A", map[models.ImageType]string{models.SmallPreview: "/Game/UI/T_Icon.T_Icon"})
	addItem(ds, "B", map[models.ImageType]string{models.SmallPreview: "/Game/UI/Case/t_icon.t_icon"})

	outDir := t.TempDir()
	p := postexporters.NewImagesPostExporter(postexporters.ImagesOptions{
		Source: newSource(t),
		Sink:   sink.NewFileSink(outDir),
		Kinds:  []models.ImageType{models.SmallPreview},
	})
	require.NoError(t, p.ProcessExports(context.Background(), ds))
	assert.Equal(t, 2, p.Written())

	a, _ := ds.Item("CardPack:A")
	b, _ := ds.Item("CardPack:B")
	assert.Equal(t, "ExportedImages/t_icon.png", b.Base().ImagePaths[models.SmallPreview])
	assert.Equal(t, "ExportedImages/T_Icon_1.png", a.Base().ImagePaths[models.SmallPreview])
	assert.FileExists(t, filepath.Join(outDir, "ExportedImages", "T_Icon_1.png"))
}

func TestImagesPostExporter_Cancelled(t *testing.T) {
	ds := output.NewDataset()
	addItem(ds, "A", map[models.ImageType]string{models.SmallPreview: "/Game/UI/T_Icon.T_Icon"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := postexporters.NewImagesPostExporter(postexporters.ImagesOptions{
		Source: newSource(t),
		Sink:   sink.NewFileSink(t.TempDir()),
		Kinds:  models.ImageTypes,
	})
	assert.ErrorIs(t, p.ProcessExports(ctx, ds), context.Canceled)
	assert.Zero(t, p.Written())
}

func TestSchematicRecipesPostExporter(t *testing.T) {
	ds := output.NewDataset()
	ds.AddItem("Schematic:sid_a", &models.SchematicItemData{
		NamedItemData: models.NamedItemData{Type: "Schematic", Name: "sid_a"},
	})
	ds.AddItem("Ingredient:ore", &models.NamedItemData{Type: "Ingredient", Name: "ore"})
	ds.AddRecipe(models.ExportedRecipe{TemplateID: "Schematic:SID_A", Ingredients: map[string]int{"Ingredient:ore": 3}})
	ds.AddRecipe(models.ExportedRecipe{TemplateID: "Ingredient:ore", Ingredients: map[string]int{"x": 1}})
	ds.AddRecipe(models.ExportedRecipe{TemplateID: "Schematic:sid_gone", Ingredients: map[string]int{"x": 1}})

	p := postexporters.NewSchematicRecipesPostExporter(nil)
	require.NoError(t, p.ProcessExports(context.Background(), ds))

	it, _ := ds.Item("Schematic:sid_a")
	assert.Equal(t, map[string]int{"Ingredient:ore": 3}, it.(*models.SchematicItemData).CraftingCost)
	assert.Equal(t, 2, ds.Len(), "no keys are created")
}

func TestParseImageKinds(t *testing.T) {
	kinds, err := postexporters.ParseImageKinds(" smallpreview, Icon,,SmallPreview ")
	require.NoError(t, err)
	assert.Equal(t, []models.ImageType{models.SmallPreview, models.Icon}, kinds)

	_, err = postexporters.ParseImageKinds("Poster")
	assert.Error(t, err)
}

func TestAll(t *testing.T) {
	assert.Len(t, postexporters.All(postexporters.Options{}), 1)
	units := postexporters.All(postexporters.Options{Images: &postexporters.ImagesOptions{}})
	require.Len(t, units, 2)
	assert.Equal(t, "Images", units[1].Name())
}
