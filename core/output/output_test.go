package output_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-exporter/core/models"
	"asset-exporter/core/output"
)

func item(itemType, name, display string) *models.NamedItemData {
	return &models.NamedItemData{Type: itemType, Name: name, DisplayName: display}
}

func TestBuffer_AddItem(t *testing.T) {
	t.Run("SameKeyOverwritesIgnoringCase", func(t *testing.T) {
		b := output.NewBuffer()
		b.AddItem("CardPack:Bronze", item("CardPack", "Bronze", "old"), map[models.ImageType]string{
			models.PackImage: "/Game/old",
		})
		b.AddItem("cardpack:bronze", item("CardPack", "Bronze", "new"), map[models.ImageType]string{
			models.PackImage: "/Game/new",
		})
		assert.Equal(t, 1, b.Len())

		ds := output.NewDataset()
		b.CopyTo(ds)
		got, ok := ds.Item("CARDPACK:BRONZE")
		require.True(t, ok)
		assert.Equal(t, "new", got.Base().DisplayName)
		assert.Equal(t, map[models.ImageType]string{models.PackImage: "/Game/new"}, ds.Images("CardPack:Bronze"))
	})

	t.Run("ConcurrentWriters", func(t *testing.T) {
		b := output.NewBuffer()
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					id := fmt.Sprintf("Ingredient:i_%d_%d", w, i)
					b.AddItem(id, item("Ingredient", id, ""), map[models.ImageType]string{models.SmallPreview: id})
				}
			}(w)
		}
		wg.Wait()
		assert.Equal(t, 200, b.Len())
		assert.Equal(t, 200, b.Counts().Images)
	})
}

func TestBuffer_CopyToDisjoint(t *testing.T) {
	x := output.NewBuffer()
	x.AddItem("Ingredient:a", item("Ingredient", "a", "A"), nil)
	x.AddItem("Ingredient:b", item("Ingredient", "b", "B"), nil)
	y := output.NewBuffer()
	y.AddItem("Schematic:c", item("Schematic", "c", "C"), nil)
	y.AddRecipe(models.ExportedRecipe{TemplateID: "Schematic:sid_c", Ingredients: map[string]int{"Ingredient:a": 1}})
	y.AddRatings(map[string]int{"1": 10})

	ds := output.NewDataset()
	x.CopyTo(ds)
	y.CopyTo(ds)

	assert.Equal(t, x.Len()+y.Len(), ds.Len())
	for _, id := range []string{"Ingredient:a", "Ingredient:b", "Schematic:c"} {
		_, ok := ds.Item(id)
		assert.True(t, ok, id)
	}
	assert.Equal(t, []string{"Ingredient:a", "Ingredient:b", "Schematic:c"}, ds.TemplateIDs())
	assert.Len(t, ds.Recipes(), 1)
	assert.Equal(t, map[string]int{"1": 10}, ds.Ratings())
}

func TestBuffer_ApplyDisplayNameCorrections(t *testing.T) {
	ds := output.NewDataset()
	ds.AddItem("Weapon:wid_pistol", item("Weapon", "wid_pistol", "Pistol"))

	b := output.NewBuffer()
	b.AddItem("Schematic:sid_pistol", item("Schematic", "sid_pistol", "<sid_pistol>"), nil)
	b.AddItem("Schematic:sid_rifle", item("Schematic", "sid_rifle", "Rifle"), nil)
	b.AddDisplayNameCorrection(output.Correction{TemplateID: "Schematic:sid_pistol", FromTemplateID: "Weapon:wid_pistol"})
	b.AddDisplayNameCorrection(output.Correction{TemplateID: "Schematic:sid_rifle", FromTemplateID: "Weapon:missing"})
	b.AddDisplayNameCorrection(output.Correction{TemplateID: "Schematic:unknown", Name: "Nope"})
	b.CopyTo(ds)

	assert.Equal(t, 1, b.ApplyDisplayNameCorrections(ds))
	got, _ := ds.Item("schematic:sid_pistol")
	assert.Equal(t, "Pistol", got.Base().DisplayName)
	got, _ = ds.Item("schematic:sid_rifle")
	assert.Equal(t, "Rifle", got.Base().DisplayName)
	assert.Equal(t, 3, ds.Len())
}

func TestDataset_UpdateItem(t *testing.T) {
	ds := output.NewDataset()
	ds.AddItem("Ingredient:a", item("Ingredient", "a", "A"))

	err := ds.UpdateItem("Ingredient:missing", func(models.ItemData) error { return nil })
	assert.ErrorIs(t, err, output.ErrItemNotFound)
	assert.Equal(t, 1, ds.Len())

	var wg sync.WaitGroup
	kinds := models.ImageTypes
	for _, kind := range kinds {
		wg.Add(1)
		go func(kind models.ImageType) {
			defer wg.Done()
			_ = ds.UpdateItem("ingredient:A", func(it models.ItemData) error {
				it.Base().SetImagePath(kind, string(kind)+".png")
				return nil
			})
		}(kind)
	}
	wg.Wait()

	got, _ := ds.Item("Ingredient:a")
	assert.Len(t, got.Base().ImagePaths, len(kinds))
}

func TestDataset_ImageRefsSorted(t *testing.T) {
	ds := output.NewDataset()
	ds.AddImage("b:1", models.SmallPreview, "/x")
	ds.AddImage("A:1", models.LargePreview, "/y")
	ds.AddImage("A:1", models.Icon, "/z")
	ds.AddImage("A:1", models.Icon, "/w")

	refs := ds.ImageRefs()
	require.Len(t, refs, 3)
	assert.Equal(t, models.ImageRef{TemplateID: "A:1", Type: models.Icon, AssetPath: "/w"}, refs[0])
	assert.Equal(t, models.LargePreview, refs[1].Type)
	assert.Equal(t, "b:1", refs[2].TemplateID)
}

func TestFailedSet(t *testing.T) {
	a := output.NewFailedSet()
	assert.True(t, a.Add("/b"))
	assert.False(t, a.Add("/b"))
	b := output.NewFailedSet()
	b.Add("/a")
	b.Add("/b")

	a.Union(b, nil, a)
	assert.Equal(t, []string{"/a", "/b"}, a.Sorted())
	assert.True(t, a.Contains("/a"))
	assert.Equal(t, 2, a.Len())
}

func TestFailedSet_Snapshot(t *testing.T) {
	s := output.NewFailedSet()
	s.Add("/z")
	s.Add("/a")
	snap := s.Snapshot()
	s.Add("/m")
	s.Add("/a")

	assert.Equal(t, []string{"/z", "/a"}, snap, "older snapshots are not affected by later adds")
	assert.Equal(t, []string{"/z", "/a", "/m"}, s.Snapshot())
	assert.Equal(t, []string{"/a", "/m", "/z"}, s.Sorted())
}
