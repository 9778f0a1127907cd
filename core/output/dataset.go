package output

import (
	"errors"
	"sort"
	"sync"

	"asset-exporter/core/models"
)

// ErrItemNotFound is returned by UpdateItem and ViewItem for unknown keys.
var ErrItemNotFound = errors.New("item not found")

type record struct {
	mu         sync.Mutex
	templateID string
	item       models.ItemData
}

// Dataset is the merged result of a run.
type Dataset struct {
	mu      sync.RWMutex
	items   map[string]*record
	images  map[string]*imageEntry
	recipes map[string]models.ExportedRecipe
	stats   *models.StatTable
	ratings map[string]int
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		items:   make(map[string]*record),
		images:  make(map[string]*imageEntry),
		recipes: make(map[string]models.ExportedRecipe),
		stats:   models.NewStatTable(),
		ratings: make(map[string]int),
	}
}

// AddItem inserts or replaces an item.
func (d *Dataset) AddItem(templateID string, item models.ItemData) {
	key := models.NormalizeKey(templateID)

	d.mu.Lock()
	rec, ok := d.items[key]
	if !ok {
		d.items[key] = &record{templateID: templateID, item: item}
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	rec.mu.Lock()
	rec.templateID = templateID
	rec.item = item
	rec.mu.Unlock()
}

// AddImage records the texture of one image kind for an item, replacing a
// previous texture of the same kind.
func (d *Dataset) AddImage(templateID string, kind models.ImageType, assetPath string) {
	key := models.NormalizeKey(templateID)

	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.images[key]
	if !ok {
		entry = &imageEntry{templateID: templateID, paths: make(map[models.ImageType]string)}
		d.images[key] = entry
	}
	entry.paths[kind] = assetPath
}

// AddRecipe inserts or replaces a crafting recipe.
func (d *Dataset) AddRecipe(recipe models.ExportedRecipe) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recipes[models.NormalizeKey(recipe.TemplateID)] = recipe
}

// AddStatTable merges curves into the dataset's stat table.
func (d *Dataset) AddStatTable(table *models.StatTable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Merge(table)
}

// AddRatings stores level -> rating entries.
func (d *Dataset) AddRatings(ratings map[string]int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for level, rating := range ratings {
		d.ratings[level] = rating
	}
}

func (d *Dataset) lookup(templateID string) (*record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.items[models.NormalizeKey(templateID)]
	return rec, ok
}

// UpdateItem runs fn with exclusive access to an existing item. It never
// creates a key; ErrItemNotFound is returned when the key is unknown.
func (d *Dataset) UpdateItem(templateID string, fn func(models.ItemData) error) error {
	rec, ok := d.lookup(templateID)
	if !ok {
		return ErrItemNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return fn(rec.item)
}

// ViewItem runs fn while holding the item's lock. fn must not retain item.
func (d *Dataset) ViewItem(templateID string, fn func(models.ItemData) error) error {
	return d.UpdateItem(templateID, fn)
}

// Item returns the item stored under a template key.
func (d *Dataset) Item(templateID string) (models.ItemData, bool) {
	rec, ok := d.lookup(templateID)
	if !ok {
		return nil, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.item, true
}

// TemplateIDs returns every item key, in its original spelling, sorted
// case-insensitively.
func (d *Dataset) TemplateIDs() []string {
	d.mu.RLock()
	keys := make([]string, 0, len(d.items))
	ids := make(map[string]string, len(d.items))
	for key, rec := range d.items {
		keys = append(keys, key)
		ids[key] = rec.templateID
	}
	d.mu.RUnlock()

	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = ids[key]
	}
	return out
}

// Items returns every item sorted by template key.
func (d *Dataset) Items() []models.ItemData {
	ids := d.TemplateIDs()
	out := make([]models.ItemData, 0, len(ids))
	for _, id := range ids {
		if item, ok := d.Item(id); ok {
			out = append(out, item)
		}
	}
	return out
}

// Images returns a copy of the image references of one item.
func (d *Dataset) Images(templateID string) map[models.ImageType]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.images[models.NormalizeKey(templateID)]
	if !ok {
		return nil
	}
	out := make(map[models.ImageType]string, len(entry.paths))
	for kind, path := range entry.paths {
		out[kind] = path
	}
	return out
}

// ImageRefs returns every image reference, sorted by template key then kind.
func (d *Dataset) ImageRefs() []models.ImageRef {
	d.mu.RLock()
	refs := make([]models.ImageRef, 0, len(d.images))
	for _, entry := range d.images {
		for kind, path := range entry.paths {
			refs = append(refs, models.ImageRef{TemplateID: entry.templateID, Type: kind, AssetPath: path})
		}
	}
	d.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		ki, kj := models.NormalizeKey(refs[i].TemplateID), models.NormalizeKey(refs[j].TemplateID)
		if ki != kj {
			return ki < kj
		}
		return refs[i].Type < refs[j].Type
	})
	return refs
}

// Recipe returns the crafting recipe for a crafted template key.
func (d *Dataset) Recipe(templateID string) (models.ExportedRecipe, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.recipes[models.NormalizeKey(templateID)]
	return r, ok
}

// Recipes returns every crafting recipe sorted by template key.
func (d *Dataset) Recipes() []models.ExportedRecipe {
	d.mu.RLock()
	out := make([]models.ExportedRecipe, 0, len(d.recipes))
	for _, r := range d.recipes {
		out = append(out, r)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return models.NormalizeKey(out[i].TemplateID) < models.NormalizeKey(out[j].TemplateID)
	})
	return out
}

// StatTable returns a copy of the merged stat table.
func (d *Dataset) StatTable() *models.StatTable {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats.Clone()
}

// Ratings returns a copy of the rating table.
func (d *Dataset) Ratings() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]int, len(d.ratings))
	for k, v := range d.ratings {
		out[k] = v
	}
	return out
}

// Len returns the number of items.
func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// Counts returns the record counts of the dataset.
func (d *Dataset) Counts() Counts {
	d.mu.RLock()
	defer d.mu.RUnlock()

	images := 0
	for _, e := range d.images {
		images += len(e.paths)
	}
	return Counts{
		Items:   len(d.items),
		Images:  images,
		Recipes: len(d.recipes),
		Stats:   d.stats.Len(),
		Ratings: len(d.ratings),
	}
}
