package output

import (
	"sync"

	"asset-exporter/core/models"
)

// Correction rewrites the display name of an item after the primary merge.
// When FromTemplateID is set the name is copied from that item, which may
// have been produced by another unit; otherwise Name is used.
type Correction struct {
	TemplateID     string
	Name           string
	FromTemplateID string
}

// Counts summarizes the contents of a buffer or dataset.
type Counts struct {
	Items   int
	Images  int
	Recipes int
	Stats   int
	Ratings int
}

type itemEntry struct {
	templateID string
	item       models.ItemData
}

type imageEntry struct {
	templateID string
	paths      map[models.ImageType]string
}

// Buffer accumulates the records of one extraction unit.
type Buffer struct {
	mu          sync.Mutex
	items       map[string]itemEntry
	images      map[string]*imageEntry
	recipes     map[string]models.ExportedRecipe
	stats       *models.StatTable
	ratings     map[string]int
	corrections []Correction
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		items:   make(map[string]itemEntry),
		images:  make(map[string]*imageEntry),
		recipes: make(map[string]models.ExportedRecipe),
		stats:   models.NewStatTable(),
		ratings: make(map[string]int),
	}
}

// AddItem stores an item together with its images in one step. A later call
// for the same key replaces the item and overwrites images of the same kind.
func (b *Buffer) AddItem(templateID string, item models.ItemData, images map[models.ImageType]string) {
	key := models.NormalizeKey(templateID)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[key] = itemEntry{templateID: templateID, item: item}
	for kind, path := range images {
		b.addImageLocked(key, templateID, kind, path)
	}
}

// AddImage records the texture used for one image kind of an item.
func (b *Buffer) AddImage(templateID string, kind models.ImageType, assetPath string) {
	key := models.NormalizeKey(templateID)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.addImageLocked(key, templateID, kind, assetPath)
}

func (b *Buffer) addImageLocked(key, templateID string, kind models.ImageType, assetPath string) {
	entry, ok := b.images[key]
	if !ok {
		entry = &imageEntry{templateID: templateID, paths: make(map[models.ImageType]string)}
		b.images[key] = entry
	}
	entry.paths[kind] = assetPath
}

// AddRecipe stores a crafting recipe keyed by the crafted template key.
func (b *Buffer) AddRecipe(recipe models.ExportedRecipe) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recipes[models.NormalizeKey(recipe.TemplateID)] = recipe
}

// AddStatTable merges curves into the buffer's stat table.
func (b *Buffer) AddStatTable(table *models.StatTable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Merge(table)
}

// AddRatings stores level -> rating entries.
func (b *Buffer) AddRatings(ratings map[string]int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for level, rating := range ratings {
		b.ratings[level] = rating
	}
}

// AddDisplayNameCorrection queues a correction for the post-merge pass.
func (b *Buffer) AddDisplayNameCorrection(c Correction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.corrections = append(b.corrections, c)
}

// Len returns the number of items.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Counts returns the record counts of the buffer.
func (b *Buffer) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()

	images := 0
	for _, e := range b.images {
		images += len(e.paths)
	}
	return Counts{
		Items:   len(b.items),
		Images:  images,
		Recipes: len(b.recipes),
		Stats:   b.stats.Len(),
		Ratings: len(b.ratings),
	}
}

// CopyTo copies every record into ds.
func (b *Buffer) CopyTo(ds *Dataset) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.items {
		ds.AddItem(e.templateID, e.item)
	}
	for _, e := range b.images {
		for kind, path := range e.paths {
			ds.AddImage(e.templateID, kind, path)
		}
	}
	for _, r := range b.recipes {
		ds.AddRecipe(r)
	}
	if b.stats.Len() > 0 {
		ds.AddStatTable(b.stats)
	}
	if len(b.ratings) > 0 {
		ds.AddRatings(b.ratings)
	}
}

// ApplyDisplayNameCorrections applies the queued corrections to ds and
// returns how many took effect. Corrections naming a missing item, or copying
// from a missing or unnamed item, are skipped.
func (b *Buffer) ApplyDisplayNameCorrections(ds *Dataset) int {
	b.mu.Lock()
	corrections := append([]Correction(nil), b.corrections...)
	b.mu.Unlock()

	applied := 0
	for _, c := range corrections {
		name := c.Name
		if c.FromTemplateID != "" {
			name = ""
			_ = ds.ViewItem(c.FromTemplateID, func(item models.ItemData) error {
				name = item.Base().DisplayName
				return nil
			})
		}
		if name == "" {
			continue
		}
		err := ds.UpdateItem(c.TemplateID, func(item models.ItemData) error {
			item.Base().DisplayName = name
			return nil
		})
		if err == nil {
			applied++
		}
	}
	return applied
}
