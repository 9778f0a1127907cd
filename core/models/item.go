package models

import "strings"

// ItemData is implemented by every item shape. Base exposes the shared fields.
type ItemData interface {
	Base() *NamedItemData
}

// NamedItemData holds the fields common to every exported item.
type NamedItemData struct {
	AssetPath              string               `json:"AssetPath"`
	Name                   string               `json:"Name"`
	Type                   string               `json:"Type"`
	DisplayName            string               `json:"DisplayName"`
	Description            string               `json:"Description,omitempty"`
	Rarity                 string               `json:"Rarity,omitempty"`
	Tier                   int                  `json:"Tier,omitempty"`
	IsInventoryLimitExempt bool                 `json:"IsInventoryLimitExempt"`
	TierUpRecipe           *ItemRecipe          `json:"TierUpRecipe,omitempty"`
	RarityUpRecipe         *ItemRecipe          `json:"RarityUpRecipe,omitempty"`
	RecycleRecipe          *ItemRecipe          `json:"RecycleRecipe,omitempty"`
	LevelToXPRow           string               `json:"LevelToXPRow,omitempty"`
	ImagePaths             map[ImageType]string `json:"ImagePaths,omitempty"`
}

// Base returns the receiver.
func (d *NamedItemData) Base() *NamedItemData { return d }

// TemplateID returns the "{Type}:{Name}" key of the item.
func (d *NamedItemData) TemplateID() string {
	return TemplateID(d.Type, d.Name)
}

// SetImagePath records the exported file for an image kind, replacing any
// previous value for that kind.
func (d *NamedItemData) SetImagePath(t ImageType, path string) {
	if d.ImagePaths == nil {
		d.ImagePaths = make(map[ImageType]string)
	}
	d.ImagePaths[t] = path
}

// SchematicItemData is a craftable schematic.
type SchematicItemData struct {
	NamedItemData
	Category     string         `json:"Category,omitempty"`
	SubType      string         `json:"SubType,omitempty"`
	CraftedItem  string         `json:"CraftedItem,omitempty"`
	CraftingCost map[string]int `json:"CraftingCost,omitempty"`
}

// TemplateID joins an item type and name into a template key.
func TemplateID(itemType, name string) string {
	return itemType + ":" + name
}

// NormalizeKey returns the case-folded form used to compare template keys.
func NormalizeKey(templateID string) string {
	return strings.ToLower(templateID)
}

// SplitTemplateID splits "{Type}:{Name}". ok is false when there is no colon.
func SplitTemplateID(templateID string) (itemType, name string, ok bool) {
	itemType, name, ok = strings.Cut(templateID, ":")
	return itemType, name, ok
}
