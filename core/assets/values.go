package assets

import (
	"strconv"
	"strings"

	"asset-exporter/core/utils"
)

// DefaultRarity applies when an object has no Rarity property.
const DefaultRarity = "Uncommon"

var rarityNames = map[string]string{
	"common":       "Common",
	"uncommon":     "Uncommon",
	"rare":         "Rare",
	"epic":         "Epic",
	"legendary":    "Legendary",
	"mythic":       "Mythic",
	"transcendent": "Transcendent",
	"unattainable": "Unattainable",
	"nummythic":    "Mythic",
}

// ParseRarity strips the enum prefix from a rarity value. Missing values
// give DefaultRarity; unknown names are returned as written.
func ParseRarity(v any) string {
	s := utils.ToString(v)
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRarity
	}
	if name, ok := rarityNames[strings.ToLower(s)]; ok {
		return name
	}
	return s
}

var tierNumerals = map[string]int{
	"no_tier": 0, "i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5,
	"vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
}

// ParseTier reads an item tier from a number or an enum value such as
// "EFortItemTier::III". Unknown values give 0.
func ParseTier(v any) int {
	s, ok := v.(string)
	if !ok {
		return utils.ToInt(v)
	}
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if n, ok := tierNumerals[s]; ok {
		return n
	}
	n, _ := strconv.Atoi(s)
	return n
}

// ItemQuantity is one entry of a recipe row.
type ItemQuantity struct {
	PrimaryAssetType string `json:"PrimaryAssetType"`
	PrimaryAssetName string `json:"PrimaryAssetName"`
	Quantity         int    `json:"Quantity"`
}

// TemplateID returns "{PrimaryAssetType}:{PrimaryAssetName}".
func (q ItemQuantity) TemplateID() string {
	return q.PrimaryAssetType + ":" + q.PrimaryAssetName
}

// Recipe is a recipe table row.
type Recipe struct {
	RecipeResults []ItemQuantity `json:"RecipeResults"`
	RecipeCosts   []ItemQuantity `json:"RecipeCosts"`
}
