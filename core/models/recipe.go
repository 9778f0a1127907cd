package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateIngredient is returned when a recipe names the same ingredient
// twice, ignoring case.
var ErrDuplicateIngredient = errors.New("duplicate ingredient")

// ItemRecipe is a recipe attached to an item (tier-up, rarity-up, recycle).
// Amount is omitted when the recipe yields exactly one result.
type ItemRecipe struct {
	Result string         `json:"Result"`
	Amount int            `json:"Amount,omitempty"`
	Cost   map[string]int `json:"Cost"`
}

// Ingredient is a template key with a required quantity.
type Ingredient struct {
	TemplateID string
	Quantity   int
}

// ExportedRecipe is a crafting recipe keyed by the crafted template key.
type ExportedRecipe struct {
	TemplateID  string         `json:"TemplateId"`
	Ingredients map[string]int `json:"Ingredients"`
}

// NewItemRecipe builds a recipe producing quantity units of result.
func NewItemRecipe(result string, quantity int, costs []Ingredient) (*ItemRecipe, error) {
	cost, err := BuildCost(costs)
	if err != nil {
		return nil, fmt.Errorf("recipe for %s: %w", result, err)
	}

	recipe := &ItemRecipe{Result: result, Cost: cost}
	if quantity != 1 {
		recipe.Amount = quantity
	}
	return recipe, nil
}

// BuildCost converts ingredients into a cost map whose keys are unique
// case-insensitively. The first spelling of a key is kept.
func BuildCost(costs []Ingredient) (map[string]int, error) {
	cost := make(map[string]int, len(costs))
	seen := make(map[string]struct{}, len(costs))
	for _, c := range costs {
		folded := strings.ToLower(c.TemplateID)
		if _, dup := seen[folded]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIngredient, c.TemplateID)
		}
		seen[folded] = struct{}{}
		cost[c.TemplateID] = c.Quantity
	}
	return cost, nil
}
