package recipe

import "strings"

// Ingredient represents one ingredient line of a recipe or shopping list.
// Quantity is per one serving and may be unknown (nil). The three
// classification flags are tri-state: nil means not yet looked up in the
// ingredient catalog.
type Ingredient struct {
	Name          string   `json:"name" db:"name"`
	Quantity      *float64 `json:"quantity" db:"quantity"`
	Unit          string   `json:"unit" db:"unit"`
	IsVegan       *bool    `json:"is_vegan,omitempty"`
	IsVegetarian  *bool    `json:"is_vegetarian,omitempty"`
	IsLactoseFree *bool    `json:"is_lactose_free,omitempty"`
}

// IngredientInfo is the cached catalog classification for an ingredient name.
type IngredientInfo struct {
	IsVegan       bool `json:"is_vegan" db:"is_vegan"`
	IsVegetarian  bool `json:"is_vegetarian" db:"is_vegetarian"`
	IsLactoseFree bool `json:"is_lactose_free" db:"is_lactose_free"`
}

// Recipe represents a stored recipe. Ingredient quantities are given for
// exactly one serving. Calories and PrepTime are optional.
type Recipe struct {
	Name         string       `json:"name" db:"name"`
	Calories     *int         `json:"calories" db:"calories"`
	PrepTime     *int         `json:"prep_time" db:"prep_time"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
}

// IsVegan reports whether every ingredient is vegan. An ingredient with an
// unknown classification counts as not vegan. Vacuously true for a recipe
// with no ingredients.
func (r *Recipe) IsVegan() bool {
	for _, ing := range r.Ingredients {
		if ing.IsVegan == nil || !*ing.IsVegan {
			return false
		}
	}
	return true
}

// IsVegetarian reports whether every ingredient is vegetarian.
func (r *Recipe) IsVegetarian() bool {
	for _, ing := range r.Ingredients {
		if ing.IsVegetarian == nil || !*ing.IsVegetarian {
			return false
		}
	}
	return true
}

// IsLactoseFree reports whether every ingredient is lactose free.
func (r *Recipe) IsLactoseFree() bool {
	for _, ing := range r.Ingredients {
		if ing.IsLactoseFree == nil || !*ing.IsLactoseFree {
			return false
		}
	}
	return true
}

// Contains reports whether the recipe has an ingredient with the given
// name, compared case-insensitively.
func (r *Recipe) Contains(allergen string) bool {
	for _, ing := range r.Ingredients {
		if strings.EqualFold(ing.Name, allergen) {
			return true
		}
	}
	return false
}

// UserProfile holds the single user's dietary restrictions and allergies.
// Allergies are stored case-sensitively, exactly as entered.
type UserProfile struct {
	IsVegan             bool     `json:"is_vegan" db:"is_vegan"`
	IsVegetarian        bool     `json:"is_vegetarian" db:"is_vegetarian"`
	IsLactoseIntolerant bool     `json:"is_lactose_intolerant" db:"is_lactose_intolerant"`
	Allergies           []string `json:"allergies"`
}

// PlannedMeal pairs a calendar date with a chosen recipe name. Dates are
// stored as opaque strings; the store never deduplicates them.
type PlannedMeal struct {
	DateSaved  string `json:"date_saved" db:"date_saved"`
	RecipeName string `json:"recipe_name" db:"recipe_name"`
}
