// Package ingest validates user-submitted recipes and writes them through
// the persistence layer.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"prepmate/internal/recipe"
)

// Result is the discriminated outcome of a recipe submission.
type Result int

const (
	// Success means the recipe was validated and stored.
	Success Result = iota
	// EmptyTitle means the submission had no title.
	EmptyTitle
	// InvalidTitle means the title contains a character outside letters,
	// digits, space, '-' and ','.
	InvalidTitle
	// DuplicateTitle means a recipe with the same title (compared
	// case-insensitively) already exists.
	DuplicateTitle
	// MissingUnit means at least one ingredient row has an empty unit.
	MissingUnit
	// NoIngredients means the submission has zero ingredient rows.
	NoIngredients
)

// String returns the machine-readable code for the result.
func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case EmptyTitle:
		return "empty_title"
	case InvalidTitle:
		return "invalid_title"
	case DuplicateTitle:
		return "duplicate_title"
	case MissingUnit:
		return "missing_unit"
	case NoIngredients:
		return "no_ingredients"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// IngredientRow is one user-entered ingredient line, including the
// classification answers the user supplied for it.
type IngredientRow struct {
	Name          string   `json:"name"`
	Quantity      *float64 `json:"quantity"`
	Unit          string   `json:"unit"`
	IsVegan       bool     `json:"is_vegan"`
	IsVegetarian  bool     `json:"is_vegetarian"`
	IsLactoseFree bool     `json:"is_lactose_free"`
}

// Submission is a user-submitted recipe.
type Submission struct {
	Title        string          `json:"title"`
	Calories     *int            `json:"calories"`
	PrepTime     *int            `json:"prep_time"`
	Ingredients  []IngredientRow `json:"ingredients"`
	Instructions []string        `json:"instructions"`
}

// Store defines the persistence operations ingestion needs.
type Store interface {
	RetrieveRecipes(ctx context.Context) ([]*recipe.Recipe, error)
	AddRecipe(ctx context.Context, r *recipe.Recipe) error
	AddIngredientInfo(ctx context.Context, name string, info recipe.IngredientInfo) error
}

// Ingestor validates and stores user-submitted recipes.
type Ingestor struct {
	store        Store
	instructions recipe.InstructionStore
}

// NewIngestor creates a new Ingestor. The instruction store is optional;
// without one, submitted instruction lines are dropped.
func NewIngestor(store Store, instructions recipe.InstructionStore) *Ingestor {
	return &Ingestor{store: store, instructions: instructions}
}

// Submit validates the submission and, when it passes, persists the
// ingredient classifications, the instruction lines and the recipe
// itself. The checks run in a fixed order and the first failing check
// wins. Surrounding whitespace in the title is not significant.
func (in *Ingestor) Submit(ctx context.Context, sub Submission) (Result, error) {
	title := strings.TrimSpace(sub.Title)

	if len(title) == 0 {
		return EmptyTitle, nil
	}
	if !validTitle(title) {
		return InvalidTitle, nil
	}

	existing, err := in.store.RetrieveRecipes(ctx)
	if err != nil {
		return Success, fmt.Errorf("failed to check existing recipes: %w", err)
	}
	for _, r := range existing {
		if strings.EqualFold(r.Name, title) {
			return DuplicateTitle, nil
		}
	}

	// Unit validation runs before the ingredient-count check, so a list
	// with a blank unit reports MissingUnit even though it is non-empty.
	for _, row := range sub.Ingredients {
		if row.Unit == "" {
			return MissingUnit, nil
		}
	}
	if len(sub.Ingredients) == 0 {
		return NoIngredients, nil
	}

	ingredients := make([]recipe.Ingredient, 0, len(sub.Ingredients))
	for _, row := range sub.Ingredients {
		info := recipe.IngredientInfo{
			IsVegan:       row.IsVegan,
			IsVegetarian:  row.IsVegetarian,
			IsLactoseFree: row.IsLactoseFree,
		}
		if err := in.store.AddIngredientInfo(ctx, row.Name, info); err != nil {
			return Success, fmt.Errorf("failed to store ingredient info: %w", err)
		}
		vegan, vegetarian, lactoseFree := row.IsVegan, row.IsVegetarian, row.IsLactoseFree
		ingredients = append(ingredients, recipe.Ingredient{
			Name:          row.Name,
			Quantity:      row.Quantity,
			Unit:          row.Unit,
			IsVegan:       &vegan,
			IsVegetarian:  &vegetarian,
			IsLactoseFree: &lactoseFree,
		})
	}

	if len(sub.Instructions) > 0 && in.instructions != nil {
		if err := in.instructions.Write(title, sub.Instructions); err != nil {
			return Success, fmt.Errorf("failed to write instructions: %w", err)
		}
	}

	r := &recipe.Recipe{
		Name:         title,
		Calories:     sub.Calories,
		PrepTime:     sub.PrepTime,
		Ingredients:  ingredients,
		Instructions: sub.Instructions,
	}
	if err := in.store.AddRecipe(ctx, r); err != nil {
		return Success, fmt.Errorf("failed to store recipe: %w", err)
	}
	return Success, nil
}

// validTitle reports whether the title only uses letters, digits, spaces,
// hyphens and commas.
func validTitle(title string) bool {
	for _, c := range title {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == ' ' || c == '-' || c == ',':
		default:
			return false
		}
	}
	return true
}
