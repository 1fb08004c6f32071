package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepmate/internal/recipe"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func newTestIngestor(t *testing.T) (*Ingestor, *recipe.SQLiteStore) {
	t.Helper()
	instructions, err := recipe.NewInstructionDir(t.TempDir())
	require.NoError(t, err)
	store, err := recipe.NewSQLiteStore(":memory:", nil, instructions)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewIngestor(store, instructions), store
}

func onionRow() IngredientRow {
	return IngredientRow{
		Name: "Onion", Quantity: floatPtr(1), Unit: "piece",
		IsVegan: true, IsVegetarian: true, IsLactoseFree: true,
	}
}

func TestSubmitEmptyTitle(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	result, err := ingestor.Submit(context.Background(), Submission{
		Title:       "",
		Ingredients: []IngredientRow{onionRow()},
	})
	require.NoError(t, err)
	assert.Equal(t, EmptyTitle, result)
}

func TestSubmitWhitespaceOnlyTitle(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	result, err := ingestor.Submit(context.Background(), Submission{
		Title:       "   ",
		Ingredients: []IngredientRow{onionRow()},
	})
	require.NoError(t, err)
	assert.Equal(t, EmptyTitle, result)
}

func TestSubmitInvalidTitle(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	for _, title := range []string{"Chicken & Rice", "Pasta!", "Soup/Stew", "Café cake"} {
		result, err := ingestor.Submit(context.Background(), Submission{
			Title:       title,
			Ingredients: []IngredientRow{onionRow()},
		})
		require.NoError(t, err)
		assert.Equal(t, InvalidTitle, result, "title %q", title)
	}
}

func TestSubmitThenDuplicateTitle(t *testing.T) {
	ingestor, _ := newTestIngestor(t)
	ctx := context.Background()

	sub := Submission{
		Title:       "Chicken and Rice",
		Calories:    intPtr(400),
		PrepTime:    intPtr(25),
		Ingredients: []IngredientRow{onionRow()},
	}

	result, err := ingestor.Submit(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, Success, result)

	// An identical second submission is rejected.
	result, err = ingestor.Submit(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, DuplicateTitle, result)
}

func TestSubmitDuplicateTitleCaseInsensitive(t *testing.T) {
	ingestor, _ := newTestIngestor(t)
	ctx := context.Background()

	result, err := ingestor.Submit(ctx, Submission{
		Title:       "Chicken and Rice",
		Ingredients: []IngredientRow{onionRow()},
	})
	require.NoError(t, err)
	require.Equal(t, Success, result)

	for _, title := range []string{"chicken and rice", "CHICKEN AND RICE", "  Chicken and Rice  "} {
		result, err := ingestor.Submit(ctx, Submission{
			Title:       title,
			Ingredients: []IngredientRow{onionRow()},
		})
		require.NoError(t, err)
		assert.Equal(t, DuplicateTitle, result, "title %q", title)
	}
}

func TestSubmitMissingUnit(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	row := onionRow()
	row.Unit = ""
	result, err := ingestor.Submit(context.Background(), Submission{
		Title:       "Onion soup",
		Ingredients: []IngredientRow{row},
	})
	require.NoError(t, err)
	assert.Equal(t, MissingUnit, result)
}

func TestSubmitNoIngredients(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	result, err := ingestor.Submit(context.Background(), Submission{Title: "Air"})
	require.NoError(t, err)
	assert.Equal(t, NoIngredients, result)
}

func TestSubmitTitleChecksPrecedeIngredientChecks(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	// An invalid title wins over an empty ingredient list.
	result, err := ingestor.Submit(context.Background(), Submission{Title: "Bad + title"})
	require.NoError(t, err)
	assert.Equal(t, InvalidTitle, result)
}

func TestSubmitSuccessPersistsEverything(t *testing.T) {
	ingestor, store := newTestIngestor(t)
	ctx := context.Background()

	result, err := ingestor.Submit(ctx, Submission{
		Title:    "Chicken and Rice",
		Calories: intPtr(400),
		PrepTime: intPtr(25),
		Ingredients: []IngredientRow{
			onionRow(),
			{Name: "Chicken", Quantity: floatPtr(200), Unit: "g", IsLactoseFree: true},
		},
		Instructions: []string{"Chop the onion", "Cook the chicken"},
	})
	require.NoError(t, err)
	require.Equal(t, Success, result)

	// The ingredient classifications landed in the catalog.
	info, err := store.GetIngredientInfo(ctx, "onion")
	require.NoError(t, err)
	assert.True(t, info.IsVegan)
	info, err = store.GetIngredientInfo(ctx, "chicken")
	require.NoError(t, err)
	assert.False(t, info.IsVegan)
	assert.True(t, info.IsLactoseFree)

	// The recipe comes back whole, instructions included.
	recipes, err := store.RetrieveRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	r := recipes[0]
	assert.Equal(t, "Chicken and Rice", r.Name)
	assert.Equal(t, 400, *r.Calories)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "Onion", r.Ingredients[0].Name)
	assert.Equal(t, []string{"Chop the onion", "Cook the chicken"}, r.Instructions)
}

func TestSubmitSuccessWithoutInstructions(t *testing.T) {
	ingestor, store := newTestIngestor(t)
	ctx := context.Background()

	result, err := ingestor.Submit(ctx, Submission{
		Title:       "Plain rice",
		Ingredients: []IngredientRow{{Name: "Rice", Quantity: floatPtr(75), Unit: "g", IsVegan: true, IsVegetarian: true, IsLactoseFree: true}},
	})
	require.NoError(t, err)
	require.Equal(t, Success, result)

	recipes, err := store.RetrieveRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Empty(t, recipes[0].Instructions)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "duplicate_title", DuplicateTitle.String())
	assert.Equal(t, "missing_unit", MissingUnit.String())
}
