package suggest

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepmate/internal/recipe"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func ingredient(name string, vegan, vegetarian, lactoseFree bool) recipe.Ingredient {
	return recipe.Ingredient{
		Name:          name,
		IsVegan:       boolPtr(vegan),
		IsVegetarian:  boolPtr(vegetarian),
		IsLactoseFree: boolPtr(lactoseFree),
	}
}

// testCatalog mirrors a small household recipe collection with a spread
// of dietary properties.
func testCatalog() []*recipe.Recipe {
	chickenNuggets := ingredient("Chicken nuggets", false, false, false)
	fries := ingredient("Fries", true, true, true)
	eggs := ingredient("Eggs", false, true, true)
	milk := ingredient("Milk", false, true, false)
	flour := ingredient("Flour", true, true, true)
	peanuts := ingredient("Peanuts", true, true, true)
	riceNoodles := ingredient("Rice noodles", true, true, true)
	shrimps := ingredient("Shrimps", false, false, true)
	soySauce := ingredient("Soy sauce", true, true, true)
	pasta := ingredient("Pasta", true, true, true)
	groundBeef := ingredient("Ground beef", false, false, true)

	return []*recipe.Recipe{
		{Name: "Fries and nuggets", Calories: intPtr(100), PrepTime: intPtr(20),
			Ingredients: []recipe.Ingredient{chickenNuggets, fries}},
		{Name: "Scrambled eggs", Calories: intPtr(900), PrepTime: intPtr(60),
			Ingredients: []recipe.Ingredient{eggs}},
		{Name: "Pancakes", Calories: intPtr(400), PrepTime: intPtr(90),
			Ingredients: []recipe.Ingredient{eggs, flour, milk}},
		{Name: "Pad thai", Calories: intPtr(10), PrepTime: intPtr(100),
			Ingredients: []recipe.Ingredient{peanuts, riceNoodles, shrimps, soySauce}},
		{Name: "Ragu bolognese", Calories: intPtr(750), PrepTime: intPtr(10),
			Ingredients: []recipe.Ingredient{pasta, groundBeef}},
		{Name: "Fries", Calories: intPtr(300), PrepTime: intPtr(15),
			Ingredients: []recipe.Ingredient{fries}},
	}
}

func names(recipes []*recipe.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.Name)
	}
	return out
}

func TestApplyProfileVegan(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{IsVegan: true}, testCatalog())

	for _, r := range engine.Filtered() {
		assert.True(t, r.IsVegan(), "non-vegan recipe %q passed the vegan filter", r.Name)
	}
	assert.Equal(t, []string{"Fries"}, names(engine.Filtered()))
}

func TestApplyProfileVeganTakesPrecedence(t *testing.T) {
	// All three flags set: only the vegan branch is evaluated.
	profile := &recipe.UserProfile{IsVegan: true, IsVegetarian: true, IsLactoseIntolerant: true}
	engine := NewEngine(profile, testCatalog())

	assert.Equal(t, []string{"Fries"}, names(engine.Filtered()))
}

func TestApplyProfileVegetarian(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{IsVegetarian: true}, testCatalog())

	assert.Equal(t, []string{"Scrambled eggs", "Pancakes", "Fries"}, names(engine.Filtered()))
}

func TestApplyProfileLactoseIntolerant(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{IsLactoseIntolerant: true}, testCatalog())

	// Pancakes contain milk; Fries and nuggets contain nuggets.
	assert.Equal(t, []string{"Scrambled eggs", "Pad thai", "Ragu bolognese", "Fries"}, names(engine.Filtered()))
}

func TestApplyProfileNoRestrictionsKeepsAll(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{}, testCatalog())
	assert.Len(t, engine.Filtered(), 6)
}

func TestApplyProfileRemovesAllergens(t *testing.T) {
	// The allergen pass runs after the dietary branch and is independent
	// of it.
	profile := &recipe.UserProfile{IsVegetarian: true, Allergies: []string{"eggs"}}
	engine := NewEngine(profile, testCatalog())

	assert.Equal(t, []string{"Fries"}, names(engine.Filtered()))
}

func TestApplyProfileAllergiesWithoutRestrictions(t *testing.T) {
	profile := &recipe.UserProfile{Allergies: []string{"Peanuts", "Milk"}}
	engine := NewEngine(profile, testCatalog())

	assert.Equal(t, []string{"Fries and nuggets", "Scrambled eggs", "Ragu bolognese", "Fries"}, names(engine.Filtered()))
}

func TestApplyPreferencesMustNotHave(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{}, testCatalog())

	// Removing "Eggs" drops exactly the recipes that list eggs.
	engine.ApplyPreferences(nil, []string{"Eggs"}, nil, nil)

	assert.Equal(t, []string{"Fries and nuggets", "Pad thai", "Ragu bolognese", "Fries"}, names(engine.Filtered()))
}

func TestApplyPreferencesMustHaveRequiresAll(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{}, testCatalog())

	engine.ApplyPreferences([]string{"Eggs", "Milk"}, nil, nil, nil)

	assert.Equal(t, []string{"Pancakes"}, names(engine.Filtered()))
}

func TestApplyPreferencesCalorieRangeInclusive(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{}, testCatalog())

	engine.ApplyPreferences(nil, nil, &CalorieRange{Min: 100, Max: 400}, nil)

	assert.Equal(t, []string{"Fries and nuggets", "Pancakes", "Fries"}, names(engine.Filtered()))
}

func TestApplyPreferencesMaxPrepTime(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{}, testCatalog())

	engine.ApplyPreferences(nil, nil, nil, intPtr(20))

	assert.Equal(t, []string{"Fries and nuggets", "Ragu bolognese", "Fries"}, names(engine.Filtered()))
}

func TestApplyPreferencesSkipsRecipesWithoutMetadata(t *testing.T) {
	catalog := []*recipe.Recipe{
		{Name: "Mystery", Ingredients: []recipe.Ingredient{ingredient("Pasta", true, true, true)}},
	}
	engine := NewEngine(&recipe.UserProfile{}, catalog)

	// Unset prep time and calories are not grounds for dropping a recipe.
	engine.ApplyPreferences(nil, nil, &CalorieRange{Min: 0, Max: 10}, intPtr(1))

	assert.Equal(t, []string{"Mystery"}, names(engine.Filtered()))
}

func TestNextBatchSizeCap(t *testing.T) {
	catalog := make([]*recipe.Recipe, 0, 25)
	for i := 0; i < 25; i++ {
		catalog = append(catalog, &recipe.Recipe{Name: fmt.Sprintf("Recipe %d", i)})
	}
	engine := NewEngine(&recipe.UserProfile{}, catalog)
	engine.SetRand(rand.New(rand.NewSource(1)))

	batch := engine.NextBatch()
	assert.Len(t, batch, BatchSize)
}

func TestNextBatchExcludesPreviousBatch(t *testing.T) {
	catalog := make([]*recipe.Recipe, 0, 25)
	for i := 0; i < 25; i++ {
		catalog = append(catalog, &recipe.Recipe{Name: fmt.Sprintf("Recipe %d", i)})
	}
	engine := NewEngine(&recipe.UserProfile{}, catalog)
	engine.SetRand(rand.New(rand.NewSource(1)))

	first := engine.NextBatch()
	second := engine.NextBatch()

	seen := make(map[string]bool)
	for _, r := range first {
		seen[r.Name] = true
	}
	for _, r := range second {
		assert.False(t, seen[r.Name], "recipe %q resuggested immediately", r.Name)
	}
}

func TestNextBatchRunsDry(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{}, testCatalog())
	engine.SetRand(rand.New(rand.NewSource(1)))

	first := engine.NextBatch()
	require.Len(t, first, 6)

	// Everything was in the previous batch, so the pool is empty.
	second := engine.NextBatch()
	assert.Empty(t, second)

	// After running dry the exclusion set is clear and sampling resumes.
	third := engine.NextBatch()
	assert.Len(t, third, 6)
}

func TestApplyPreferencesResetsExclusions(t *testing.T) {
	engine := NewEngine(&recipe.UserProfile{}, testCatalog())
	engine.SetRand(rand.New(rand.NewSource(1)))

	first := engine.NextBatch()
	require.Len(t, first, 6)

	// Narrowing the working set starts a fresh rotation.
	engine.ApplyPreferences(nil, nil, nil, nil)
	batch := engine.NextBatch()
	assert.Len(t, batch, 6)
}
