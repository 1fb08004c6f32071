// Package suggest filters the recipe catalog against the user profile and
// produces rotating random suggestion batches.
package suggest

import (
	"math/rand"
	"time"

	"prepmate/internal/recipe"
)

// BatchSize is the maximum number of recipes per suggestion batch.
const BatchSize = 10

// CalorieRange is an inclusive per-serving calorie window.
type CalorieRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Engine holds a snapshot of the catalog filtered against a user profile
// and hands out non-repeating random batches from it. It is not safe for
// concurrent use.
type Engine struct {
	profile   *recipe.UserProfile
	catalog   []*recipe.Recipe
	filtered  []*recipe.Recipe
	lastBatch map[*recipe.Recipe]bool
	rng       *rand.Rand
}

// NewEngine builds an engine over the given catalog, immediately filtered
// against the profile's dietary restrictions and allergies.
func NewEngine(profile *recipe.UserProfile, catalog []*recipe.Recipe) *Engine {
	e := &Engine{
		profile:   profile,
		catalog:   catalog,
		lastBatch: make(map[*recipe.Recipe]bool),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.filtered = e.applyProfile(catalog)
	return e
}

// SetRand replaces the random source. Useful for deterministic tests.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.rng = rng
}

// Filtered returns the current working set.
func (e *Engine) Filtered() []*recipe.Recipe {
	return e.filtered
}

// applyProfile filters the catalog on the dietary restrictions, then
// drops recipes containing any of the profile's allergens.
//
// The dietary branch is an ordered precedence chain, not independent
// filters: a profile with both vegan and vegetarian set is only ever
// evaluated against the vegan branch. This mirrors the shipped behavior
// and is flagged as an open product question in DESIGN.md.
func (e *Engine) applyProfile(recipes []*recipe.Recipe) []*recipe.Recipe {
	filtered := make([]*recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		switch {
		case e.profile.IsVegan:
			if r.IsVegan() {
				filtered = append(filtered, r)
			}
		case e.profile.IsVegetarian:
			if r.IsVegetarian() {
				filtered = append(filtered, r)
			}
		case e.profile.IsLactoseIntolerant:
			if r.IsLactoseFree() {
				filtered = append(filtered, r)
			}
		default:
			filtered = append(filtered, r)
		}
	}

	// The allergen pass is independent of the dietary branch.
	if len(e.profile.Allergies) > 0 {
		kept := filtered[:0]
		for _, r := range filtered {
			safe := true
			for _, allergen := range e.profile.Allergies {
				if r.Contains(allergen) {
					safe = false
					break
				}
			}
			if safe {
				kept = append(kept, r)
			}
		}
		filtered = kept
	}
	return filtered
}

// ApplyPreferences narrows the working set with ad-hoc preferences. It
// operates on the already profile-filtered set and replaces it. Nil or
// empty criteria are no-ops. Because the working set changes, the
// exclusion state from previous batches is reset.
func (e *Engine) ApplyPreferences(mustHave, mustNotHave []string, calories *CalorieRange, maxPrepTime *int) {
	kept := make([]*recipe.Recipe, 0, len(e.filtered))
	for _, r := range e.filtered {
		if maxPrepTime != nil && r.PrepTime != nil && *r.PrepTime > *maxPrepTime {
			continue
		}
		if calories != nil && r.Calories != nil && (*r.Calories < calories.Min || *r.Calories > calories.Max) {
			continue
		}
		if !hasAll(r, mustHave) {
			continue
		}
		if hasAny(r, mustNotHave) {
			continue
		}
		kept = append(kept, r)
	}
	e.filtered = kept
	e.lastBatch = make(map[*recipe.Recipe]bool)
}

// NextBatch samples up to BatchSize recipes uniformly at random, without
// replacement, from the working set minus the immediately preceding
// batch. Each call replaces the previous batch. When every recipe in the
// working set was in the previous batch, the result is empty: the pool
// runs dry rather than cycling back.
func (e *Engine) NextBatch() []*recipe.Recipe {
	pool := make([]*recipe.Recipe, 0, len(e.filtered))
	for _, r := range e.filtered {
		if !e.lastBatch[r] {
			pool = append(pool, r)
		}
	}

	size := BatchSize
	if len(pool) < size {
		size = len(pool)
	}
	e.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	batch := pool[:size]

	e.lastBatch = make(map[*recipe.Recipe]bool, len(batch))
	for _, r := range batch {
		e.lastBatch[r] = true
	}
	return batch
}

// hasAll reports whether the recipe lists every one of the given
// ingredient names. Names match exactly, as entered.
func hasAll(r *recipe.Recipe, names []string) bool {
	for _, name := range names {
		found := false
		for _, ing := range r.Ingredients {
			if ing.Name == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// hasAny reports whether the recipe lists at least one of the given
// ingredient names.
func hasAny(r *recipe.Recipe, names []string) bool {
	for _, name := range names {
		for _, ing := range r.Ingredients {
			if ing.Name == name {
				return true
			}
		}
	}
	return false
}
