package recipe

// Scale multiplies every known ingredient quantity by the given number of
// servings. Ingredients with an unknown quantity pass through unchanged.
// The result is a fresh slice with no pointers shared with the input, so
// scaling never aliases catalog entries held by the caller.
func Scale(ingredients []Ingredient, servings int) []Ingredient {
	scaled := make([]Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.Quantity != nil {
			q := *ing.Quantity * float64(servings)
			ing.Quantity = &q
		}
		ing.IsVegan = clonedBool(ing.IsVegan)
		ing.IsVegetarian = clonedBool(ing.IsVegetarian)
		ing.IsLactoseFree = clonedBool(ing.IsLactoseFree)
		scaled = append(scaled, ing)
	}
	return scaled
}

func clonedBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
