package recipe

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNoProfile is returned when no user profile has been saved yet. The
// caller is expected to seed a default profile on first run.
var ErrNoProfile = errors.New("no user profile stored")

// ErrNoClassifier is returned when an ingredient is missing from the
// catalog and no Classifier was configured to resolve it.
var ErrNoClassifier = errors.New("no ingredient classifier configured")

// Classifier resolves the classification of an ingredient name that is
// missing from the catalog. The store persists the answer before
// returning it, so each name is resolved at most once.
type Classifier interface {
	Classify(ctx context.Context, name string) (IngredientInfo, error)
}

// Store defines the interface for recipe, shopping list, user profile and
// meal plan persistence.
type Store interface {
	AddRecipe(ctx context.Context, r *Recipe) error
	RetrieveRecipes(ctx context.Context) ([]*Recipe, error)
	AddIngredientToShoppingList(ctx context.Context, ing Ingredient) error
	RetrieveShoppingList(ctx context.Context) ([]Ingredient, error)
	DeleteIngredientFromShoppingList(ctx context.Context, ing Ingredient) error
	AddUserInfo(ctx context.Context, profile *UserProfile) error
	RetrieveUserInfo(ctx context.Context) (*UserProfile, error)
	AddPlannedMeal(ctx context.Context, date, recipeName string) error
	RetrievePlannedMeal(ctx context.Context, date string) (string, error)
	GetIngredientInfo(ctx context.Context, name string) (IngredientInfo, error)
	AddIngredientInfo(ctx context.Context, name string, info IngredientInfo) error
	ImportCatalog(ctx context.Context, r io.Reader) error
}

// SQLiteStore implements the Store interface over an embedded SQLite
// database. It holds a single shared connection handle and assumes one
// logical user at a time; concurrent callers need an external lock.
type SQLiteStore struct {
	db           *sqlx.DB
	classifier   Classifier
	instructions InstructionStore
}

// NewSQLiteStore opens (or creates) the database at the given path and
// creates the schema if it does not exist. The classifier and instruction
// store are optional; a nil classifier makes unknown catalog lookups fail
// with ErrNoClassifier, and a nil instruction store leaves retrieved
// recipes without instructions.
func NewSQLiteStore(path string, classifier Classifier, instructions InstructionStore) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single logical session; a second pooled connection would also see a
	// separate database when path is ":memory:".
	db.SetMaxOpenConns(1)

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS recipes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			calories INTEGER,
			prep_time INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recipe_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			quantity REAL,
			unit TEXT,
			FOREIGN KEY (recipe_id) REFERENCES recipes (id)
		)`,
		`CREATE TABLE IF NOT EXISTS shopping_list (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			quantity REAL,
			unit TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS allergies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			allergy TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS dietary_restrictions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			is_vegan BOOLEAN,
			is_vegetarian BOOLEAN,
			is_lactose_intolerant BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS meal_plans (
			date_saved TEXT,
			recipe_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ingredient_catalog (
			food_item TEXT PRIMARY KEY COLLATE NOCASE,
			is_vegan BOOLEAN NOT NULL,
			is_vegetarian BOOLEAN NOT NULL,
			is_lactose_free BOOLEAN NOT NULL
		)`,
	}
	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, classifier: classifier, instructions: instructions}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddRecipe inserts the recipe row and one ingredient row per ingredient,
// wrapped in a single transaction so a failure never leaves orphaned
// ingredient rows.
func (s *SQLiteStore) AddRecipe(ctx context.Context, r *Recipe) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO recipes (name, calories, prep_time) VALUES (?, ?, ?)",
		r.Name, r.Calories, r.PrepTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	recipeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get recipe id: %w", err)
	}

	for _, ing := range r.Ingredients {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO ingredients (recipe_id, name, quantity, unit) VALUES (?, ?, ?, ?)",
			recipeID, ing.Name, ing.Quantity, ing.Unit,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

// RetrieveRecipes returns every stored recipe with its ingredients in
// insertion order. Each ingredient's classification is resolved through
// the catalog, and instructions are filled in when an instruction store
// is configured.
func (s *SQLiteStore) RetrieveRecipes(ctx context.Context) ([]*Recipe, error) {
	type recipeRow struct {
		ID       int64  `db:"id"`
		Name     string `db:"name"`
		Calories *int   `db:"calories"`
		PrepTime *int   `db:"prep_time"`
	}
	var rows []recipeRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, name, calories, prep_time FROM recipes ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}

	recipes := make([]*Recipe, 0, len(rows))
	for _, row := range rows {
		r := &Recipe{Name: row.Name, Calories: row.Calories, PrepTime: row.PrepTime}

		var ings []Ingredient
		err := s.db.SelectContext(ctx, &ings,
			"SELECT name, quantity, unit FROM ingredients WHERE recipe_id = ? ORDER BY id", row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query ingredients: %w", err)
		}

		for i := range ings {
			info, err := s.GetIngredientInfo(ctx, ings[i].Name)
			if err != nil {
				return nil, err
			}
			vegan, vegetarian, lactoseFree := info.IsVegan, info.IsVegetarian, info.IsLactoseFree
			ings[i].IsVegan = &vegan
			ings[i].IsVegetarian = &vegetarian
			ings[i].IsLactoseFree = &lactoseFree
		}
		r.Ingredients = ings

		if s.instructions != nil {
			lines, err := s.instructions.Read(r.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to read instructions: %w", err)
			}
			r.Instructions = lines
		}

		recipes = append(recipes, r)
	}
	return recipes, nil
}

// AddIngredientToShoppingList merges the ingredient into the shopping
// list. An existing entry with the same name and unit has its quantity
// incremented in place (unknown quantities count as zero); otherwise a
// new row is inserted.
func (s *SQLiteStore) AddIngredientToShoppingList(ctx context.Context, ing Ingredient) error {
	var existing struct {
		ID       int64   `db:"id"`
		Quantity float64 `db:"quantity"`
	}
	err := s.db.GetContext(ctx, &existing,
		"SELECT id, COALESCE(quantity, 0) AS quantity FROM shopping_list WHERE name = ? AND unit = ? ORDER BY id LIMIT 1",
		ing.Name, ing.Unit,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to query shopping list: %w", err)
	}

	if err == nil {
		added := 0.0
		if ing.Quantity != nil {
			added = *ing.Quantity
		}
		_, err := s.db.ExecContext(ctx,
			"UPDATE shopping_list SET quantity = ? WHERE id = ?",
			existing.Quantity+added, existing.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update shopping list entry: %w", err)
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO shopping_list (name, quantity, unit) VALUES (?, ?, ?)",
		ing.Name, ing.Quantity, ing.Unit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shopping list entry: %w", err)
	}
	return nil
}

// RetrieveShoppingList returns all shopping list entries in insertion order.
func (s *SQLiteStore) RetrieveShoppingList(ctx context.Context) ([]Ingredient, error) {
	var list []Ingredient
	err := s.db.SelectContext(ctx, &list, "SELECT name, quantity, unit FROM shopping_list ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list: %w", err)
	}
	return list, nil
}

// DeleteIngredientFromShoppingList deletes every shopping list row whose
// name matches, irrespective of unit. Callers needing a precise
// (name, unit) delete must account for this breadth.
func (s *SQLiteStore) DeleteIngredientFromShoppingList(ctx context.Context, ing Ingredient) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM shopping_list WHERE name = ?", ing.Name)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list entry: %w", err)
	}
	return nil
}

// AddUserInfo replaces the stored profile wholesale: all allergy rows and
// the single dietary restriction row are deleted and re-inserted in one
// transaction. There is no partial update.
func (s *SQLiteStore) AddUserInfo(ctx context.Context, profile *UserProfile) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM allergies"); err != nil {
		return fmt.Errorf("failed to clear allergies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM dietary_restrictions"); err != nil {
		return fmt.Errorf("failed to clear dietary restrictions: %w", err)
	}

	for _, allergy := range profile.Allergies {
		if _, err := tx.ExecContext(ctx, "INSERT INTO allergies (allergy) VALUES (?)", allergy); err != nil {
			return fmt.Errorf("failed to insert allergy: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO dietary_restrictions (is_vegan, is_vegetarian, is_lactose_intolerant) VALUES (?, ?, ?)",
		profile.IsVegan, profile.IsVegetarian, profile.IsLactoseIntolerant,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dietary restrictions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user info: %w", err)
	}
	return nil
}

// RetrieveUserInfo returns the stored profile, or ErrNoProfile when no
// dietary restriction row exists yet.
func (s *SQLiteStore) RetrieveUserInfo(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	err := s.db.GetContext(ctx, &profile,
		"SELECT is_vegan, is_vegetarian, is_lactose_intolerant FROM dietary_restrictions LIMIT 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("failed to query dietary restrictions: %w", err)
	}

	if err := s.db.SelectContext(ctx, &profile.Allergies, "SELECT allergy FROM allergies ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query allergies: %w", err)
	}
	return &profile, nil
}

// AddPlannedMeal records the chosen recipe for a date. Inserts are never
// deduplicated; a date can accumulate multiple rows.
func (s *SQLiteStore) AddPlannedMeal(ctx context.Context, date, recipeName string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meal_plans (date_saved, recipe_name) VALUES (?, ?)", date, recipeName)
	if err != nil {
		return fmt.Errorf("failed to insert planned meal: %w", err)
	}
	return nil
}

// RetrievePlannedMeal returns the first recipe name planned for the date,
// or an empty string when nothing is planned.
func (s *SQLiteStore) RetrievePlannedMeal(ctx context.Context, date string) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name,
		"SELECT recipe_name FROM meal_plans WHERE date_saved = ? ORDER BY rowid LIMIT 1", date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query planned meal: %w", err)
	}
	return name, nil
}

// GetIngredientInfo looks up the classification for an ingredient name,
// case-insensitively. On a miss the configured classifier is asked and
// the answer is persisted before returning; without a classifier the
// lookup fails with ErrNoClassifier.
func (s *SQLiteStore) GetIngredientInfo(ctx context.Context, name string) (IngredientInfo, error) {
	var info IngredientInfo
	err := s.db.GetContext(ctx, &info,
		"SELECT is_vegan, is_vegetarian, is_lactose_free FROM ingredient_catalog WHERE food_item = ?", name)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return IngredientInfo{}, fmt.Errorf("failed to query ingredient catalog: %w", err)
	}

	if s.classifier == nil {
		return IngredientInfo{}, fmt.Errorf("%q missing from catalog: %w", name, ErrNoClassifier)
	}
	info, err = s.classifier.Classify(ctx, name)
	if err != nil {
		return IngredientInfo{}, fmt.Errorf("failed to classify %q: %w", name, err)
	}
	if err := s.AddIngredientInfo(ctx, name, info); err != nil {
		return IngredientInfo{}, err
	}
	return info, nil
}

// AddIngredientInfo stores the classification for an ingredient name,
// overwriting any prior entry for that name.
func (s *SQLiteStore) AddIngredientInfo(ctx context.Context, name string, info IngredientInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingredient_catalog (food_item, is_vegan, is_vegetarian, is_lactose_free)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (food_item) DO UPDATE SET
			is_vegan = excluded.is_vegan,
			is_vegetarian = excluded.is_vegetarian,
			is_lactose_free = excluded.is_lactose_free`,
		name, info.IsVegan, info.IsVegetarian, info.IsLactoseFree,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ingredient info: %w", err)
	}
	return nil
}

// ImportCatalog replaces the entire ingredient catalog from a CSV
// resource. The header row must contain FoodItem, Vegan, Vegetarian and
// LactoseFree columns; any other columns are ignored. The truncate and
// the load happen in one transaction.
func (s *SQLiteStore) ImportCatalog(ctx context.Context, r io.Reader) error {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read catalog header: %w", err)
	}

	cols := map[string]int{}
	for i, col := range header {
		cols[strings.TrimSpace(col)] = i
	}
	for _, required := range []string{"FoodItem", "Vegan", "Vegetarian", "LactoseFree"} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("catalog is missing the %s column", required)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ingredient_catalog"); err != nil {
		return fmt.Errorf("failed to clear ingredient catalog: %w", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read catalog row: %w", err)
		}

		vegan, err := parseFlag(record[cols["Vegan"]])
		if err != nil {
			return fmt.Errorf("bad Vegan value for %q: %w", record[cols["FoodItem"]], err)
		}
		vegetarian, err := parseFlag(record[cols["Vegetarian"]])
		if err != nil {
			return fmt.Errorf("bad Vegetarian value for %q: %w", record[cols["FoodItem"]], err)
		}
		lactoseFree, err := parseFlag(record[cols["LactoseFree"]])
		if err != nil {
			return fmt.Errorf("bad LactoseFree value for %q: %w", record[cols["FoodItem"]], err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO ingredient_catalog (food_item, is_vegan, is_vegetarian, is_lactose_free)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (food_item) DO UPDATE SET
				is_vegan = excluded.is_vegan,
				is_vegetarian = excluded.is_vegetarian,
				is_lactose_free = excluded.is_lactose_free`,
			record[cols["FoodItem"]], vegan, vegetarian, lactoseFree,
		)
		if err != nil {
			return fmt.Errorf("failed to insert catalog row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog import: %w", err)
	}
	return nil
}

// parseFlag accepts the boolean spellings that appear in catalog files
// (1/0, true/false, TRUE/FALSE).
func parseFlag(value string) (bool, error) {
	return strconv.ParseBool(strings.ToLower(strings.TrimSpace(value)))
}
