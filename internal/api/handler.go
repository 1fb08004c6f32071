package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"prepmate/internal/ingest"
	"prepmate/internal/recipe"
	"prepmate/internal/suggest"
)

// Store defines the persistence operations the handlers need.
type Store interface {
	RetrieveRecipes(ctx context.Context) ([]*recipe.Recipe, error)
	AddIngredientToShoppingList(ctx context.Context, ing recipe.Ingredient) error
	RetrieveShoppingList(ctx context.Context) ([]recipe.Ingredient, error)
	DeleteIngredientFromShoppingList(ctx context.Context, ing recipe.Ingredient) error
	AddUserInfo(ctx context.Context, profile *recipe.UserProfile) error
	RetrieveUserInfo(ctx context.Context) (*recipe.UserProfile, error)
	AddPlannedMeal(ctx context.Context, date, recipeName string) error
	RetrievePlannedMeal(ctx context.Context, date string) (string, error)
}

// Submitter defines the recipe ingestion entry point.
type Submitter interface {
	Submit(ctx context.Context, sub ingest.Submission) (ingest.Result, error)
}

// Handler handles HTTP requests. It serves a single logical user session;
// the suggestion engine it holds is rebuilt on every POST /suggestions.
type Handler struct {
	Store    Store
	Ingestor Submitter
	engine   *suggest.Engine
}

// NewHandler creates a new Handler.
func NewHandler(store Store, ingestor Submitter) *Handler {
	return &Handler{Store: store, Ingestor: ingestor}
}

// SubmitRecipe validates and stores a user-submitted recipe.
func (h *Handler) SubmitRecipe(c *gin.Context) {
	var sub ingest.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("bad submission: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := h.Ingestor.Submit(ctx, sub)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("failed to save recipe: %s", err.Error()))
		return
	}
	if result != ingest.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"result": result.String()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": result.String()})
}

// GetRecipes returns the full recipe catalog.
func (h *Handler) GetRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipes, err := h.Store.RetrieveRecipes(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// ChooseRecipe scales the named recipe's ingredients by the requested
// servings, aggregates them into the shopping list, and records the
// planned meal when a date is given.
func (h *Handler) ChooseRecipe(c *gin.Context) {
	name := c.Param("name")
	date := c.Query("date")

	servings := 1
	if raw := c.Query("servings"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.String(http.StatusBadRequest, "servings must be a positive integer")
			return
		}
		servings = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipes, err := h.Store.RetrieveRecipes(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}

	var chosen *recipe.Recipe
	for _, r := range recipes {
		if strings.EqualFold(r.Name, name) {
			chosen = r
			break
		}
	}
	if chosen == nil {
		c.String(http.StatusNotFound, "Recipe not found")
		return
	}

	for _, ing := range recipe.Scale(chosen.Ingredients, servings) {
		if err := h.Store.AddIngredientToShoppingList(ctx, ing); err != nil {
			c.String(http.StatusInternalServerError, fmt.Sprintf("failed to update shopping list: %s", err.Error()))
			return
		}
	}

	if date != "" {
		if err := h.Store.AddPlannedMeal(ctx, date, chosen.Name); err != nil {
			c.String(http.StatusInternalServerError, fmt.Sprintf("failed to save planned meal: %s", err.Error()))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"recipe": chosen.Name, "servings": servings})
}

// GetShoppingList returns all shopping list entries.
func (h *Handler) GetShoppingList(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.RetrieveShoppingList(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddShoppingListItem merges one ingredient into the shopping list.
func (h *Handler) AddShoppingListItem(c *gin.Context) {
	var ing recipe.Ingredient
	if err := c.ShouldBindJSON(&ing); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("bad ingredient: %s", err.Error()))
		return
	}
	if ing.Name == "" {
		c.String(http.StatusBadRequest, "ingredient name is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.AddIngredientToShoppingList(ctx, ing); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("failed to update shopping list: %s", err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteShoppingListItem deletes every shopping list entry with the given
// name, whatever its unit.
func (h *Handler) DeleteShoppingListItem(c *gin.Context) {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.DeleteIngredientFromShoppingList(ctx, recipe.Ingredient{Name: name}); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("failed to delete from shopping list: %s", err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUser returns the stored user profile, or 404 before the first save.
func (h *Handler) GetUser(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Store.RetrieveUserInfo(ctx)
	if err != nil {
		if errors.Is(err, recipe.ErrNoProfile) {
			c.String(http.StatusNotFound, "No user profile saved yet")
			return
		}
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.JSON(http.StatusOK, profile)
}

// PutUser replaces the stored user profile wholesale.
func (h *Handler) PutUser(c *gin.Context) {
	var profile recipe.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("bad profile: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.AddUserInfo(ctx, &profile); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("failed to save profile: %s", err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPlannedMeal returns the meal planned for a date. An unplanned date
// yields an empty recipe name, not an error.
func (h *Handler) GetPlannedMeal(c *gin.Context) {
	date := c.Param("date")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	name, err := h.Store.RetrievePlannedMeal(ctx, date)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}
	c.JSON(http.StatusOK, recipe.PlannedMeal{DateSaved: date, RecipeName: name})
}

// SuggestionRequest carries the ad-hoc preferences for a suggestion
// session. All fields are optional.
type SuggestionRequest struct {
	MustHave    []string              `json:"must_have"`
	MustNotHave []string              `json:"must_not_have"`
	Calories    *suggest.CalorieRange `json:"calories"`
	MaxPrepTime *int                  `json:"max_prep_time"`
}

// StartSuggestions builds a fresh suggestion engine from the current
// catalog and profile, applies the request's preferences, and returns the
// first batch.
func (h *Handler) StartSuggestions(c *gin.Context) {
	// An absent body means no preferences. Binding unconditionally also
	// covers chunked requests, which carry no Content-Length.
	var req SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.String(http.StatusBadRequest, fmt.Sprintf("bad preferences: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Store.RetrieveUserInfo(ctx)
	if err != nil {
		if !errors.Is(err, recipe.ErrNoProfile) {
			c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
			return
		}
		// First run, no restrictions saved yet.
		log.Printf("No user profile saved, suggesting from the full catalog")
		profile = &recipe.UserProfile{}
	}

	catalog, err := h.Store.RetrieveRecipes(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
		return
	}

	h.engine = suggest.NewEngine(profile, catalog)
	if len(req.MustHave) > 0 || len(req.MustNotHave) > 0 || req.Calories != nil || req.MaxPrepTime != nil {
		h.engine.ApplyPreferences(req.MustHave, req.MustNotHave, req.Calories, req.MaxPrepTime)
	}
	c.JSON(http.StatusOK, h.engine.NextBatch())
}

// NextSuggestions returns the next batch from the current suggestion
// session. The batch is empty once the filtered pool has run dry.
func (h *Handler) NextSuggestions(c *gin.Context) {
	if h.engine == nil {
		c.String(http.StatusConflict, "No suggestion session; POST /suggestions first")
		return
	}
	c.JSON(http.StatusOK, h.engine.NextBatch())
}
