package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"prepmate/internal/api"
	"prepmate/internal/ingest"
	"prepmate/internal/platform/gemini"
	"prepmate/internal/recipe"
)

// Config represents the application configuration.
type Config struct {
	GeminiAPIKey    string `json:"gemini_api_key"`
	DatabasePath    string `json:"database_path"`
	InstructionsDir string `json:"instructions_dir"`
	CatalogCSV      string `json:"catalog_csv"`
	ListenAddr      string `json:"listen_addr"`
}

func main() {
	ctx := context.Background()

	// Read configuration from config.json, with environment overrides.
	configData, err := os.ReadFile("config.json")
	if err != nil {
		panic(fmt.Errorf("failed to read config.json: %w", err))
	}

	var config Config
	if err := json.Unmarshal(configData, &config); err != nil {
		panic(fmt.Errorf("failed to unmarshal config.json: %w", err))
	}

	// A .env file is optional.
	_ = godotenv.Load()
	config.GeminiAPIKey = getEnvOrDefault("PREPMATE_GEMINI_API_KEY", config.GeminiAPIKey)
	config.DatabasePath = getEnvOrDefault("PREPMATE_DB", config.DatabasePath)
	config.InstructionsDir = getEnvOrDefault("PREPMATE_INSTRUCTIONS_DIR", config.InstructionsDir)
	config.CatalogCSV = getEnvOrDefault("PREPMATE_CATALOG_CSV", config.CatalogCSV)
	config.ListenAddr = getEnvOrDefault("PREPMATE_LISTEN_ADDR", config.ListenAddr)
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}

	instructions, err := recipe.NewInstructionDir(config.InstructionsDir)
	if err != nil {
		panic(fmt.Errorf("error creating instructions store: %w", err))
	}

	// Uncataloged ingredients are classified through Gemini. Without an
	// API key, lookups of unknown ingredients fail with ErrNoClassifier.
	var classifier recipe.Classifier
	if config.GeminiAPIKey != "" {
		geminiClassifier, err := gemini.NewClassifier(ctx, config.GeminiAPIKey)
		if err != nil {
			panic(fmt.Errorf("error creating gemini classifier: %w", err))
		}
		classifier = geminiClassifier
	} else {
		log.Printf("No Gemini API key configured, unknown ingredients cannot be classified")
	}

	store, err := recipe.NewSQLiteStore(config.DatabasePath, classifier, instructions)
	if err != nil {
		panic(fmt.Errorf("error creating sqlite store: %w", err))
	}
	defer store.Close()

	// Seed the ingredient catalog when a CSV is configured.
	if config.CatalogCSV != "" {
		f, err := os.Open(config.CatalogCSV)
		if err != nil {
			panic(fmt.Errorf("failed to open catalog csv: %w", err))
		}
		if err := store.ImportCatalog(ctx, f); err != nil {
			f.Close()
			panic(fmt.Errorf("failed to import catalog: %w", err))
		}
		f.Close()
		log.Printf("Imported ingredient catalog from %s", config.CatalogCSV)
	}

	ingestor := ingest.NewIngestor(store, instructions)
	handler := api.NewHandler(store, ingestor)

	r := gin.Default()

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8081"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.POST("/recipes", handler.SubmitRecipe)
	r.GET("/recipes", handler.GetRecipes)
	r.POST("/recipes/:name/choose", handler.ChooseRecipe)
	r.GET("/shopping-list", handler.GetShoppingList)
	r.POST("/shopping-list", handler.AddShoppingListItem)
	r.DELETE("/shopping-list/:name", handler.DeleteShoppingListItem)
	r.GET("/user", handler.GetUser)
	r.PUT("/user", handler.PutUser)
	r.GET("/meal-plans/:date", handler.GetPlannedMeal)
	r.POST("/suggestions", handler.StartSuggestions)
	r.GET("/suggestions/next", handler.NextSuggestions)
	r.Run(config.ListenAddr)
}

// getEnvOrDefault returns the environment variable value or the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
