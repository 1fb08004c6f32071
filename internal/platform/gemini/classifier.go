package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"prepmate/internal/recipe"
)

// Classifier answers ingredient classification questions with the Gemini
// API. It implements recipe.Classifier, so the store can resolve
// ingredients that are missing from the catalog.
type Classifier struct {
	model *genai.GenerativeModel
}

// NewClassifier creates a new Gemini-backed classifier.
func NewClassifier(ctx context.Context, apiKey string) (*Classifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Classifier{model: client.GenerativeModel("gemini-1.5-flash")}, nil
}

// Classify asks the model whether the named ingredient is vegan,
// vegetarian and lactose free.
func (c *Classifier) Classify(ctx context.Context, name string) (recipe.IngredientInfo, error) {
	prompt := []genai.Part{
		genai.Text(classificationPrompt(name)),
	}

	resp, err := c.model.GenerateContent(ctx, prompt...)
	if err != nil {
		return recipe.IngredientInfo{}, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return recipe.IngredientInfo{}, fmt.Errorf("empty response from Gemini for ingredient classification")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return recipe.IngredientInfo{}, fmt.Errorf("unexpected response format from Gemini for ingredient classification")
	}

	return parseClassification(string(text))
}

// classificationPrompt builds the model prompt for one ingredient name.
func classificationPrompt(name string) string {
	return fmt.Sprintf("Classify the food ingredient %q. Please return a single, clean JSON object with the following keys and data types: 'is_vegan' (boolean), 'is_vegetarian' (boolean) and 'is_lactose_free' (boolean). The JSON response should be clean and not contain any markdown formatting (e.g., ```json).", name)
}

// parseClassification extracts the classification JSON from the model
// response, which might be wrapped in markdown.
func parseClassification(response string) (recipe.IngredientInfo, error) {
	startIndex := strings.Index(response, "{")
	endIndex := strings.LastIndex(response, "}")

	if startIndex == -1 || endIndex == -1 || startIndex > endIndex {
		return recipe.IngredientInfo{}, fmt.Errorf("could not find JSON object in response: %s", response)
	}

	cleanJSON := response[startIndex : endIndex+1]

	var info recipe.IngredientInfo
	if err := json.Unmarshal([]byte(cleanJSON), &info); err != nil {
		return recipe.IngredientInfo{}, fmt.Errorf("failed to unmarshal classification JSON: %w. Raw response: %s", err, cleanJSON)
	}
	return info, nil
}
