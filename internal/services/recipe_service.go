package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pantry/internal/models"
	"pantry/internal/query"
	"pantry/internal/repositories"
	"pantry/internal/validation"
	"pantry/pkg/openai"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/time/rate"
)

const (
	recipeFunctionName = "create_recipe"
	recipeTemperature  = 0.7
	recipeMaxTokens    = 800
	recipePantryLimit  = 100
)

var (
	// ErrRecipeGeneratorDisabled means no model API key is configured.
	ErrRecipeGeneratorDisabled = errors.New("recipe generator is not configured")
	// ErrRecipeInvalid means the model answer could not be turned into a valid recipe.
	ErrRecipeInvalid = errors.New("recipe response is invalid")
	// ErrRecipeThrottled means the outbound request budget is exhausted.
	ErrRecipeThrottled = errors.New("recipe generation rate limit exceeded")
)

// ChatCompleter is the model API used to synthesize recipes.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// RecipeService builds recipes from the contents of a user's pantry.
type RecipeService struct {
	repo      repositories.PantryRepository
	client    ChatCompleter
	model     string
	limiter   *rate.Limiter
	validator *validation.Validator
}

// NewRecipeService creates a new RecipeService. A nil client disables generation;
// perMinute <= 0 disables throttling.
func NewRecipeService(repo repositories.PantryRepository, client ChatCompleter, model string, perMinute int, v *validation.Validator) *RecipeService {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return &RecipeService{
		repo:      repo,
		client:    client,
		model:     model,
		limiter:   limiter,
		validator: v,
	}
}

// recipeFunction is the JSON schema the model fills in.
var recipeFunction = openai.FunctionDefinition{
	Name:        recipeFunctionName,
	Description: "Creates a recipe given available ingredients and user constraints. Returns a structured JSON recipe.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":    map[string]interface{}{"type": "string", "description": "Recipe title"},
			"servings": map[string]interface{}{"type": "integer", "minimum": 1},
			"ingredients": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name":     map[string]interface{}{"type": "string"},
						"quantity": map[string]interface{}{"type": "string", "description": "Free text quantity, e.g., '1 cup', '200 g'"},
					},
					"required": []string{"name", "quantity"},
				},
			},
			"steps": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"nutrition": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"calories_per_serving": map[string]interface{}{"type": "number"},
					"protein_g":            map[string]interface{}{"type": "number"},
					"fat_g":                map[string]interface{}{"type": "number"},
					"carbs_g":              map[string]interface{}{"type": "number"},
				},
			},
		},
		"required": []string{"title", "servings", "ingredients", "steps"},
	},
}

// pantryIngredient is the per-item context sent to the model.
type pantryIngredient struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	ExpirationDate string  `json:"expirationDate"`
}

// Generate asks the model for a recipe that uses the user's pantry and respects constraints.
func (s *RecipeService) Generate(ctx context.Context, userID string, constraints models.RecipeConstraints) (*models.Recipe, error) {
	if s.client == nil {
		return nil, ErrRecipeGeneratorDisabled
	}
	if !s.limiter.Allow() {
		return nil, ErrRecipeThrottled
	}

	page, err := s.repo.List(ctx, userID, query.Spec{
		Limit:     recipePantryLimit,
		SortBy:    query.SortByExpirationDate,
		SortOrder: query.Asc,
	})
	if err != nil {
		return nil, err
	}

	messages, err := recipeMessages(page.Items, constraints)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:        s.model,
		Messages:     messages,
		Functions:    []openai.FunctionDefinition{recipeFunction},
		FunctionCall: "auto",
		Temperature:  recipeTemperature,
		MaxTokens:    recipeMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipe: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choice returned", ErrRecipeInvalid)
	}

	recipe, err := ParseRecipe(resp.Choices[0].Message)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(recipe); err != nil {
		log.Warnf("Generated recipe failed validation: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrRecipeInvalid, err)
	}
	return recipe, nil
}

func recipeMessages(items []models.PantryItem, constraints models.RecipeConstraints) ([]openai.Message, error) {
	ingredients := make([]pantryIngredient, 0, len(items))
	for _, item := range items {
		ingredients = append(ingredients, pantryIngredient{
			Name:           item.Name,
			Category:       string(item.Category),
			Quantity:       item.Quantity,
			Unit:           string(item.Unit),
			ExpirationDate: item.ExpirationDate.String(),
		})
	}
	available, err := json.MarshalIndent(ingredients, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pantry contents: %w", err)
	}
	allergies, err := json.Marshal(nonNil(constraints.Allergies))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal allergies: %w", err)
	}
	diets, err := json.Marshal(nonNil(constraints.Diets))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diets: %w", err)
	}

	var b strings.Builder
	b.WriteString("Create a recipe tailored to these user constraints. ")
	fmt.Fprintf(&b, "Constraints: allergies=%s, diets=%s\n", allergies, diets)
	fmt.Fprintf(&b, "Available ingredients:\n%s\n\n", available)
	b.WriteString("Rules:\n")
	b.WriteString("1) Respect diets and allergies absolutely.\n")
	b.WriteString("2) Steps are clear and numbered. Provide reasonable quantities per serving.\n")
	b.WriteString("3) Prefer ingredients that expire soonest. Extra ingredients are allowed but must be marked as to buy.\n")
	fmt.Fprintf(&b, "4) Return the result by calling the function %s with the exact schema provided.", recipeFunctionName)

	return []openai.Message{
		{
			Role:    "system",
			Content: fmt.Sprintf("You are a helpful recipe generator. Return a JSON by calling the function '%s' with the specified JSON schema.", recipeFunctionName),
		},
		{Role: "user", Content: b.String()},
	}, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// ParseRecipe extracts a recipe from a model message: the function call arguments when
// present, otherwise the message content.
func ParseRecipe(msg openai.Message) (*models.Recipe, error) {
	if msg.FunctionCall == nil {
		var recipe models.Recipe
		if err := json.Unmarshal([]byte(msg.Content), &recipe); err != nil {
			return nil, fmt.Errorf("%w: model did not call %s and its reply is not JSON", ErrRecipeInvalid, recipeFunctionName)
		}
		return &recipe, nil
	}

	args := msg.FunctionCall.Arguments
	if strings.TrimSpace(args) == "" {
		return nil, fmt.Errorf("%w: function call contained no arguments", ErrRecipeInvalid)
	}

	var recipe models.Recipe
	if err := json.Unmarshal([]byte(args), &recipe); err != nil {
		if err := json.Unmarshal([]byte(RepairJSON(args)), &recipe); err != nil {
			return nil, fmt.Errorf("%w: failed to parse function arguments: %v", ErrRecipeInvalid, err)
		}
	}
	return &recipe, nil
}

var (
	newlines     = regexp.MustCompile(`\r\n|\n`)
	unquotedKeys = regexp.MustCompile(`([{,])\s*([a-zA-Z0-9_]+)\s*:`)
)

// RepairJSON fixes the common defects of model-written JSON: raw newlines, unquoted keys
// and single-quoted strings.
func RepairJSON(s string) string {
	s = newlines.ReplaceAllString(s, " ")
	s = unquotedKeys.ReplaceAllString(s, `$1"$2":`)
	return strings.ReplaceAll(s, "'", `"`)
}
