package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pantry/internal/models"
	"pantry/internal/query"
	"pantry/internal/repositories"
	"pantry/internal/services"
	"pantry/internal/validation"
	"pantry/pkg/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatCompleter is a mock implementation of services.ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openai.ChatCompletionResponse), args.Error(1)
}

const soupArgs = `{"title":"Tomato Soup","servings":2,"ingredients":[{"name":"tomato","quantity":"4"}],"steps":["1. Simmer","2. Blend"],"nutrition":{"calories_per_serving":180}}`

func functionReply(args string) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{Choices: []openai.Choice{{
		Message: openai.Message{Role: "assistant", FunctionCall: &openai.FunctionCall{Name: "create_recipe", Arguments: args}},
	}}}
}

func pantrySpec() query.Spec {
	return query.Spec{Limit: 100, SortBy: query.SortByExpirationDate, SortOrder: query.Asc}
}

func TestRecipeService_Generate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	client := new(MockChatCompleter)
	service := services.NewRecipeService(mockRepo, client, "gpt-4o-mini", 0, validation.New())

	tomato := models.PantryItem{ID: "t", Name: "Tomato", Category: models.CategoryProduce, Quantity: 4, Unit: models.UnitPieces,
		ExpirationDate: models.NewDate(2024, 6, 12)}
	mockRepo.On("List", ctx, "user-1", pantrySpec()).Return(&repositories.ItemPage{Items: []models.PantryItem{tomato}}, nil).Once()
	client.On("CreateChatCompletion", ctx, mock.MatchedBy(func(r openai.ChatCompletionRequest) bool {
		return r.Model == "gpt-4o-mini" && r.MaxTokens == 800 && r.Temperature == 0.7 &&
			len(r.Functions) == 1 && r.Functions[0].Name == "create_recipe" &&
			len(r.Messages) == 2 && strings.Contains(r.Messages[1].Content, `"Tomato"`) &&
			strings.Contains(r.Messages[1].Content, `allergies=["nuts"]`) &&
			strings.Contains(r.Messages[1].Content, `diets=[]`)
	})).Return(functionReply(soupArgs), nil).Once()

	recipe, err := service.Generate(ctx, "user-1", models.RecipeConstraints{Allergies: []string{"nuts"}})

	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", recipe.Title)
	assert.Equal(t, 2, recipe.Servings)
	require.NotNil(t, recipe.Nutrition)
	assert.Equal(t, 180.0, *recipe.Nutrition.CaloriesPerServing)
	mockRepo.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestRecipeService_GenerateDisabled(t *testing.T) {
	service := services.NewRecipeService(new(MockPantryRepository), nil, "gpt-4o-mini", 0, validation.New())
	_, err := service.Generate(context.Background(), "user-1", models.RecipeConstraints{})
	assert.ErrorIs(t, err, services.ErrRecipeGeneratorDisabled)
}

func TestRecipeService_GenerateThrottled(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	client := new(MockChatCompleter)
	service := services.NewRecipeService(mockRepo, client, "gpt-4o-mini", 1, validation.New())

	mockRepo.On("List", ctx, "user-1", pantrySpec()).Return(&repositories.ItemPage{}, nil).Once()
	client.On("CreateChatCompletion", ctx, mock.Anything).Return(functionReply(soupArgs), nil).Once()

	_, err := service.Generate(ctx, "user-1", models.RecipeConstraints{})
	require.NoError(t, err)

	_, err = service.Generate(ctx, "user-1", models.RecipeConstraints{})
	assert.ErrorIs(t, err, services.ErrRecipeThrottled)
	client.AssertNumberOfCalls(t, "CreateChatCompletion", 1)
}

func TestRecipeService_GenerateRejectsInvalidRecipe(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	client := new(MockChatCompleter)
	service := services.NewRecipeService(mockRepo, client, "gpt-4o-mini", 0, validation.New())

	mockRepo.On("List", ctx, "user-1", pantrySpec()).Return(&repositories.ItemPage{}, nil).Once()
	client.On("CreateChatCompletion", ctx, mock.Anything).
		Return(functionReply(`{"title":"","servings":0,"ingredients":[],"steps":[]}`), nil).Once()

	_, err := service.Generate(ctx, "user-1", models.RecipeConstraints{})
	assert.ErrorIs(t, err, services.ErrRecipeInvalid)
}

func TestRecipeService_GenerateUpstreamError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	client := new(MockChatCompleter)
	service := services.NewRecipeService(mockRepo, client, "gpt-4o-mini", 0, validation.New())

	mockRepo.On("List", ctx, "user-1", pantrySpec()).Return(&repositories.ItemPage{}, nil).Once()
	client.On("CreateChatCompletion", ctx, mock.Anything).Return(nil, errors.New("OpenAI API returned status 500")).Once()

	_, err := service.Generate(ctx, "user-1", models.RecipeConstraints{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestParseRecipe(t *testing.T) {
	t.Run("function arguments", func(t *testing.T) {
		recipe, err := services.ParseRecipe(functionReply(soupArgs).Choices[0].Message)
		require.NoError(t, err)
		assert.Len(t, recipe.Ingredients, 1)
		assert.Equal(t, "4", recipe.Ingredients[0].Quantity)
	})

	t.Run("content fallback", func(t *testing.T) {
		recipe, err := services.ParseRecipe(openai.Message{Role: "assistant", Content: soupArgs})
		require.NoError(t, err)
		assert.Equal(t, "Tomato Soup", recipe.Title)
	})

	t.Run("content that is not JSON", func(t *testing.T) {
		_, err := services.ParseRecipe(openai.Message{Role: "assistant", Content: "Here is a lovely soup!"})
		assert.ErrorIs(t, err, services.ErrRecipeInvalid)
	})

	t.Run("empty arguments", func(t *testing.T) {
		_, err := services.ParseRecipe(functionReply("  ").Choices[0].Message)
		assert.ErrorIs(t, err, services.ErrRecipeInvalid)
	})

	t.Run("repaired arguments", func(t *testing.T) {
		malformed := "{title: 'Omelette',\n servings: 1, ingredients: [{name: 'egg', quantity: '2'}], steps: ['1. Whisk', '2. Fry']}"
		recipe, err := services.ParseRecipe(functionReply(malformed).Choices[0].Message)
		require.NoError(t, err)
		assert.Equal(t, "Omelette", recipe.Title)
		assert.Equal(t, []string{"1. Whisk", "2. Fry"}, recipe.Steps)
		assert.Equal(t, "egg", recipe.Ingredients[0].Name)
	})

	t.Run("beyond repair", func(t *testing.T) {
		_, err := services.ParseRecipe(functionReply("{title: ").Choices[0].Message)
		assert.ErrorIs(t, err, services.ErrRecipeInvalid)
	})
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `{"a": "x","b_2":"y"}`, services.RepairJSON("{a: 'x',\nb_2:'y'}"))
	assert.Equal(t, `{"already":"fine"}`, services.RepairJSON(`{"already":"fine"}`))
}
