package handlers

import (
	"errors"

	"pantry/internal/middleware"
	"pantry/internal/models"
	"pantry/internal/services"
	"pantry/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// RecipeHandler handles recipe generation requests.
type RecipeHandler struct {
	service   *services.RecipeService
	validator *validation.Validator
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service *services.RecipeService, v *validation.Validator) *RecipeHandler {
	return &RecipeHandler{
		service:   service,
		validator: v,
	}
}

// RegisterRoutes registers the recipe routes.
func (h *RecipeHandler) RegisterRoutes(router fiber.Router) {
	recipeRoutes := router.Group("/recipes")
	recipeRoutes.Post("/generate", h.HandleGenerateRecipe)
}

// HandleGenerateRecipe builds a recipe from the caller's pantry. The body is optional.
func (h *RecipeHandler) HandleGenerateRecipe(c *fiber.Ctx) error {
	var req validation.GenerateRecipeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondBodyError(c, err)
		}
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err)
	}

	recipe, err := h.service.Generate(c.UserContext(), middleware.UserID(c), models.RecipeConstraints{
		Allergies: req.Allergies,
		Diets:     req.Diets,
	})
	if err != nil {
		if errors.Is(err, services.ErrRecipeThrottled) {
			return respondError(c, fiber.StatusTooManyRequests, err)
		}
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusOK, recipe)
}
