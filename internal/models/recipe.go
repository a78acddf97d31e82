package models

// RecipeConstraints are the dietary restrictions a generated recipe must respect.
type RecipeConstraints struct {
	Allergies []string `json:"allergies"`
	Diets     []string `json:"diets"`
}

// RecipeIngredient is one line of a recipe's ingredient list. Quantity is free text
// ("1 cup", "200 g").
type RecipeIngredient struct {
	Name     string `json:"name" validate:"required"`
	Quantity string `json:"quantity" validate:"required"`
}

// RecipeNutrition is the optional per-serving nutrition estimate of a recipe.
type RecipeNutrition struct {
	CaloriesPerServing *float64 `json:"calories_per_serving,omitempty"`
	ProteinG           *float64 `json:"protein_g,omitempty"`
	FatG               *float64 `json:"fat_g,omitempty"`
	CarbsG             *float64 `json:"carbs_g,omitempty"`
}

// Recipe is a recipe synthesized from the pantry contents.
type Recipe struct {
	Title       string             `json:"title" validate:"required"`
	Servings    int                `json:"servings" validate:"gte=1"`
	Ingredients []RecipeIngredient `json:"ingredients" validate:"required,dive"`
	Steps       []string           `json:"steps" validate:"required,min=1"`
	Nutrition   *RecipeNutrition   `json:"nutrition,omitempty"`
}
