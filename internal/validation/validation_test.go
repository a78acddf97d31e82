package validation_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pantry/internal/models"
	"pantry/internal/query"
	"pantry/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validCreate() validation.CreateItemRequest {
	return validation.CreateItemRequest{
		Name:           "Bananas",
		Quantity:       6,
		Unit:           models.UnitPieces,
		Category:       models.CategoryProduce,
		ExpirationDate: "2024-06-10",
	}
}

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	require.Error(t, err)
	verrs, ok := err.(validation.Errors)
	require.True(t, ok, "expected validation.Errors, got %T", err)
	return verrs
}

func TestCreateItemValid(t *testing.T) {
	v := validation.New()
	req := validCreate()
	req.Brand = strPtr("Chiquita")
	req.Images = []string{"https://img/1.jpg"}

	item, err := v.CreateItem(req)
	require.NoError(t, err)
	assert.Equal(t, "Bananas", item.Name)
	assert.Equal(t, models.NewDate(2024, 6, 10), item.ExpirationDate)
	assert.Equal(t, "Chiquita", *item.Brand)
}

func TestCreateItemRejectsEmptyName(t *testing.T) {
	v := validation.New()
	req := validCreate()
	req.Name = ""

	_, err := v.CreateItem(req)
	verrs := fieldErrors(t, err)
	assert.True(t, verrs.HasField("name"))
	assert.Contains(t, err.Error(), "Validation error: name")
}

func TestCreateItemFieldRules(t *testing.T) {
	v := validation.New()
	tests := []struct {
		name   string
		mutate func(*validation.CreateItemRequest)
		field  string
	}{
		{"long name", func(r *validation.CreateItemRequest) { r.Name = strings.Repeat("a", 256) }, "name"},
		{"zero quantity", func(r *validation.CreateItemRequest) { r.Quantity = 0 }, "quantity"},
		{"negative quantity", func(r *validation.CreateItemRequest) { r.Quantity = -1 }, "quantity"},
		{"unknown unit", func(r *validation.CreateItemRequest) { r.Unit = "lbs" }, "unit"},
		{"missing unit", func(r *validation.CreateItemRequest) { r.Unit = "" }, "unit"},
		{"unknown category", func(r *validation.CreateItemRequest) { r.Category = "toys" }, "category"},
		{"bad date", func(r *validation.CreateItemRequest) { r.ExpirationDate = "10-06-2024" }, "expirationDate"},
		{"missing date", func(r *validation.CreateItemRequest) { r.ExpirationDate = "" }, "expirationDate"},
		{"long brand", func(r *validation.CreateItemRequest) { r.Brand = strPtr(strings.Repeat("b", 256)) }, "brand"},
		{"long barcode", func(r *validation.CreateItemRequest) { r.Barcode = strPtr(strings.Repeat("1", 51)) }, "barcode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			_, err := v.CreateItem(req)
			verrs := fieldErrors(t, err)
			assert.True(t, verrs.HasField(tt.field), "errors: %v", verrs)
		})
	}
}

func TestCreateItemUnitMessageListsValues(t *testing.T) {
	v := validation.New()
	req := validCreate()
	req.Unit = "lbs"

	_, err := v.CreateItem(req)
	verrs := fieldErrors(t, err)
	require.Len(t, verrs, 1)
	assert.Contains(t, verrs[0].Message, "pounds")
	assert.Contains(t, verrs[0].Message, "teaspoons")
}

func TestUpdateItem(t *testing.T) {
	v := validation.New()

	patch, err := v.UpdateItem(validation.UpdateItemRequest{})
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())

	qty := 2.5
	date := "2024-07-01"
	images := []string{}
	patch, err = v.UpdateItem(validation.UpdateItemRequest{Quantity: &qty, ExpirationDate: &date, Images: &images})
	require.NoError(t, err)
	assert.Equal(t, 2.5, *patch.Quantity)
	assert.Equal(t, "2024-07-01", patch.ExpirationDate.String())
	assert.NotNil(t, patch.Images)
	assert.Nil(t, patch.Name)

	_, err = v.UpdateItem(validation.UpdateItemRequest{Name: strPtr("")})
	assert.True(t, fieldErrors(t, err).HasField("name"))

	zero := 0.0
	_, err = v.UpdateItem(validation.UpdateItemRequest{Quantity: &zero})
	assert.True(t, fieldErrors(t, err).HasField("quantity"))

	unit := models.Unit("lbs")
	_, err = v.UpdateItem(validation.UpdateItemRequest{Unit: &unit})
	assert.True(t, fieldErrors(t, err).HasField("unit"))

	bad := "tomorrow"
	_, err = v.UpdateItem(validation.UpdateItemRequest{ExpirationDate: &bad})
	assert.True(t, fieldErrors(t, err).HasField("expirationDate"))
}

func TestListSpec(t *testing.T) {
	v := validation.New()

	spec, err := v.ListSpec(validation.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, query.Spec{}.WithDefaults(), spec)

	spec, err = v.ListSpec(validation.ListQuery{
		Category:     "dairy",
		ExpiringSoon: "true",
		Expired:      "yes",
		Search:       "milk",
		Page:         "2",
		Limit:        "50",
		SortBy:       "name",
		SortOrder:    "asc",
	})
	require.NoError(t, err)
	require.NotNil(t, spec.Category)
	assert.Equal(t, models.CategoryDairy, *spec.Category)
	assert.True(t, spec.ExpiringSoon)
	assert.False(t, spec.Expired)
	assert.Equal(t, "milk", spec.Search)
	assert.Equal(t, 2, spec.Page)
	assert.Equal(t, 50, spec.Limit)
	assert.Equal(t, query.SortByName, spec.SortBy)
	assert.Equal(t, query.Asc, spec.SortOrder)
}

func TestListSpecRejects(t *testing.T) {
	v := validation.New()
	tests := []struct {
		q     validation.ListQuery
		field string
	}{
		{validation.ListQuery{Category: "toys"}, "category"},
		{validation.ListQuery{Page: "0"}, "page"},
		{validation.ListQuery{Page: "two"}, "page"},
		{validation.ListQuery{Limit: "-5"}, "limit"},
		{validation.ListQuery{SortBy: "price"}, "sortBy"},
		{validation.ListQuery{SortOrder: "ascending"}, "sortOrder"},
	}
	for _, tt := range tests {
		_, err := v.ListSpec(tt.q)
		assert.True(t, fieldErrors(t, err).HasField(tt.field), "query %+v", tt.q)
	}

	_, err := v.ListSpec(validation.ListQuery{Page: "0", SortBy: "price"})
	verrs := fieldErrors(t, err)
	assert.True(t, verrs.HasField("page"))
	assert.True(t, verrs.HasField("sortBy"))
}

func TestExpiringDays(t *testing.T) {
	assert.Equal(t, 7, validation.ExpiringDays(""))
	assert.Equal(t, 7, validation.ExpiringDays("abc"))
	assert.Equal(t, 7, validation.ExpiringDays("0"))
	assert.Equal(t, 7, validation.ExpiringDays("-3"))
	assert.Equal(t, 10, validation.ExpiringDays("10"))
}

func TestRecipeRules(t *testing.T) {
	v := validation.New()

	valid := models.Recipe{
		Title:       "Soup",
		Servings:    2,
		Ingredients: []models.RecipeIngredient{{Name: "tomato", Quantity: "4"}},
		Steps:       []string{"Simmer"},
	}
	assert.NoError(t, v.Struct(valid))

	invalid := valid
	invalid.Steps = []string{}
	invalid.Ingredients = []models.RecipeIngredient{{Name: "salt"}}
	verrs := fieldErrors(t, v.Struct(invalid))
	assert.True(t, verrs.HasField("steps"))
	assert.True(t, verrs.HasField("ingredients[0].quantity"))

	assert.NoError(t, v.Struct(validation.GenerateRecipeRequest{}))
	verrs = fieldErrors(t, v.Struct(validation.GenerateRecipeRequest{Allergies: []string{"nuts", ""}}))
	assert.True(t, verrs.HasField("allergies[1]"))
}

func TestDecodeErrors(t *testing.T) {
	var req validation.CreateItemRequest
	err := json.Unmarshal([]byte(`{"quantity":"5","images":"a.jpg"}`), &req)
	verrs, ok := validation.DecodeErrors(err)
	require.True(t, ok)
	require.Len(t, verrs, 1)
	assert.Equal(t, "quantity", verrs[0].Field)
	assert.Equal(t, "must be a number, received string", verrs[0].Message)

	err = json.Unmarshal([]byte(`{"images":"a.jpg"}`), &req)
	verrs, ok = validation.DecodeErrors(err)
	require.True(t, ok)
	assert.Equal(t, "must be an array, received string", verrs[0].Message)

	_, ok = validation.DecodeErrors(json.Unmarshal([]byte(`{broken`), &req))
	assert.False(t, ok)
	_, ok = validation.DecodeErrors(json.Unmarshal([]byte(`[1]`), &req))
	assert.False(t, ok)
	_, ok = validation.DecodeErrors(errors.New("unexpected EOF"))
	assert.False(t, ok)
}
