package validation

import (
	"strconv"

	"pantry/internal/models"
	"pantry/internal/query"
)

// CreateItemRequest is the body of POST /pantry.
type CreateItemRequest struct {
	Name           string                `json:"name" validate:"required,max=255"`
	Brand          *string               `json:"brand" validate:"omitnil,max=255"`
	Quantity       float64               `json:"quantity" validate:"gt=0"`
	Unit           models.Unit           `json:"unit" validate:"required,pantry_unit"`
	Category       models.Category       `json:"category" validate:"required,pantry_category"`
	ExpirationDate string                `json:"expirationDate" validate:"required,datetime=2006-01-02"`
	NutritionInfo  *models.NutritionInfo `json:"nutritionInfo"`
	Barcode        *string               `json:"barcode" validate:"omitnil,max=50"`
	Images         []string              `json:"images"`
	Notes          *string               `json:"notes"`
}

// UpdateItemRequest is the body of PUT /pantry/:id. Absent fields are left untouched.
type UpdateItemRequest struct {
	Name           *string               `json:"name" validate:"omitnil,min=1,max=255"`
	Brand          *string               `json:"brand" validate:"omitnil,max=255"`
	Quantity       *float64              `json:"quantity" validate:"omitnil,gt=0"`
	Unit           *models.Unit          `json:"unit" validate:"omitnil,pantry_unit"`
	Category       *models.Category      `json:"category" validate:"omitnil,pantry_category"`
	ExpirationDate *string               `json:"expirationDate" validate:"omitnil,datetime=2006-01-02"`
	NutritionInfo  *models.NutritionInfo `json:"nutritionInfo"`
	Barcode        *string               `json:"barcode" validate:"omitnil,max=50"`
	Images         *[]string             `json:"images"`
	Notes          *string               `json:"notes"`
}

// ListQuery is the raw query string of GET /pantry. Every field arrives as text and is
// coerced by ListSpec.
type ListQuery struct {
	Category     string `query:"category" validate:"omitempty,pantry_category"`
	ExpiringSoon string `query:"expiringSoon"`
	Expired      string `query:"expired"`
	Search       string `query:"search"`
	Page         string `query:"page"`
	Limit        string `query:"limit"`
	SortBy       string `query:"sortBy" validate:"omitempty,oneof=name expirationDate dateAdded"`
	SortOrder    string `query:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// GenerateRecipeRequest is the body of POST /recipes/generate.
type GenerateRecipeRequest struct {
	Allergies []string `json:"allergies" validate:"dive,required,max=100"`
	Diets     []string `json:"diets" validate:"dive,required,max=100"`
}

// CreateItem validates req and converts it to the repository input.
func (v *Validator) CreateItem(req CreateItemRequest) (models.NewPantryItem, error) {
	if err := v.Struct(req); err != nil {
		return models.NewPantryItem{}, err
	}
	expires, err := models.ParseDate(req.ExpirationDate)
	if err != nil {
		return models.NewPantryItem{}, Errors{{Field: "expirationDate", Message: err.Error()}}
	}
	return models.NewPantryItem{
		Name:           req.Name,
		Brand:          req.Brand,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		Category:       req.Category,
		ExpirationDate: expires,
		NutritionInfo:  req.NutritionInfo,
		Barcode:        req.Barcode,
		Images:         req.Images,
		Notes:          req.Notes,
	}, nil
}

// UpdateItem validates req and converts it to a patch.
func (v *Validator) UpdateItem(req UpdateItemRequest) (models.PantryItemPatch, error) {
	if err := v.Struct(req); err != nil {
		return models.PantryItemPatch{}, err
	}
	patch := models.PantryItemPatch{
		Name:          req.Name,
		Brand:         req.Brand,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		Category:      req.Category,
		NutritionInfo: req.NutritionInfo,
		Barcode:       req.Barcode,
		Images:        req.Images,
		Notes:         req.Notes,
	}
	if req.ExpirationDate != nil {
		expires, err := models.ParseDate(*req.ExpirationDate)
		if err != nil {
			return models.PantryItemPatch{}, Errors{{Field: "expirationDate", Message: err.Error()}}
		}
		patch.ExpirationDate = &expires
	}
	return patch, nil
}

// ListSpec validates q and coerces it into a filter spec. Flags are true only for the
// literal string "true".
func (v *Validator) ListSpec(q ListQuery) (query.Spec, error) {
	var errs Errors
	if err := v.Struct(q); err != nil {
		fieldErrs, ok := err.(Errors)
		if !ok {
			return query.Spec{}, err
		}
		errs = append(errs, fieldErrs...)
	}

	spec := query.Spec{
		ExpiringSoon: q.ExpiringSoon == "true",
		Expired:      q.Expired == "true",
		Search:       q.Search,
		SortBy:       query.SortField(q.SortBy),
		SortOrder:    query.SortOrder(q.SortOrder),
	}
	if q.Category != "" {
		category := models.Category(q.Category)
		spec.Category = &category
	}

	var fe *FieldError
	if spec.Page, fe = positiveInt("page", q.Page); fe != nil {
		errs = append(errs, *fe)
	}
	if spec.Limit, fe = positiveInt("limit", q.Limit); fe != nil {
		errs = append(errs, *fe)
	}

	if len(errs) > 0 {
		return query.Spec{}, errs
	}
	return spec.WithDefaults(), nil
}

// positiveInt parses an optional positive integer; empty yields 0 (unset).
func positiveInt(field, raw string) (int, *FieldError) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{Field: field, Message: "must be an integer"}
	}
	if n < 1 {
		return 0, &FieldError{Field: field, Message: "must be at least 1"}
	}
	return n, nil
}

// ExpiringDays parses the days parameter of GET /pantry/expiring. Missing, non-numeric
// or non-positive values fall back to the default horizon.
func ExpiringDays(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return query.ExpiringSoonDays
	}
	return n
}
