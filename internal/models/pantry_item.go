package models

import "time"

// NutritionInfo is the optional per-serving nutrition record attached to an item.
// It is stored as an opaque blob; none of its fields are required.
type NutritionInfo struct {
	Calories      *float64 `json:"calories,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`       // grams
	Carbohydrates *float64 `json:"carbohydrates,omitempty"` // grams
	Fat           *float64 `json:"fat,omitempty"`           // grams
	Fiber         *float64 `json:"fiber,omitempty"`         // grams
	Sugar         *float64 `json:"sugar,omitempty"`         // grams
	Sodium        *float64 `json:"sodium,omitempty"`        // milligrams
	ServingSize   *string  `json:"servingSize,omitempty"`
	ServingUnit   *string  `json:"servingUnit,omitempty"`
}

// PantryItem represents a single tracked food entry owned by one user.
type PantryItem struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Name           string         `json:"name"`
	Brand          *string        `json:"brand,omitempty"`
	Quantity       float64        `json:"quantity"`
	Unit           Unit           `json:"unit"`
	Category       Category       `json:"category"`
	ExpirationDate Date           `json:"expirationDate"`
	DateAdded      time.Time      `json:"dateAdded"`
	DateUpdated    time.Time      `json:"dateUpdated"`
	NutritionInfo  *NutritionInfo `json:"nutritionInfo,omitempty"`
	Barcode        *string        `json:"barcode,omitempty"`
	Images         []string       `json:"images"`
	Notes          *string        `json:"notes,omitempty"`
}

// NewPantryItem holds the caller-supplied fields of an item about to be created.
// The store assigns ID, DateAdded and DateUpdated.
type NewPantryItem struct {
	Name           string
	Brand          *string
	Quantity       float64
	Unit           Unit
	Category       Category
	ExpirationDate Date
	NutritionInfo  *NutritionInfo
	Barcode        *string
	Images         []string
	Notes          *string
}

// PantryItemPatch is a partial update. A nil field is left untouched; DateUpdated is
// refreshed on every applied patch, even an empty one.
type PantryItemPatch struct {
	Name           *string
	Brand          *string
	Quantity       *float64
	Unit           *Unit
	Category       *Category
	ExpirationDate *Date
	NutritionInfo  *NutritionInfo
	Barcode        *string
	Images         *[]string
	Notes          *string
}

// IsEmpty reports whether the patch carries no field changes.
func (p PantryItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Brand == nil && p.Quantity == nil && p.Unit == nil &&
		p.Category == nil && p.ExpirationDate == nil && p.NutritionInfo == nil &&
		p.Barcode == nil && p.Images == nil && p.Notes == nil
}

// Apply copies the set fields of the patch onto item and stamps DateUpdated with now.
func (p PantryItemPatch) Apply(item *PantryItem, now time.Time) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Brand != nil {
		item.Brand = p.Brand
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = *p.Unit
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.ExpirationDate != nil {
		item.ExpirationDate = *p.ExpirationDate
	}
	if p.NutritionInfo != nil {
		item.NutritionInfo = p.NutritionInfo
	}
	if p.Barcode != nil {
		item.Barcode = p.Barcode
	}
	if p.Images != nil {
		item.Images = append([]string{}, (*p.Images)...)
	}
	if p.Notes != nil {
		item.Notes = p.Notes
	}
	item.DateUpdated = now
}

// IsExpired reports whether the item expired strictly before today.
func (i PantryItem) IsExpired(today Date) bool {
	return i.ExpirationDate.Before(today)
}

// IsExpiringWithin reports whether the item expires between today and today+days, inclusive.
func (i PantryItem) IsExpiringWithin(today Date, days int) bool {
	return !i.ExpirationDate.Before(today) && !i.ExpirationDate.After(today.AddDays(days))
}
