package repositories

import (
	"context"

	"pantry/internal/models"
	"pantry/internal/query"
)

// ItemPage is one page of a filtered item listing. Total counts the whole matching set.
type ItemPage struct {
	Items      []models.PantryItem
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// PantryRepository defines the interface for pantry item data access. Every method except
// BarcodeExists is scoped to userID.
type PantryRepository interface {
	Create(ctx context.Context, userID string, item models.NewPantryItem) (*models.PantryItem, error)
	// GetByID returns ErrItemNotFound when no item matches both id and userID.
	GetByID(ctx context.Context, userID, id string) (*models.PantryItem, error)
	List(ctx context.Context, userID string, spec query.Spec) (*ItemPage, error)
	Update(ctx context.Context, userID, id string, patch models.PantryItemPatch) (*models.PantryItem, error)
	// Delete succeeds whether or not a row matched.
	Delete(ctx context.Context, userID, id string) (bool, error)
	BarcodeExists(ctx context.Context, barcode string) (bool, error)
	ListExpiringSoon(ctx context.Context, userID string, daysAhead int) ([]models.PantryItem, error)
	ListExpired(ctx context.Context, userID string) ([]models.PantryItem, error)
}
