package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pantry/internal/models"
	"pantry/internal/query"

	"github.com/google/uuid"
)

// MemoryPantryRepository is an in-memory implementation of PantryRepository.
// Its clock stands in for the store clock in ListExpiringSoon and ListExpired.
type MemoryPantryRepository struct {
	items map[string]models.PantryItem
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMemoryPantryRepository creates a new instance of MemoryPantryRepository.
func NewMemoryPantryRepository() *MemoryPantryRepository {
	return &MemoryPantryRepository{
		items: make(map[string]models.PantryItem),
		now:   time.Now,
	}
}

// WithClock replaces the repository clock.
func (r *MemoryPantryRepository) WithClock(now func() time.Time) *MemoryPantryRepository {
	r.now = now
	return r
}

// Create adds a new item.
func (r *MemoryPantryRepository) Create(_ context.Context, userID string, item models.NewPantryItem) (*models.PantryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	created := models.PantryItem{
		ID:             uuid.New().String(),
		UserID:         userID,
		Name:           item.Name,
		Brand:          item.Brand,
		Quantity:       item.Quantity,
		Unit:           item.Unit,
		Category:       item.Category,
		ExpirationDate: item.ExpirationDate,
		DateAdded:      now,
		DateUpdated:    now,
		NutritionInfo:  cloneNutrition(item.NutritionInfo),
		Barcode:        item.Barcode,
		Images:         append([]string{}, item.Images...),
		Notes:          item.Notes,
	}
	r.items[created.ID] = created
	return cloneItem(created), nil
}

// GetByID returns an item by its ID if userID owns it.
func (r *MemoryPantryRepository) GetByID(_ context.Context, userID, id string) (*models.PantryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, ErrItemNotFound
	}
	return cloneItem(item), nil
}

// List filters, sorts and pages the user's items.
func (r *MemoryPantryRepository) List(_ context.Context, userID string, spec query.Spec) (*ItemPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec = spec.WithDefaults()
	plan := query.Build(spec, r.now().UTC())

	matched := make([]models.PantryItem, 0)
	for _, item := range r.items {
		if item.UserID == userID && plan.Matches(item) {
			matched = append(matched, *cloneItem(item))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if plan.Less(matched[i], matched[j]) {
			return true
		}
		if plan.Less(matched[j], matched[i]) {
			return false
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	page := make([]models.PantryItem, 0, spec.Limit)
	if plan.Offset < len(matched) {
		end := plan.Offset + plan.Limit
		if end > len(matched) {
			end = len(matched)
		}
		page = append(page, matched[plan.Offset:end]...)
	}
	return &ItemPage{
		Items:      page,
		Total:      total,
		Page:       spec.Page,
		Limit:      spec.Limit,
		TotalPages: query.TotalPages(total, spec.Limit),
	}, nil
}

// Update applies the patch to an item owned by userID.
func (r *MemoryPantryRepository) Update(_ context.Context, userID, id string, patch models.PantryItemPatch) (*models.PantryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, fmt.Errorf("pantry item with ID %s not found for update: %w", id, ErrItemNotFound)
	}
	patch.Apply(&item, r.now().UTC())
	item.NutritionInfo = cloneNutrition(item.NutritionInfo)
	r.items[id] = item
	return cloneItem(item), nil
}

// Delete removes an item owned by userID, if any.
func (r *MemoryPantryRepository) Delete(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.items[id]; ok && item.UserID == userID {
		delete(r.items, id)
	}
	return true, nil
}

// BarcodeExists looks across all users.
func (r *MemoryPantryRepository) BarcodeExists(_ context.Context, barcode string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Barcode != nil && *item.Barcode == barcode {
			return true, nil
		}
	}
	return false, nil
}

// ListExpiringSoon returns the user's items expiring within daysAhead days, soonest first.
func (r *MemoryPantryRepository) ListExpiringSoon(_ context.Context, userID string, daysAhead int) ([]models.PantryItem, error) {
	today := models.DateOf(r.now().UTC())
	return r.collect(userID, func(item models.PantryItem) bool {
		return item.IsExpiringWithin(today, daysAhead)
	}), nil
}

// ListExpired returns the user's items that expired before today, oldest first.
func (r *MemoryPantryRepository) ListExpired(_ context.Context, userID string) ([]models.PantryItem, error) {
	today := models.DateOf(r.now().UTC())
	return r.collect(userID, func(item models.PantryItem) bool {
		return item.IsExpired(today)
	}), nil
}

func (r *MemoryPantryRepository) collect(userID string, keep func(models.PantryItem) bool) []models.PantryItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.PantryItem, 0)
	for _, item := range r.items {
		if item.UserID == userID && keep(item) {
			result = append(result, *cloneItem(item))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ExpirationDate.Equal(result[j].ExpirationDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].ExpirationDate.Before(result[j].ExpirationDate)
	})
	return result
}

// cloneItem copies item so callers never share its images or nutrition record with the store.
func cloneItem(item models.PantryItem) *models.PantryItem {
	item.Images = append([]string{}, item.Images...)
	item.NutritionInfo = cloneNutrition(item.NutritionInfo)
	return &item
}

func cloneNutrition(info *models.NutritionInfo) *models.NutritionInfo {
	if info == nil {
		return nil
	}
	return &models.NutritionInfo{
		Calories:      clonePtr(info.Calories),
		Protein:       clonePtr(info.Protein),
		Carbohydrates: clonePtr(info.Carbohydrates),
		Fat:           clonePtr(info.Fat),
		Fiber:         clonePtr(info.Fiber),
		Sugar:         clonePtr(info.Sugar),
		Sodium:        clonePtr(info.Sodium),
		ServingSize:   clonePtr(info.ServingSize),
		ServingUnit:   clonePtr(info.ServingUnit),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
