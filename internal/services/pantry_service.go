package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pantry/internal/models"
	"pantry/internal/query"
	"pantry/internal/repositories"
	"pantry/internal/validation"
	"pantry/pkg/storage"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted item photo.
const MaxImageSize = 5 << 20

// ErrImageStorageDisabled means no image bucket is configured.
var ErrImageStorageDisabled = errors.New("image storage is not configured")

// EventPublisher publishes item change events.
type EventPublisher interface {
	PublishJSON(event interface{}) error
}

// ImageUploader stores an object and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// ImageUpload is a photo received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PantryService handles business logic related to pantry items.
type PantryService struct {
	repo   repositories.PantryRepository
	events EventPublisher
	images ImageUploader
	now    func() time.Time
}

// NewPantryService creates a new PantryService. events and images may be nil, which
// disables event publishing and photo uploads respectively.
func NewPantryService(repo repositories.PantryRepository, events EventPublisher, images ImageUploader) *PantryService {
	return &PantryService{
		repo:   repo,
		events: events,
		images: images,
		now:    time.Now,
	}
}

// CreateItem stores a new item for userID.
func (s *PantryService) CreateItem(ctx context.Context, userID string, item models.NewPantryItem) (*models.PantryItem, error) {
	created, err := s.repo.Create(ctx, userID, item)
	if err != nil {
		return nil, err
	}
	s.publish(models.ItemCreated, userID, created.ID)
	return created, nil
}

// GetItem retrieves a single item owned by userID.
func (s *PantryService) GetItem(ctx context.Context, userID, id string) (*models.PantryItem, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// ListItems returns one filtered page of the user's items.
func (s *PantryService) ListItems(ctx context.Context, userID string, spec query.Spec) (*repositories.ItemPage, error) {
	return s.repo.List(ctx, userID, spec)
}

// UpdateItem applies a partial update to an item owned by userID.
func (s *PantryService) UpdateItem(ctx context.Context, userID, id string, patch models.PantryItemPatch) (*models.PantryItem, error) {
	updated, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}
	s.publish(models.ItemUpdated, userID, updated.ID)
	return updated, nil
}

// DeleteItem removes an item owned by userID. A missing item is not an error.
func (s *PantryService) DeleteItem(ctx context.Context, userID, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return false, err
	}
	s.publish(models.ItemDeleted, userID, id)
	return deleted, nil
}

// BarcodeExists reports whether any user has an item with the barcode.
func (s *PantryService) BarcodeExists(ctx context.Context, barcode string) (bool, error) {
	return s.repo.BarcodeExists(ctx, barcode)
}

// ExpiringSoon lists items expiring within days days.
func (s *PantryService) ExpiringSoon(ctx context.Context, userID string, days int) ([]models.PantryItem, error) {
	if days < 1 {
		days = query.ExpiringSoonDays
	}
	return s.repo.ListExpiringSoon(ctx, userID, days)
}

// Expired lists items past their expiration date.
func (s *PantryService) Expired(ctx context.Context, userID string) ([]models.PantryItem, error) {
	return s.repo.ListExpired(ctx, userID)
}

// AddImage uploads a photo and appends its URL to the item's images.
func (s *PantryService) AddImage(ctx context.Context, userID, itemID string, img ImageUpload) (*models.PantryItem, error) {
	if s.images == nil {
		return nil, ErrImageStorageDisabled
	}
	ext, ok := storage.AllowImage[img.ContentType]
	if !ok {
		return nil, validation.Errors{{Field: "image", Message: "must be a jpeg, png, webp or heic image"}}
	}
	if len(img.Data) == 0 {
		return nil, validation.Errors{{Field: "image", Message: "is required"}}
	}
	if len(img.Data) > MaxImageSize {
		return nil, validation.Errors{{Field: "image", Message: "must be at most 5 MiB"}}
	}

	item, err := s.repo.GetByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("pantry/%s/%s/%s%s", userID, itemID, uuid.New().String(), ext)
	url, err := s.images.Upload(ctx, key, bytes.NewReader(img.Data), img.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store image for item %s: %w", itemID, err)
	}

	images := append(append([]string{}, item.Images...), url)
	return s.UpdateItem(ctx, userID, itemID, models.PantryItemPatch{Images: &images})
}

func (s *PantryService) publish(eventType models.ItemEventType, userID, itemID string) {
	if s.events == nil {
		return
	}
	event := models.ItemEvent{
		Type:       eventType,
		ItemID:     itemID,
		UserID:     userID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishJSON(event); err != nil {
		log.Warnf("Failed to publish %s event for item %s: %v", eventType, itemID, err)
	}
}
