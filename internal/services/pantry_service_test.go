package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pantry/internal/models"
	"pantry/internal/query"
	"pantry/internal/repositories"
	"pantry/internal/services"
	"pantry/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPantryRepository is a mock implementation of repositories.PantryRepository
type MockPantryRepository struct {
	mock.Mock
}

func (m *MockPantryRepository) Create(ctx context.Context, userID string, item models.NewPantryItem) (*models.PantryItem, error) {
	args := m.Called(ctx, userID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PantryItem), args.Error(1)
}

func (m *MockPantryRepository) GetByID(ctx context.Context, userID, id string) (*models.PantryItem, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PantryItem), args.Error(1)
}

func (m *MockPantryRepository) List(ctx context.Context, userID string, spec query.Spec) (*repositories.ItemPage, error) {
	args := m.Called(ctx, userID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.ItemPage), args.Error(1)
}

func (m *MockPantryRepository) Update(ctx context.Context, userID, id string, patch models.PantryItemPatch) (*models.PantryItem, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PantryItem), args.Error(1)
}

func (m *MockPantryRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPantryRepository) BarcodeExists(ctx context.Context, barcode string) (bool, error) {
	args := m.Called(ctx, barcode)
	return args.Bool(0), args.Error(1)
}

func (m *MockPantryRepository) ListExpiringSoon(ctx context.Context, userID string, daysAhead int) ([]models.PantryItem, error) {
	args := m.Called(ctx, userID, daysAhead)
	return args.Get(0).([]models.PantryItem), args.Error(1)
}

func (m *MockPantryRepository) ListExpired(ctx context.Context, userID string) ([]models.PantryItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.PantryItem), args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(event interface{}) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockUploader is a mock implementation of services.ImageUploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func eventOfType(eventType models.ItemEventType, itemID string) interface{} {
	return mock.MatchedBy(func(e models.ItemEvent) bool {
		return e.Type == eventType && e.ItemID == itemID && e.UserID == "user-1" && !e.OccurredAt.IsZero()
	})
}

func TestPantryService_CreateItemPublishesEvent(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	publisher := new(MockPublisher)
	service := services.NewPantryService(mockRepo, publisher, nil)

	input := models.NewPantryItem{Name: "Milk", Quantity: 1, Unit: models.UnitLiters, Category: models.CategoryDairy}
	created := &models.PantryItem{ID: "item-1", UserID: "user-1", Name: "Milk"}
	mockRepo.On("Create", ctx, "user-1", input).Return(created, nil).Once()
	publisher.On("PublishJSON", eventOfType(models.ItemCreated, "item-1")).Return(nil).Once()

	item, err := service.CreateItem(ctx, "user-1", input)

	assert.NoError(t, err)
	assert.Equal(t, created, item)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestPantryService_PublishFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	publisher := new(MockPublisher)
	service := services.NewPantryService(mockRepo, publisher, nil)

	mockRepo.On("Delete", ctx, "user-1", "item-1").Return(true, nil).Once()
	publisher.On("PublishJSON", eventOfType(models.ItemDeleted, "item-1")).Return(errors.New("broker down")).Once()

	deleted, err := service.DeleteItem(ctx, "user-1", "item-1")

	assert.NoError(t, err)
	assert.True(t, deleted)
	publisher.AssertExpectations(t)
}

func TestPantryService_UpdateNotFoundSkipsEvent(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	publisher := new(MockPublisher)
	service := services.NewPantryService(mockRepo, publisher, nil)

	name := "Oat milk"
	patch := models.PantryItemPatch{Name: &name}
	mockRepo.On("Update", ctx, "user-1", "missing", patch).Return(nil, repositories.ErrItemNotFound).Once()

	_, err := service.UpdateItem(ctx, "user-1", "missing", patch)

	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
	publisher.AssertNotCalled(t, "PublishJSON", mock.Anything)
}

func TestPantryService_NilPublisher(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	service := services.NewPantryService(mockRepo, nil, nil)

	mockRepo.On("Create", ctx, "user-1", mock.Anything).Return(&models.PantryItem{ID: "item-1"}, nil).Once()

	_, err := service.CreateItem(ctx, "user-1", models.NewPantryItem{Name: "Rice"})
	assert.NoError(t, err)
}

func TestPantryService_ExpiringSoonDefaultsDays(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	service := services.NewPantryService(mockRepo, nil, nil)

	mockRepo.On("ListExpiringSoon", ctx, "user-1", query.ExpiringSoonDays).Return([]models.PantryItem{}, nil).Once()
	mockRepo.On("ListExpiringSoon", ctx, "user-1", 3).Return([]models.PantryItem{{ID: "a"}}, nil).Once()

	items, err := service.ExpiringSoon(ctx, "user-1", 0)
	assert.NoError(t, err)
	assert.Empty(t, items)

	items, err = service.ExpiringSoon(ctx, "user-1", 3)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	mockRepo.AssertExpectations(t)
}

func TestPantryService_AddImage(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	uploader := new(MockUploader)
	service := services.NewPantryService(mockRepo, nil, uploader)

	existing := &models.PantryItem{ID: "item-1", UserID: "user-1", Images: []string{"https://cdn/a.jpg"}}
	mockRepo.On("GetByID", ctx, "user-1", "item-1").Return(existing, nil).Once()

	const url = "https://bucket.s3.us-east-1.amazonaws.com/pantry/user-1/item-1/x.png"
	uploader.On("Upload", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "pantry/user-1/item-1/") && strings.HasSuffix(key, ".png")
	}), mock.Anything, "image/png").Return(url, nil).Once()

	mockRepo.On("Update", ctx, "user-1", "item-1", mock.MatchedBy(func(p models.PantryItemPatch) bool {
		return p.Images != nil && len(*p.Images) == 2 && (*p.Images)[0] == "https://cdn/a.jpg" && (*p.Images)[1] == url
	})).Return(&models.PantryItem{ID: "item-1", Images: []string{"https://cdn/a.jpg", url}}, nil).Once()

	item, err := service.AddImage(ctx, "user-1", "item-1", services.ImageUpload{
		Filename: "x.png", ContentType: "image/png", Data: []byte("png"),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/a.jpg", url}, item.Images)
	assert.Equal(t, []string{"https://cdn/a.jpg"}, existing.Images)
	mockRepo.AssertExpectations(t)
	uploader.AssertExpectations(t)
}

func TestPantryService_AddImageRejectsInput(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)

	_, err := services.NewPantryService(mockRepo, nil, nil).AddImage(ctx, "user-1", "item-1", services.ImageUpload{})
	assert.ErrorIs(t, err, services.ErrImageStorageDisabled)

	service := services.NewPantryService(mockRepo, nil, new(MockUploader))

	_, err = service.AddImage(ctx, "user-1", "item-1", services.ImageUpload{ContentType: "application/pdf", Data: []byte("x")})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.HasField("image"))

	_, err = service.AddImage(ctx, "user-1", "item-1", services.ImageUpload{
		ContentType: "image/jpeg", Data: make([]byte, services.MaxImageSize+1),
	})
	require.ErrorAs(t, err, &verrs)

	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestPantryService_AddImageUnknownItem(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockPantryRepository)
	uploader := new(MockUploader)
	service := services.NewPantryService(mockRepo, nil, uploader)

	mockRepo.On("GetByID", ctx, "user-1", "other").Return(nil, repositories.ErrItemNotFound).Once()

	_, err := service.AddImage(ctx, "user-1", "other", services.ImageUpload{ContentType: "image/webp", Data: []byte("w")})

	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
