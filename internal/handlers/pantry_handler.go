package handlers

import (
	"errors"
	"fmt"
	"io"

	"pantry/internal/middleware"
	"pantry/internal/repositories"
	"pantry/internal/services"
	"pantry/internal/validation"

	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = errors.New("Invalid request body")

// PantryHandler handles HTTP requests for pantry items.
type PantryHandler struct {
	service   *services.PantryService
	validator *validation.Validator
}

// NewPantryHandler creates a new PantryHandler.
func NewPantryHandler(service *services.PantryService, v *validation.Validator) *PantryHandler {
	return &PantryHandler{
		service:   service,
		validator: v,
	}
}

// RegisterRoutes registers the pantry routes. Fixed paths come before /:id.
func (h *PantryHandler) RegisterRoutes(router fiber.Router) {
	pantryRoutes := router.Group("/pantry")
	pantryRoutes.Post("/", h.HandleCreateItem)
	pantryRoutes.Get("/", h.HandleListItems)

	pantryRoutes.Get("/expiring", h.HandleExpiringSoon)
	pantryRoutes.Get("/expired", h.HandleExpired)
	pantryRoutes.Get("/barcode/:barcode", h.HandleCheckBarcode)

	pantryRoutes.Get("/:id", h.HandleGetItem)
	pantryRoutes.Put("/:id", h.HandleUpdateItem)
	pantryRoutes.Delete("/:id", h.HandleDeleteItem)
	pantryRoutes.Post("/:id/images", h.HandleUploadImage)
}

// HandleCreateItem creates a new item for the caller.
func (h *PantryHandler) HandleCreateItem(c *fiber.Ctx) error {
	var req validation.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBodyError(c, err)
	}
	input, err := h.validator.CreateItem(req)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err)
	}

	item, err := h.service.CreateItem(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusCreated, item)
}

// respondBodyError reports a wrongly typed field with its path and anything else as an
// unreadable body.
func respondBodyError(c *fiber.Ctx, err error) error {
	if verrs, ok := validation.DecodeErrors(err); ok {
		return respondError(c, fiber.StatusBadRequest, verrs)
	}
	return respondError(c, fiber.StatusBadRequest, errInvalidBody)
}

// HandleGetItem returns a single item, or 404 when the caller has no such item.
func (h *PantryHandler) HandleGetItem(c *fiber.Ctx) error {
	item, err := h.service.GetItem(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return respondError(c, fiber.StatusNotFound, errors.New("Pantry item not found"))
		}
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusOK, item)
}

// HandleListItems returns one filtered page of the caller's items.
func (h *PantryHandler) HandleListItems(c *fiber.Ctx) error {
	var q validation.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return respondError(c, fiber.StatusBadRequest, fmt.Errorf("Invalid query parameters: %w", err))
	}
	spec, err := h.validator.ListSpec(q)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err)
	}

	page, err := h.service.ListItems(c.UserContext(), middleware.UserID(c), spec)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(Response{
		Success: true,
		Data:    page.Items,
		Pagination: &Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// HandleUpdateItem applies a partial update. A missing item is reported as a plain 400.
func (h *PantryHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req validation.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBodyError(c, err)
	}
	patch, err := h.validator.UpdateItem(req)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err)
	}

	item, err := h.service.UpdateItem(c.UserContext(), middleware.UserID(c), c.Params("id"), patch)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return respondError(c, fiber.StatusBadRequest, err)
		}
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusOK, item)
}

// HandleDeleteItem deletes an item. Unknown ids succeed too.
func (h *PantryHandler) HandleDeleteItem(c *fiber.Ctx) error {
	if _, err := h.service.DeleteItem(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(Response{Success: true})
}

// HandleExpiringSoon lists items expiring within ?days= days (default 7).
func (h *PantryHandler) HandleExpiringSoon(c *fiber.Ctx) error {
	days := validation.ExpiringDays(c.Query("days"))
	items, err := h.service.ExpiringSoon(c.UserContext(), middleware.UserID(c), days)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusOK, items)
}

// HandleExpired lists items past their expiration date.
func (h *PantryHandler) HandleExpired(c *fiber.Ctx) error {
	items, err := h.service.Expired(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusOK, items)
}

// HandleCheckBarcode reports whether any pantry holds the barcode.
func (h *PantryHandler) HandleCheckBarcode(c *fiber.Ctx) error {
	barcode := c.Params("barcode")
	if barcode == "" {
		return respondError(c, fiber.StatusBadRequest, errors.New("Barcode is required"))
	}
	exists, err := h.service.BarcodeExists(c.UserContext(), barcode)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"exists": exists})
}

// HandleUploadImage stores the multipart "image" file and attaches its URL to the item.
func (h *PantryHandler) HandleUploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, validation.Errors{{Field: "image", Message: "is required"}})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, fmt.Errorf("failed to open upload: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageSize+1))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
	}

	item, err := h.service.AddImage(c.UserContext(), middleware.UserID(c), c.Params("id"), services.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return respondError(c, fiber.StatusNotFound, errors.New("Pantry item not found"))
		}
		return respondError(c, fiber.StatusInternalServerError, err)
	}
	return respondData(c, fiber.StatusOK, item)
}
