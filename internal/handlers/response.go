package handlers

import (
	"errors"

	"pantry/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Response is the envelope of every API response.
type Response struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Details    validation.Errors `json:"details,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}

// respondError writes a failure envelope. Validation failures always answer 400 with the
// field list; status applies to every other error.
func respondError(c *fiber.Ctx, status int, err error) error {
	resp := Response{Success: false, Error: err.Error()}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		status = fiber.StatusBadRequest
		resp.Details = verrs
	}
	if status >= fiber.StatusInternalServerError {
		log.Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(resp)
}
