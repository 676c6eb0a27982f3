package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/conceptbridge/transcription-api/internal/model"
	"github.com/conceptbridge/transcription-api/internal/service"
	"github.com/conceptbridge/transcription-api/pkg/response"
)

type MatcherHandler struct {
	service   *service.MatcherService
	validator *validator.Validate
}

func NewMatcherHandler(svc *service.MatcherService, v *validator.Validate) *MatcherHandler {
	return &MatcherHandler{
		service:   svc,
		validator: v,
	}
}

// Index handles GET /api/matcher/.
func (h *MatcherHandler) Index(c *fiber.Ctx) error {
	return c.SendString(fmt.Sprintf("Matcher service is running using model: %s", h.service.ModelInfo()))
}

// Health handles GET /api/matcher/health.
func (h *MatcherHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"model":  h.service.ModelInfo(),
	})
}

// Similarity handles POST /api/matcher/similarity. The body is an array of
// concept pairs; the response is one similarity score per pair, in order.
func (h *MatcherHandler) Similarity(c *fiber.Ctx) error {
	var pairs []model.ConceptPair
	if err := c.BodyParser(&pairs); err != nil {
		return response.ValidationError(c, "No data provided", nil)
	}
	if len(pairs) == 0 {
		return response.ValidationError(c, "No data provided", nil)
	}

	for i := range pairs {
		if err := h.validator.Struct(&pairs[i]); err != nil {
			return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
		}
	}

	results, err := h.service.Similarity(c.Context(), pairs)
	if err != nil {
		return response.AIError(c, err.Error())
	}

	return response.OK(c, results)
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errs := make(map[string]string)
		for _, e := range validationErrors {
			errs[e.Field()] = e.Tag()
		}
		return errs
	}
	return nil
}
