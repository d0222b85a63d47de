package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tasagro-dev/tasagro/internal/comparables"
	"github.com/tasagro-dev/tasagro/internal/listings"
	"github.com/tasagro-dev/tasagro/internal/logger"
)

// Estimator runs the comparables pipeline for a validated query.
type Estimator interface {
	Estimate(ctx context.Context, q comparables.SearchQuery) (*comparables.EstimationResult, error)
}

type EstimationHandler struct {
	estimator Estimator
}

func NewEstimationHandler(estimator Estimator) *EstimationHandler {
	return &EstimationHandler{estimator: estimator}
}

func SetupEstimationRoutes(router fiber.Router, estimator Estimator) {
	h := NewEstimationHandler(estimator)

	router.Post("/comparables", h.Estimate)
}

// EstimationRequest is the inbound valuation request body.
type EstimationRequest struct {
	Provincia string  `json:"provincia"`
	Localidad string  `json:"localidad"`
	Hectareas float64 `json:"hectareas"`
	TipoCampo string  `json:"tipo_campo"`
	RadioKm   float64 `json:"radio_km"`
	Page      int     `json:"page"`
}

// Estimate godoc
// @Summary Estimate a rural property's value from comparable listings
// @Tags tasaciones
// @Accept json
// @Produce json
// @Param request body EstimationRequest true "Property attributes"
// @Success 200 {object} comparables.EstimationResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasaciones/comparables [post]
func (h *EstimationHandler) Estimate(c *fiber.Ctx) error {
	log := logger.GetLogger("handlers.estimation")

	var req EstimationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	query, err := comparables.NewSearchQuery(
		req.Provincia, req.Localidad, req.Hectareas, req.TipoCampo, req.RadioKm, req.Page,
	)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.estimator.Estimate(c.UserContext(), query)
	if err != nil {
		// The underlying cause is logged, never exposed to the caller.
		if errors.Is(err, listings.ErrSearchUnavailable) {
			log.Errorf("external search unavailable: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "external listings search is temporarily unavailable",
			})
		}
		log.Errorf("estimation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "estimation failed",
		})
	}

	return c.JSON(result)
}
