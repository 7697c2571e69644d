// Package web provides HTTP handlers and REST API endpoints for blueprint
// compilation, recommendation and storage.
package web

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/waflow/waflow/pkg/advisor"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/services"
)

// APIHandlers bundles the HTTP endpoints over the blueprint service.
type APIHandlers struct {
	blueprintService *services.Blueprint
	validate         *validator.Validate
}

// NewAPIHandlers creates the handler set.
func NewAPIHandlers(blueprintService *services.Blueprint, validate *validator.Validate) *APIHandlers {
	return &APIHandlers{
		blueprintService: blueprintService,
		validate:         validate,
	}
}

// GetNodes lists the node catalog, optionally filtered by category.
func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	lib := h.blueprintService.Library()

	if category := c.Query("category"); category != "" {
		return c.JSON(fiber.Map{"nodes": lib.List(models.Category(category))})
	}

	return c.JSON(fiber.Map{"nodes": lib.List()})
}

// ValidateBlueprint compiles a candidate blueprint and returns the full
// defect list plus the executability gate.
func (h *APIHandlers) ValidateBlueprint(c fiber.Ctx) error {
	var bp models.Blueprint
	if err := c.Bind().Body(&bp); err != nil {
		return badRequest(c, "Invalid blueprint payload: "+err.Error())
	}

	result, err := h.blueprintService.Compile(c.Context(), &bp)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ValidateBlueprintResponse{
		Result:     result,
		Executable: h.blueprintService.IsExecutable(&bp),
		Complexity: h.blueprintService.Analyzer().ComplexityScore(&bp),
	})
}

// Recommend returns ranked node-type suggestions for an action phrase.
func (h *APIHandlers) Recommend(c fiber.Ctx) error {
	var req RecommendRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request payload: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	recs := h.blueprintService.Advisor().Recommend(req.Action, &advisor.Context{
		Integration:      req.Integration,
		PreviousNodeType: req.PreviousNodeType,
	})

	return c.JSON(RecommendResponse{Recommendations: recs})
}

// ValidateSelection runs the advisory node-selection sanity pass.
func (h *APIHandlers) ValidateSelection(c fiber.Ctx) error {
	var req SelectionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request payload: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	return c.JSON(h.blueprintService.Advisor().ValidateNodeSelection(req.NodeTypes))
}

// CreateBlueprint stores a new blueprint for a bot.
func (h *APIHandlers) CreateBlueprint(c fiber.Ctx) error {
	var bp models.Blueprint
	if err := c.Bind().Body(&bp); err != nil {
		return badRequest(c, "Invalid blueprint payload: "+err.Error())
	}

	bp.BotID = c.Params("botID")

	if err := h.validate.Struct(&bp); err != nil {
		return badRequest(c, "Invalid blueprint: "+err.Error())
	}

	created, err := h.blueprintService.Create(c.Context(), &bp)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(created)
}

// GetBlueprints lists the blueprints stored for a bot.
func (h *APIHandlers) GetBlueprints(c fiber.Ctx) error {
	blueprints, err := h.blueprintService.ListByBot(c.Context(), c.Params("botID"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"blueprints": blueprints})
}

// GetBlueprint fetches one blueprint.
func (h *APIHandlers) GetBlueprint(c fiber.Ctx) error {
	bp, err := h.blueprintService.FetchByID(c.Context(), c.Params("botID"), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(bp)
}

// UpdateBlueprint replaces one blueprint.
func (h *APIHandlers) UpdateBlueprint(c fiber.Ctx) error {
	var bp models.Blueprint
	if err := c.Bind().Body(&bp); err != nil {
		return badRequest(c, "Invalid blueprint payload: "+err.Error())
	}

	updated, err := h.blueprintService.Update(c.Context(), c.Params("botID"), c.Params("id"), &bp)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// DeleteBlueprint removes one blueprint.
func (h *APIHandlers) DeleteBlueprint(c fiber.Ctx) error {
	if err := h.blueprintService.Delete(c.Context(), c.Params("botID"), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

// PrepareBlueprint validates, gates and injects one stored blueprint,
// returning the execution-ready document.
func (h *APIHandlers) PrepareBlueprint(c fiber.Ctx) error {
	bp, err := h.blueprintService.FetchByID(c.Context(), c.Params("botID"), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	var req PrepareRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid injection context: "+err.Error())
	}

	injected, result, err := h.blueprintService.Prepare(c.Context(), bp, &req.Context)
	if err != nil {
		if services.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  err.Error(),
				"result": result,
			})
		}

		return unprocessable(c, err.Error())
	}

	return c.JSON(fiber.Map{
		"blueprint": injected,
		"result":    result,
	})
}

// HealthCheck reports persistence health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, ok := h.blueprintService.HealthCheck(c.Context())
	if !ok {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"status":  "unhealthy",
			"message": message,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": message,
	})
}
