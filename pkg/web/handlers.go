// Package web provides HTTP handlers and REST API endpoints for the canvas
// editor.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
	"github.com/agentcanvas/agentcanvas/pkg/registry"
	"github.com/agentcanvas/agentcanvas/pkg/runner"
	"github.com/agentcanvas/agentcanvas/pkg/services"
)

type APIHandlers struct {
	canvasService *services.CanvasService
	runService    *services.RunService
	validator     *validator.Validate
	registry      *registry.Registry
}

func NewAPIHandlers(
	canvasService *services.CanvasService,
	runService *services.RunService,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		canvasService: canvasService,
		runService:    runService,
		validator:     validator,
		registry:      registry,
	}
}

func (h *APIHandlers) GetCanvases(c fiber.Ctx) error {
	canvases, err := h.canvasService.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"canvases":    canvases,
		"total_count": len(canvases),
	})
}

func (h *APIHandlers) CreateCanvas(c fiber.Ctx) error {
	var req CreateCanvasRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	canvas := &models.Canvas{
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata,
		Owner:       req.Owner,
	}

	created, err := h.canvasService.Create(c.Context(), canvas)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetCanvas(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	canvas, err := h.canvasService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsCanvasNotFound(err) {
			return notFound(c, "Canvas not found")
		}

		return internalError(c, err)
	}

	return c.JSON(canvas)
}

func (h *APIHandlers) UpdateCanvas(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	var req UpdateCanvasRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var name, description, owner string

	if req.Name != nil {
		name = *req.Name
	}

	if req.Description != nil {
		description = *req.Description
	}

	if req.Owner != nil {
		owner = *req.Owner
	}

	updated, err := h.canvasService.Update(c.Context(), id, name, description, owner)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteCanvas(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	if err := h.canvasService.Delete(c.Context(), id); err != nil {
		if persistence.IsCanvasNotFound(err) {
			return notFound(c, "Canvas not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	var req CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.canvasService.AddNode(
		c.Context(), id, models.NodeKind(req.Kind), req.SubKind, req.Position, req.Config)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Canvas ID and node ID are required")
	}

	if err := h.canvasService.RemoveNode(c.Context(), id, nodeID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UpdateNodeConfig(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Canvas ID and node ID are required")
	}

	var req UpdateNodeConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.canvasService.UpdateNodeConfig(c.Context(), id, nodeID, req.Config)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	var req CreateConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	conn, err := h.canvasService.AddConnection(c.Context(), id, req.From.ToPortRef(), req.To.ToPortRef())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(conn)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	id := c.Params("id")
	connectionID := c.Params("connectionId")

	if id == "" || connectionID == "" {
		return badRequest(c, "Canvas ID and connection ID are required")
	}

	if err := h.canvasService.RemoveConnection(c.Context(), id, connectionID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddRouterPort(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Canvas ID and node ID are required")
	}

	node, err := h.canvasService.AddRouterPort(c.Context(), id, nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) RemoveRouterPort(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Canvas ID and node ID are required")
	}

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "Port index must be an integer")
	}

	node, err := h.canvasService.RemoveRouterPort(c.Context(), id, nodeID, index)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) GetNetworks(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	candidates, err := h.runService.ListNetworks(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"networks":    candidates,
		"total_count": len(candidates),
	})
}

func (h *APIHandlers) ValidateCanvas(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	result, err := h.runService.Validate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) RunCanvas(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Canvas ID is required")
	}

	var req RunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	mode := runner.Mode(req.Mode)
	if mode == "" {
		mode = runner.ModeSequential
	}

	result, err := h.runService.Execute(c.Context(), id, req.Networks, mode, req.Input, req.Wait)
	if err != nil {
		return handleServiceError(c, err)
	}

	if result.Status.Terminal() {
		return c.JSON(result)
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}

// GetExecutionStatus proxies one status fetch from the execution service, so
// the browser polls this API instead of crossing origins.
func (h *APIHandlers) GetExecutionStatus(c fiber.Ctx) error {
	executionID := c.Params("executionId")
	if executionID == "" {
		return badRequest(c, "Execution ID is required")
	}

	report, err := h.runService.Status(c.Context(), executionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(report)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	records := h.runService.Executions()

	return c.JSON(fiber.Map{
		"executions":  records,
		"total_count": len(records),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	executionID := c.Params("executionId")
	if executionID == "" {
		return badRequest(c, "Execution ID is required")
	}

	record, err := h.runService.Execution(executionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	persistenceErr := h.canvasService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "AgentCanvas API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && persistenceErr == nil {
		status = "healthy"
		message = "AgentCanvas API is healthy"
		httpStatus = http.StatusOK
	}

	persistenceCheck := "ok"
	if persistenceErr != nil {
		persistenceCheck = persistenceErr.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":    registryCheck,
			"persistence": persistenceCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
