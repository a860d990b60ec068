// Package web provides HTTP handlers and REST API endpoints for workflow generation.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/services"
	"github.com/dukex/flowforge/pkg/templates"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const serviceName = "flowforge-api"

type APIHandlers struct {
	generation *services.Generation
	validator  *validator.Validate
	logger     *slog.Logger
}

func NewAPIHandlers(
	generation *services.Generation,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		generation: generation,
		validator:  validator,
		logger:     logger,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeCheck, storeOk := h.generation.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if storeOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"service": serviceName,
		"checkers": fiber.Map{
			"store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// GenerateWorkflow rejects workflows with any validation issue, then generates their artifacts.
func (h *APIHandlers) GenerateWorkflow(c fiber.Ctx) error {
	var req models.GenerationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	h.logger.InfoContext(c.Context(), "Received workflow generation request",
		"workflow_id", req.Workflow.ID,
		"workflow_name", req.Workflow.Metadata.Name,
	)

	if report := h.generation.Validate(req.Workflow); !report.IsValid {
		return invalidWorkflow(c, report.Issues)
	}

	result, err := h.generation.Generate(c.Context(), &req)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to generate workflow code", "workflow_id", req.Workflow.ID, "error", err)

		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	workflow, err := h.bindWorkflow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.generation.Validate(workflow))
}

func (h *APIHandlers) PreviewWorkflow(c fiber.Ctx) error {
	workflow, err := h.bindWorkflow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	preview, err := h.generation.Preview(workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(preview)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(NodeTypesResponse{NodeTypes: models.NodeTypeCatalog()})
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(TemplatesResponse{Templates: templates.All()})
}

// SaveWorkflowFiles writes the posted path to content map for the workflow in the URL.
func (h *APIHandlers) SaveWorkflowFiles(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	files := map[string]string{}
	if err := c.Bind().JSON(&files); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	location, err := h.generation.Save(c.Context(), workflowID, files, c.Query("output_path"))
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to save workflow files", "workflow_id", workflowID, "error", err)

		return handleServiceError(c, err)
	}

	return c.JSON(SaveResponse{
		Message:    "Workflow files saved successfully",
		WorkflowID: workflowID,
		OutputPath: location,
		FilesCount: len(files),
	})
}

func (h *APIHandlers) bindWorkflow(c fiber.Ctx) (*models.Workflow, error) {
	var workflow models.Workflow
	if err := c.Bind().JSON(&workflow); err != nil {
		return nil, err
	}

	if err := h.validator.Struct(workflow); err != nil {
		return nil, err
	}

	return &workflow, nil
}
