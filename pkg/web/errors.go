package web

import (
	"errors"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func invalidWorkflow(c fiber.Ctx, issues []string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("workflow_validation_error")

	return c.Status(fiber.StatusBadRequest).JSON(ValidationProblem{
		Problem: problem,
		Message: "Workflow validation failed",
		Issues:  issues,
	})
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsStructuralError(err):
		return invalidWorkflow(c, services.StructuralIssues(err))

	case services.IsValidationError(err), persistence.IsInvalidPath(err), errors.Is(err, persistence.ErrInvalidWorkflowID):
		return badRequest(c, err.Error())

	case services.IsCollaboratorError(err):
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("collaborator_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)

	case services.IsPersistenceError(err):
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("persistence_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)

	default:
		return internalError(c, err)
	}
}
