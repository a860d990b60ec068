// Package web provides HTTP request and response types for the generation API.
package web

import (
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/templates"
	"github.com/moogar0880/problems"
)

// ValidationProblem is the 400 body of a generation request whose workflow has issues.
type ValidationProblem struct {
	*problems.Problem

	Message string   `json:"message"`
	Issues  []string `json:"issues"`
}

// NodeTypesResponse lists the supported node types.
type NodeTypesResponse struct {
	NodeTypes []models.NodeTypeInfo `json:"node_types"`
}

// TemplatesResponse lists the predefined workflows.
type TemplatesResponse struct {
	Templates []templates.Template `json:"templates"`
}

// SaveResponse reports where generated files were written.
type SaveResponse struct {
	Message    string `json:"message"`
	WorkflowID string `json:"workflow_id"`
	OutputPath string `json:"output_path"`
	FilesCount int    `json:"files_count"`
}
