package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukex/flowforge/pkg/artifacts"
	"github.com/dukex/flowforge/pkg/collaborator"
	"github.com/dukex/flowforge/pkg/compiler"
	"github.com/dukex/flowforge/pkg/config"
	"github.com/dukex/flowforge/pkg/deployment"
	"github.com/dukex/flowforge/pkg/eventbus"
	"github.com/dukex/flowforge/pkg/events"
	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/otelhelper"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const maxSuggestions = 10

// generalSuggestions are appended to every enriched result.
var generalSuggestions = []string{
	"Consider adding error handling and retry logic",
	"Implement proper logging and monitoring",
	"Add input validation for all endpoints",
	"Consider using Cloud Monitoring for observability",
	"Implement proper authentication and authorization",
}

// Generation turns workflows into step documents, node artifacts and deployment descriptors.
type Generation struct {
	logger    *slog.Logger
	producer  collaborator.Producer
	artifacts *artifacts.Generator
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	defaults  config.Defaults
	store     persistence.Store
}

// Option configures a Generation service.
type Option func(*Generation)

// WithEventPublisher publishes generation events to publisher.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(g *Generation) { g.publisher = publisher }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(g *Generation) { g.tracer = tracer }
}

// WithDefaults replaces the builtin project, region and runtime defaults.
func WithDefaults(defaults config.Defaults) Option {
	return func(g *Generation) { g.defaults = defaults }
}

// WithStore sets the store used by Save.
func WithStore(store persistence.Store) Option {
	return func(g *Generation) { g.store = store }
}

// NewGeneration creates a generation service. A nil producer restricts the service to
// deterministic generation.
func NewGeneration(logger *slog.Logger, producer collaborator.Producer, opts ...Option) *Generation {
	g := &Generation{
		logger:   logger.With("module", "generation"),
		producer: producer,
		tracer:   otelhelper.NoopTracer(),
		defaults: config.BuiltinDefaults(),
	}

	for _, opt := range opts {
		opt(g)
	}

	g.artifacts = artifacts.NewGenerator(producer, logger)

	return g
}

// HealthCheck reports the health of the artifact store.
func (g *Generation) HealthCheck(ctx context.Context) (string, bool) {
	if g.store == nil {
		return "Artifact store not initialized", false
	}

	if err := g.store.HealthCheck(ctx); err != nil {
		return "Artifact store is unhealthy: " + err.Error(), false
	}

	return "Artifact store is healthy", true
}

// Generate produces the artifacts of a workflow. Structurally invalid workflows are rejected
// before any work; other validation issues do not block generation.
func (g *Generation) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error) {
	if req == nil || req.Workflow == nil {
		return nil, &GenerationError{Op: "generate", Kind: ErrInvalidRequest, Err: errors.New("workflow is required")}
	}

	started := time.Now()
	workflow := g.withDefaults(req.Workflow)

	format := req.TargetFormat
	if format == "" {
		format = models.TargetFormatYAML
	}

	ctx, span := otelhelper.StartSpan(ctx, g.tracer, "generation.generate",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Metadata.Name),
		attribute.String(otelhelper.TargetFormatKey, string(format)),
		attribute.Bool(otelhelper.EnrichKey, req.Enrich),
	)
	defer span.End()

	logger := g.logger.With("workflow_id", workflow.ID, "enrich", req.Enrich)

	result, err := g.generate(ctx, logger, workflow, req, format)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Generation failed", "error", err)

		event := events.GenerationFailed{
			BaseEvent: events.NewBaseEvent(events.GenerationFailedEvent, workflow.ID),
			Error:     err.Error(),
		}
		g.publish(context.WithoutCancel(ctx), workflow.ID, event)

		return nil, err
	}

	result.ElapsedSeconds = time.Since(started).Seconds()
	span.SetAttributes(attribute.Int(otelhelper.FilesCountKey, result.FilesCount()))

	logger.InfoContext(ctx, "Generation completed",
		"files_count", result.FilesCount(),
		"elapsed_seconds", result.ElapsedSeconds,
	)

	g.publish(ctx, workflow.ID, events.GenerationCompleted{
		BaseEvent:      events.NewBaseEvent(events.GenerationCompletedEvent, workflow.ID),
		FilesCount:     result.FilesCount(),
		ElapsedSeconds: result.ElapsedSeconds,
		Enriched:       req.Enrich,
	})

	return result, nil
}

func (g *Generation) generate(
	ctx context.Context,
	logger *slog.Logger,
	workflow *models.Workflow,
	req *models.GenerationRequest,
	format models.TargetFormat,
) (*models.GenerationResult, error) {
	if err := validation.CheckStructure(workflow); err != nil {
		return nil, &GenerationError{Op: "generate", WorkflowID: workflow.ID, Kind: ErrStructural, Err: err}
	}

	document, err := g.document(ctx, workflow, format, req.Enrich)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{
		WorkflowID:        workflow.ID,
		GeneratedFiles:    map[string]string{"workflow." + format.Extension(): document},
		DeploymentConfigs: map[string]string{},
		Suggestions:       []string{},
	}

	nodeFiles, err := g.nodeArtifacts(ctx, workflow, req.Enrich)
	if err != nil {
		return nil, err
	}

	for _, files := range nodeFiles {
		for _, path := range sortedKeys(files) {
			if _, exists := result.GeneratedFiles[path]; exists {
				logger.WarnContext(ctx, "Duplicate artifact path, keeping the later file", "path", path)
			}

			result.GeneratedFiles[path] = files[path]
		}
	}

	if req.IncludeDeployment {
		configs, err := deployment.Render(workflow, deployment.Options{
			DefaultProjectID: g.defaults.DefaultProjectID,
			FunctionRuntime:  g.defaults.FunctionRuntime,
			Format:           format,
		})
		if err != nil {
			return nil, &GenerationError{Op: "render deployment", WorkflowID: workflow.ID, Kind: ErrCompilation, Err: err}
		}

		result.DeploymentConfigs = configs
	}

	if req.Enrich {
		result.Suggestions = g.suggestions(ctx, logger, workflow)
	}

	if err := ctx.Err(); err != nil {
		return nil, &GenerationError{Op: "generate", WorkflowID: workflow.ID, Err: err}
	}

	return result, nil
}

// document returns the serialized step document, either compiled or produced by the collaborator.
func (g *Generation) document(ctx context.Context, workflow *models.Workflow, format models.TargetFormat, enrich bool) (string, error) {
	if !enrich {
		content, err := compiler.Render(compiler.Compile(workflow, compiler.Options{
			DefaultProjectID: g.defaults.DefaultProjectID,
		}), format)
		if err != nil {
			return "", &GenerationError{Op: "compile", WorkflowID: workflow.ID, Kind: ErrCompilation, Err: err}
		}

		return content, nil
	}

	if g.producer == nil {
		return "", &GenerationError{Op: "enrich workflow", WorkflowID: workflow.ID, Kind: ErrCollaborator, Err: collaborator.ErrNotConfigured}
	}

	prompt := artifacts.WorkflowPrompt(workflow, format, g.defaults.DefaultProjectID)

	response, err := g.producer.Produce(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Op: "enrich workflow", WorkflowID: workflow.ID, Kind: ErrCollaborator, Err: err}
	}

	content := collaborator.ExtractBlock(response, string(format))
	if content == "" {
		return "", &GenerationError{
			Op:         "enrich workflow",
			WorkflowID: workflow.ID,
			Kind:       ErrCollaborator,
			Err:        fmt.Errorf("%w: no %s document in response", collaborator.ErrMalformedOutput, format),
		}
	}

	return content + "\n", nil
}

// nodeArtifacts generates the files of every deployable node concurrently. The returned slice
// holds one map per deployable node in declaration order.
func (g *Generation) nodeArtifacts(ctx context.Context, workflow *models.Workflow, enrich bool) ([]map[string]string, error) {
	var nodes []*models.WorkflowNode

	for _, node := range workflow.Nodes {
		if node != nil && node.Type.IsDeployable() {
			nodes = append(nodes, node)
		}
	}

	kind := ErrCompilation
	if enrich {
		kind = ErrCollaborator
	}

	results := make([]map[string]string, len(nodes))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, node := range nodes {
		group.Go(func() error {
			nodeCtx, span := otelhelper.StartSpan(groupCtx, g.tracer, "generation.node_artifacts",
				attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
				attribute.String(otelhelper.NodeIDKey, node.ID),
				attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
			)
			defer span.End()

			files, err := g.artifacts.Generate(nodeCtx, node, enrich)
			if err != nil {
				otelhelper.SetError(span, err)

				return &GenerationError{Op: "generate artifacts", WorkflowID: workflow.ID, NodeID: node.ID, Kind: kind, Err: err}
			}

			results[i] = files

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// suggestions asks the collaborator for improvements of every node carrying a generation hint.
// Per-node failures are logged and skipped.
func (g *Generation) suggestions(ctx context.Context, logger *slog.Logger, workflow *models.Workflow) []string {
	suggestions := []string{}

	for _, node := range workflow.Nodes {
		if node == nil || node.GenerationHint() == "" {
			continue
		}

		if ctx.Err() != nil {
			break
		}

		items, err := g.nodeSuggestions(ctx, node)
		if err != nil {
			logger.WarnContext(ctx, "Skipping suggestions for node", "node_id", node.ID, "error", err)

			continue
		}

		suggestions = append(suggestions, items...)
	}

	suggestions = append(suggestions, generalSuggestions...)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return suggestions
}

func (g *Generation) nodeSuggestions(ctx context.Context, node *models.WorkflowNode) ([]string, error) {
	if g.producer == nil {
		return nil, collaborator.ErrNotConfigured
	}

	response, err := g.producer.Produce(ctx, artifacts.EnhancementPrompt(node))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Suggestions []any `json:"suggestions"`
	}

	if err := json.Unmarshal([]byte(collaborator.ExtractBlock(response, "json")), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", collaborator.ErrMalformedOutput, err)
	}

	var items []string

	for _, item := range payload.Suggestions {
		if text, ok := item.(string); ok {
			items = append(items, text)
		}
	}

	return items, nil
}

// ValidationReport is the outcome of Validate.
type ValidationReport struct {
	WorkflowID string   `json:"workflow_id"`
	IsValid    bool     `json:"is_valid"`
	Issues     []string `json:"issues"`
	Message    string   `json:"message"`
}

// Validate lists every issue of the workflow.
func (g *Generation) Validate(workflow *models.Workflow) ValidationReport {
	report := ValidationReport{Issues: validation.Validate(workflow)}
	if workflow != nil {
		report.WorkflowID = workflow.ID
	}

	report.IsValid = len(report.Issues) == 0
	if report.IsValid {
		report.Message = "Workflow is valid"
	} else {
		report.Message = "Workflow has validation issues"
	}

	return report
}

// PreviewResult is the outcome of Preview. Content is nil when the workflow has issues.
type PreviewResult struct {
	WorkflowID       string   `json:"workflow_id"`
	Content          *string  `json:"content"`
	ValidationIssues []string `json:"validation_issues"`
	Message          string   `json:"message"`
}

// Preview compiles the workflow to YAML without contacting the collaborator.
func (g *Generation) Preview(workflow *models.Workflow) (PreviewResult, error) {
	preview := PreviewResult{ValidationIssues: validation.Validate(workflow)}
	if workflow != nil {
		preview.WorkflowID = workflow.ID
	}

	if len(preview.ValidationIssues) > 0 {
		preview.Message = "Cannot generate preview due to validation issues"

		return preview, nil
	}

	workflow = g.withDefaults(workflow)

	content, err := compiler.Render(compiler.Compile(workflow, compiler.Options{
		DefaultProjectID: g.defaults.DefaultProjectID,
	}), models.TargetFormatYAML)
	if err != nil {
		return preview, &GenerationError{Op: "preview", WorkflowID: workflow.ID, Kind: ErrCompilation, Err: err}
	}

	preview.Content = &content
	preview.Message = "YAML preview generated successfully"

	return preview, nil
}

// Save writes files to the configured store and returns their location.
func (g *Generation) Save(ctx context.Context, workflowID string, files map[string]string, outputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Op: "save", WorkflowID: workflowID, Kind: ErrPersistence, Err: err}
	}

	if g.store == nil {
		return "", &GenerationError{Op: "save", WorkflowID: workflowID, Kind: ErrPersistence, Err: persistence.ErrUnsupportedStore}
	}

	location, err := g.store.Save(ctx, workflowID, files, persistence.SaveOptions{OutputPath: outputPath})
	if err != nil {
		return "", &GenerationError{Op: "save", WorkflowID: workflowID, Kind: ErrPersistence, Err: err}
	}

	g.logger.InfoContext(ctx, "Artifacts saved", "workflow_id", workflowID, "location", location, "files_count", len(files))

	g.publish(ctx, workflowID, events.ArtifactsSaved{
		BaseEvent:  events.NewBaseEvent(events.ArtifactsSavedEvent, workflowID),
		Location:   location,
		FilesCount: len(files),
	})

	return location, nil
}

// withDefaults returns a copy of the workflow with the configured region applied.
func (g *Generation) withDefaults(workflow *models.Workflow) *models.Workflow {
	copied := *workflow
	if copied.Metadata.Region == "" {
		copied.Metadata.Region = g.defaults.DefaultRegion
	}

	return &copied
}

func (g *Generation) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if g.publisher == nil {
		return
	}

	if err := g.publisher.Publish(ctx, workflowID, event); err != nil {
		g.logger.WarnContext(ctx, "Failed to publish event",
			"workflow_id", workflowID,
			"event_type", event.GetType(),
			"error", err,
		)
	}
}

func sortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
