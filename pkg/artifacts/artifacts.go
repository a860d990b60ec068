// Package artifacts generates the deployable source files of Cloud Function and Cloud Run nodes.
package artifacts

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/dukex/flowforge/pkg/collaborator"
	"github.com/dukex/flowforge/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("artifacts").Funcs(template.FuncMap{
	"pyident": PythonIdentifier,
	"upper":   strings.ToUpper,
}).ParseFS(templateFS, "templates/*.tmpl"))

// NodeError reports an artifact generation failure for a single node.
type NodeError struct {
	NodeID string
	Op     string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Generator produces the file set of deployable nodes.
type Generator struct {
	producer collaborator.Producer
	logger   *slog.Logger
}

// NewGenerator creates a generator. The producer may be nil, in which case enriched generation
// fails with collaborator.ErrNotConfigured.
func NewGenerator(producer collaborator.Producer, logger *slog.Logger) *Generator {
	return &Generator{
		producer: producer,
		logger:   logger.With("module", "artifacts"),
	}
}

// Generate returns the files of a Cloud Function or Cloud Run node keyed by relative path.
// Other node types yield an empty map. In enriched mode the function entry point or the service
// Dockerfile comes from the producer; the remaining files are always rendered from templates.
func (g *Generator) Generate(ctx context.Context, node *models.WorkflowNode, enrich bool) (map[string]string, error) {
	switch node.Type {
	case models.NodeTypeCloudFunction:
		return g.functionFiles(ctx, node, enrich)
	case models.NodeTypeCloudRun:
		return g.serviceFiles(ctx, node, enrich)
	default:
		return map[string]string{}, nil
	}
}

func (g *Generator) functionFiles(ctx context.Context, node *models.WorkflowNode, enrich bool) (map[string]string, error) {
	data := newTemplateData(node)
	dir := path.Join("functions", data.ResourceName)

	var (
		mainPy string
		err    error
	)

	if enrich {
		mainPy, err = g.produce(ctx, node, FunctionPrompt(node), "python")
	} else {
		mainPy, err = render("function_main.py.tmpl", data)
	}

	if err != nil {
		return nil, &NodeError{NodeID: node.ID, Op: "generate function", Err: err}
	}

	requirements, err := render("function_requirements.txt.tmpl", data)
	if err != nil {
		return nil, &NodeError{NodeID: node.ID, Op: "generate function", Err: err}
	}

	return map[string]string{
		path.Join(dir, "main.py"):          mainPy,
		path.Join(dir, "requirements.txt"): requirements,
	}, nil
}

func (g *Generator) serviceFiles(ctx context.Context, node *models.WorkflowNode, enrich bool) (map[string]string, error) {
	data := newTemplateData(node)
	dir := path.Join("services", data.ResourceName)

	var (
		dockerfile string
		err        error
	)

	if enrich {
		dockerfile, err = g.produce(ctx, node, DockerfilePrompt(node), "dockerfile")
	} else {
		dockerfile, err = render("service_dockerfile.tmpl", data)
	}

	if err != nil {
		return nil, &NodeError{NodeID: node.ID, Op: "generate service", Err: err}
	}

	mainPy, err := render("service_main.py.tmpl", data)
	if err != nil {
		return nil, &NodeError{NodeID: node.ID, Op: "generate service", Err: err}
	}

	requirements, err := render("service_requirements.txt.tmpl", data)
	if err != nil {
		return nil, &NodeError{NodeID: node.ID, Op: "generate service", Err: err}
	}

	return map[string]string{
		path.Join(dir, "Dockerfile"):       dockerfile,
		path.Join(dir, "main.py"):          mainPy,
		path.Join(dir, "requirements.txt"): requirements,
	}, nil
}

func (g *Generator) produce(ctx context.Context, node *models.WorkflowNode, prompt, hint string) (string, error) {
	if g.producer == nil {
		return "", collaborator.ErrNotConfigured
	}

	g.logger.InfoContext(ctx, "Generating enriched artifact", "node_id", node.ID, "hint", hint)

	response, err := g.producer.Produce(ctx, prompt)
	if err != nil {
		return "", err
	}

	content := collaborator.ExtractBlock(response, hint)
	if content == "" {
		return "", errors.Join(collaborator.ErrMalformedOutput, fmt.Errorf("no %s content in response", hint))
	}

	return content + "\n", nil
}

type envVar struct {
	Key   string
	Value string
}

type templateData struct {
	DisplayName    string
	Description    string
	ResourceName   string
	Memory         string
	CPU            string
	Timeout        string
	TimeoutSeconds int
	EnvVars        []envVar
}

func newTemplateData(node *models.WorkflowNode) templateData {
	data := templateData{
		DisplayName:  node.DisplayName(),
		Description:  node.Common().Description,
		ResourceName: node.ResourceName(),
	}

	var env map[string]string

	switch cfg := node.EffectiveConfig().(type) {
	case *models.CloudFunctionConfig:
		data.Memory, data.CPU, data.Timeout = cfg.Memory, cfg.CPU, cfg.Timeout
		env = cfg.EnvVars
	case *models.CloudRunConfig:
		data.Memory, data.CPU, data.Timeout = cfg.Memory, cfg.CPU, cfg.Timeout
		env = cfg.EnvVars
	}

	data.EnvVars = sortedEnv(env)
	data.TimeoutSeconds = timeoutSeconds(data.Timeout)

	return data
}

func sortedEnv(env map[string]string) []envVar {
	vars := make([]envVar, 0, len(env))
	for key, value := range env {
		vars = append(vars, envVar{Key: key, Value: value})
	}

	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })

	return vars
}

// timeoutSeconds accepts "60", "60s" or any time.ParseDuration value; anything else is 0.
func timeoutSeconds(timeout string) int {
	timeout = strings.TrimSpace(timeout)
	if timeout == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(timeout); err == nil {
		return seconds
	}

	if d, err := time.ParseDuration(timeout); err == nil {
		return int(d.Seconds())
	}

	return 0
}

// PythonIdentifier turns a resource name into a valid Python identifier; it is the entry point
// name of generated functions.
func PythonIdentifier(name string) string {
	var b strings.Builder

	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r) || (unicode.IsDigit(r) && i > 0):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteString("_")
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	if b.Len() == 0 {
		return "handler"
	}

	return b.String()
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}

	return buf.String(), nil
}
