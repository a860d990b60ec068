// Package deployment renders the deployment descriptors of a workflow: a Cloud Build config,
// a Terraform module and a shell deploy script.
package deployment

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dukex/flowforge/pkg/artifacts"
	"github.com/dukex/flowforge/pkg/models"
)

const (
	CloudBuildFile = "cloudbuild.yaml"
	TerraformFile  = "terraform/main.tf"
	ScriptFile     = "deploy.sh"

	// DefaultFunctionRuntime is the Cloud Functions runtime of generated functions.
	DefaultFunctionRuntime = "python311"
	defaultProjectID       = "your-project-id"
)

// Options control values that are not carried by the workflow itself.
type Options struct {
	DefaultProjectID string
	FunctionRuntime  string
	Format           models.TargetFormat
}

// Render returns the deployment descriptors keyed by relative path.
func Render(workflow *models.Workflow, opts Options) (map[string]string, error) {
	plan := newPlan(workflow, opts)

	cloudBuild, err := renderCloudBuild(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", CloudBuildFile, err)
	}

	terraform, err := renderTerraform(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", TerraformFile, err)
	}

	script, err := renderScript(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", ScriptFile, err)
	}

	return map[string]string{
		CloudBuildFile: cloudBuild,
		TerraformFile:  terraform,
		ScriptFile:     script,
	}, nil
}

type envVar struct {
	Key   string
	Value string
}

type topic struct {
	Name       string
	ResourceID string
}

type deployable struct {
	Name       string
	Source     string
	EntryPoint string
	Memory     string
	CPU        string
	Timeout    string
	EnvVars    []envVar
}

// plan is the deployment view of a workflow shared by all descriptors.
type plan struct {
	WorkflowName string
	Description  string
	ResourceID   string
	ProjectID    string
	KnownProject bool
	Region       string
	Runtime      string
	WorkflowFile string
	Schedule     string
	Functions    []deployable
	Services     []deployable
	Topics       []topic
}

func newPlan(workflow *models.Workflow, opts Options) plan {
	project := workflow.ProjectID(opts.DefaultProjectID)

	p := plan{
		WorkflowName: workflow.Metadata.Name,
		Description:  workflow.Metadata.Description,
		ResourceID:   identifier(workflow.Metadata.Name),
		ProjectID:    project,
		KnownProject: project != "" && project != defaultProjectID,
		Region:       workflow.Region(),
		Runtime:      opts.FunctionRuntime,
		WorkflowFile: "workflow." + opts.Format.Extension(),
		Schedule:     strings.TrimSpace(workflow.Metadata.Schedule),
	}

	if p.ProjectID == "" {
		p.ProjectID = defaultProjectID
	}

	if p.Runtime == "" {
		p.Runtime = DefaultFunctionRuntime
	}

	if p.Description == "" {
		p.Description = "Generated workflow"
	}

	seen := map[string]bool{}
	topicIDs := map[string]bool{}

	for _, node := range workflow.Nodes {
		if node == nil {
			continue
		}

		switch cfg := node.EffectiveConfig().(type) {
		case *models.CloudFunctionConfig:
			name := node.ResourceName()
			p.Functions = append(p.Functions, deployable{
				Name:       name,
				Source:     "functions/" + name,
				EntryPoint: artifacts.PythonIdentifier(name),
				Memory:     cfg.Memory,
				CPU:        cfg.CPU,
				Timeout:    cfg.Timeout,
				EnvVars:    sortedEnv(cfg.EnvVars),
			})
		case *models.CloudRunConfig:
			name := node.ResourceName()
			p.Services = append(p.Services, deployable{
				Name:    name,
				Source:  "services/" + name,
				Memory:  cfg.Memory,
				CPU:     cfg.CPU,
				Timeout: cfg.Timeout,
				EnvVars: sortedEnv(cfg.EnvVars),
			})
		case *models.PubSubPublishConfig:
			if cfg.TopicName != "" && !seen[cfg.TopicName] {
				seen[cfg.TopicName] = true
				p.Topics = append(p.Topics, topic{
					Name:       cfg.TopicName,
					ResourceID: uniqueIdentifier(identifier(cfg.TopicName), topicIDs),
				})
			}
		}
	}

	return p
}

func sortedEnv(env map[string]string) []envVar {
	vars := make([]envVar, 0, len(env))
	for key, value := range env {
		vars = append(vars, envVar{Key: key, Value: value})
	}

	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })

	return vars
}

// EnvList joins the environment variables as KEY=value pairs in key order.
func (d deployable) EnvList() string {
	pairs := make([]string, 0, len(d.EnvVars))
	for _, v := range d.EnvVars {
		pairs = append(pairs, v.Key+"="+v.Value)
	}

	return strings.Join(pairs, ",")
}

// identifier turns a name into a Terraform identifier: lower-case letters, digits, underscores.
func identifier(name string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	id := strings.TrimRight(b.String(), "_")

	if first, _ := utf8.DecodeRuneInString(id); id == "" || unicode.IsDigit(first) {
		id = strings.TrimRight("workflow_"+id, "_")
	}

	return id
}

// uniqueIdentifier suffixes id with _2, _3 and so on until it is absent from used, then records it.
func uniqueIdentifier(id string, used map[string]bool) string {
	candidate := id
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}

	used[candidate] = true

	return candidate
}
