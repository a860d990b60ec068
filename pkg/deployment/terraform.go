package deployment

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

const workflowExecutionsURI = "https://workflowexecutions.googleapis.com/v1/%s/executions"

func renderTerraform(p plan) (string, error) {
	file := hclwrite.NewEmptyFile()
	root := file.Body()

	terraform := root.AppendNewBlock("terraform", nil).Body()
	providers := terraform.AppendNewBlock("required_providers", nil).Body()
	providers.SetAttributeValue("google", cty.ObjectVal(map[string]cty.Value{
		"source":  cty.StringVal("hashicorp/google"),
		"version": cty.StringVal(">= 5.0"),
	}))
	root.AppendNewline()

	projectVar := root.AppendNewBlock("variable", []string{"project_id"}).Body()
	projectVar.SetAttributeRaw("type", hclwrite.TokensForIdentifier("string"))
	projectVar.SetAttributeValue("description", cty.StringVal("Google Cloud project to deploy into"))

	if p.KnownProject {
		projectVar.SetAttributeValue("default", cty.StringVal(p.ProjectID))
	}

	root.AppendNewline()

	regionVar := root.AppendNewBlock("variable", []string{"region"}).Body()
	regionVar.SetAttributeRaw("type", hclwrite.TokensForIdentifier("string"))
	regionVar.SetAttributeValue("default", cty.StringVal(p.Region))
	root.AppendNewline()

	provider := root.AppendNewBlock("provider", []string{"google"}).Body()
	provider.SetAttributeTraversal("project", variable("project_id"))
	provider.SetAttributeTraversal("region", variable("region"))
	root.AppendNewline()

	workflow := root.AppendNewBlock("resource", []string{"google_workflows_workflow", p.ResourceID}).Body()
	workflow.SetAttributeValue("name", cty.StringVal(p.ResourceID))
	workflow.SetAttributeTraversal("region", variable("region"))
	workflow.SetAttributeValue("description", cty.StringVal(p.Description))
	workflow.SetAttributeRaw("source_contents", hclwrite.TokensForFunctionCall("file",
		hclwrite.TokensForValue(cty.StringVal("../"+p.WorkflowFile)),
	))

	for _, topic := range p.Topics {
		root.AppendNewline()

		block := root.AppendNewBlock("resource", []string{"google_pubsub_topic", topic.ResourceID}).Body()
		block.SetAttributeValue("name", cty.StringVal(topic.Name))
	}

	if p.Schedule != "" {
		root.AppendNewline()
		appendScheduler(root, p)
	}

	return string(hclwrite.Format(file.Bytes())), nil
}

func appendScheduler(root *hclwrite.Body, p plan) {
	account := root.AppendNewBlock("variable", []string{"scheduler_service_account"}).Body()
	account.SetAttributeRaw("type", hclwrite.TokensForIdentifier("string"))
	account.SetAttributeValue("description", cty.StringVal("Service account used by Cloud Scheduler to start executions"))
	root.AppendNewline()

	job := root.AppendNewBlock("resource", []string{"google_cloud_scheduler_job", p.ResourceID + "_schedule"}).Body()
	job.SetAttributeValue("name", cty.StringVal(p.ResourceID+"_schedule"))
	job.SetAttributeValue("schedule", cty.StringVal(p.Schedule))
	job.SetAttributeTraversal("region", variable("region"))

	target := job.AppendNewBlock("http_target", nil).Body()
	target.SetAttributeValue("http_method", cty.StringVal("POST"))
	target.SetAttributeRaw("uri", hclwrite.TokensForFunctionCall("format",
		hclwrite.TokensForValue(cty.StringVal(workflowExecutionsURI)),
		hclwrite.TokensForTraversal(hcl.Traversal{
			hcl.TraverseRoot{Name: "google_workflows_workflow"},
			hcl.TraverseAttr{Name: p.ResourceID},
			hcl.TraverseAttr{Name: "id"},
		}),
	))

	token := target.AppendNewBlock("oauth_token", nil).Body()
	token.SetAttributeTraversal("service_account_email", variable("scheduler_service_account"))
}

func variable(name string) hcl.Traversal {
	return hcl.Traversal{
		hcl.TraverseRoot{Name: "var"},
		hcl.TraverseAttr{Name: name},
	}
}
