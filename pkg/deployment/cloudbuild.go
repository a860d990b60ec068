package deployment

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

const cloudSDKImage = "gcr.io/google.com/cloudsdktool/cloud-sdk"

type cloudBuild struct {
	Steps   []buildStep  `yaml:"steps"`
	Options buildOptions `yaml:"options"`
}

type buildStep struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Entrypoint string   `yaml:"entrypoint"`
	Args       []string `yaml:"args"`
}

type buildOptions struct {
	Logging string `yaml:"logging"`
}

func renderCloudBuild(p plan) (string, error) {
	config := cloudBuild{Options: buildOptions{Logging: "CLOUD_LOGGING_ONLY"}}

	for _, fn := range p.Functions {
		args := []string{
			"functions", "deploy", fn.Name,
			"--runtime=" + p.Runtime,
			"--trigger-http",
			"--entry-point=" + fn.EntryPoint,
			"--source=" + fn.Source,
			"--region=" + p.Region,
		}
		args = append(args, resourceFlags(fn)...)

		config.Steps = append(config.Steps, gcloudStep("deploy-function-"+fn.Name, args))
	}

	for _, svc := range p.Services {
		args := []string{
			"run", "deploy", svc.Name,
			"--source=" + svc.Source,
			"--region=" + p.Region,
			"--platform=managed",
		}
		args = append(args, resourceFlags(svc)...)

		config.Steps = append(config.Steps, gcloudStep("deploy-service-"+svc.Name, args))
	}

	config.Steps = append(config.Steps, gcloudStep("deploy-workflow", []string{
		"workflows", "deploy", p.ResourceID,
		"--source=" + p.WorkflowFile,
		"--location=" + p.Region,
		"--description=" + p.Description,
	}))

	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", err
	}

	if err := encoder.Close(); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func gcloudStep(id string, args []string) buildStep {
	return buildStep{ID: id, Name: cloudSDKImage, Entrypoint: "gcloud", Args: args}
}

func resourceFlags(d deployable) []string {
	var flags []string

	if d.Memory != "" {
		flags = append(flags, "--memory="+d.Memory)
	}

	if d.CPU != "" {
		flags = append(flags, "--cpu="+d.CPU)
	}

	if d.Timeout != "" {
		flags = append(flags, "--timeout="+d.Timeout)
	}

	if len(d.EnvVars) > 0 {
		flags = append(flags, "--set-env-vars="+d.EnvList())
	}

	return flags
}
