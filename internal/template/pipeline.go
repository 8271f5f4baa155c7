package template

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PipelineFileName is the build-pipeline definition committed into every
// provisioned repository. It always overwrites any template-provided version:
// the generated pipeline is what wires the build to the target service, so it
// must be authoritative.
const PipelineFileName = "cloudbuild.yaml"

const pipelineImage = "gcr.io/$PROJECT_ID/$REPO_NAME:$SHORT_SHA"

type pipelineStep struct {
	Name    string   `yaml:"name"`
	ID      string   `yaml:"id,omitempty"`
	Args    []string `yaml:"args"`
	WaitFor []string `yaml:"waitFor,omitempty"`
}

type pipeline struct {
	Steps []pipelineStep `yaml:"steps"`
}

// GeneratePipeline produces the pipeline document: build an image tagged with
// the short revision hash, push it, deploy it with unauthenticated access,
// then explicitly bind the allow-all-callers invoker policy once the deploy
// step has finished.
func GeneratePipeline(serviceName, region string) ([]byte, error) {
	doc := pipeline{Steps: []pipelineStep{
		{
			Name: "gcr.io/cloud-builders/docker",
			Args: []string{"build", "-t", pipelineImage, "."},
		},
		{
			Name: "gcr.io/cloud-builders/docker",
			Args: []string{"push", pipelineImage},
		},
		{
			Name: "gcr.io/cloud-builders/gcloud",
			ID:   "Deploy",
			Args: []string{
				"run", "deploy", serviceName,
				"--image", pipelineImage,
				"--platform", "managed",
				"--region", region,
				"--allow-unauthenticated",
			},
		},
		{
			Name: "gcr.io/cloud-builders/gcloud",
			ID:   "Set-Public-Policy",
			Args: []string{
				"run", "services", "add-iam-policy-binding", serviceName,
				"--member=allUsers",
				"--role=roles/run.invoker",
				"--platform", "managed",
				"--region", region,
			},
			WaitFor: []string{"Deploy"},
		},
	}}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal pipeline: %w", err)
	}
	return out, nil
}

// WritePipelineFile writes the generated pipeline into the working tree root.
func WritePipelineFile(workDir, serviceName, region string) error {
	content, err := GeneratePipeline(serviceName, region)
	if err != nil {
		return err
	}
	path := filepath.Join(workDir, PipelineFileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", PipelineFileName, err)
	}
	log.Printf("[Template] Pipeline file written: %s", PipelineFileName)
	return nil
}
