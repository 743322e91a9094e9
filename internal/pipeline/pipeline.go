// Package pipeline runs the push-to-deploy state machine: a git ref is
// classified to an environment, the packaged function is uploaded to
// the artifact bucket, and the stack template is rendered, validated
// and deployed. Each run advances Triggered -> Classified -> Built ->
// Deployed; a ref with no target ends at Skipped and a step error ends
// at Failed. Steps run sequentially, one run per trigger, no retries.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"gopkg.in/yaml.v3"

	"github.com/antenna-three/fgo-farming-solver-api/internal/dao/deploydao"
	"github.com/antenna-three/fgo-farming-solver-api/internal/env"
	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
	"github.com/antenna-three/fgo-farming-solver-api/internal/policy"
	"github.com/antenna-three/fgo-farming-solver-api/internal/services"
	"github.com/antenna-three/fgo-farming-solver-api/internal/template"
	"github.com/antenna-three/fgo-farming-solver-api/internal/utils"
)

// State is the pipeline run state.
type State string

const (
	StateTriggered  State = "TRIGGERED"
	StateClassified State = "CLASSIFIED"
	StateBuilt      State = "BUILT"
	StateDeployed   State = "DEPLOYED"
	StateSkipped    State = "SKIPPED"
	StateFailed     State = "FAILED"
)

// ArtifactUploader uploads the packaged function.
type ArtifactUploader interface {
	Upload(ctx context.Context, key string, body io.Reader) (string, error)
	Bucket() string
}

// StackDeployer creates or updates the stack.
type StackDeployer interface {
	Deploy(ctx context.Context, stackName, templateBody string, parameters []types.Parameter) (*services.DeployResult, error)
}

// RunRecorder persists deploy run records.
type RunRecorder interface {
	Create(ctx context.Context, input deploydao.CreateInput) (deploydao.Record, error)
	UpdateStatus(ctx context.Context, input deploydao.UpdateInput) error
}

// Input triggers one pipeline run.
type Input struct {
	Ref          string    // git ref, e.g. refs/heads/main
	Version      string    // version label for the artifact key
	ArtifactBody io.Reader // packaged bootstrap zip
	StackName    string    // optional stack name override
}

// Run is the outcome of one pipeline run.
type Run struct {
	State     State
	Env       env.Environment
	StackName string
	RunID     deploydao.ID
	Deploy    *services.DeployResult
}

// Pipeline wires the run state machine to its services.
type Pipeline struct {
	artifacts ArtifactUploader
	stacks    StackDeployer
	validator *policy.Validator
	recorder  RunRecorder
}

func New(artifacts ArtifactUploader, stacks StackDeployer, validator *policy.Validator, recorder RunRecorder) *Pipeline {
	return &Pipeline{
		artifacts: artifacts,
		stacks:    stacks,
		validator: validator,
		recorder:  recorder,
	}
}

// Execute runs the state machine for one trigger. A ref with no deploy
// target is an explicit no-op: the run ends Skipped with no build or
// deploy action taken and no error returned.
func (p *Pipeline) Execute(ctx context.Context, input Input) (*Run, error) {
	logger := zerolog.Ctx(ctx)
	run := &Run{State: StateTriggered}

	target, err := Classify(input.Ref)
	if err != nil {
		if stderrors.Is(err, errors.ErrNoDeployTarget) {
			logger.Info().
				Str("ref", input.Ref).
				Msg("Ref matches no deploy target, skipping run")
			run.State = StateSkipped
			return run, nil
		}
		return nil, err
	}
	run.State = StateClassified
	run.Env = target

	if _, err := env.Resolve(target); err != nil {
		return nil, err
	}

	run.StackName = input.StackName
	if run.StackName == "" {
		run.StackName = fmt.Sprintf("%s-%s", target, deploydao.StackBaseName)
	}

	version := input.Version
	if version == "" {
		version = time.Now().UTC().Format("20060102150405")
	}

	record, err := p.recorder.Create(ctx, deploydao.CreateInput{
		Env:       target.String(),
		SK:        ksuid.New().String(),
		Ref:       input.Ref,
		Version:   version,
		StackName: run.StackName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record deploy run: %w", err)
	}
	run.RunID = record.GetID()

	logger.Info().
		Str("ref", input.Ref).
		Str("env", target.String()).
		Str("version", version).
		Str("stack_name", run.StackName).
		Msg("Classified ref to deploy target")

	if err := p.setStatus(ctx, record, deploydao.RunStatusInProgress, nil); err != nil {
		logger.Warn().Err(err).Msg("Failed to update deploy run status")
	}

	codeURI, err := p.build(ctx, target, version, input.ArtifactBody)
	if err != nil {
		p.fail(ctx, record, err)
		return nil, err
	}
	run.State = StateBuilt

	result, err := p.deploy(ctx, target, run.StackName, codeURI)
	if err != nil {
		p.fail(ctx, record, err)
		return nil, err
	}
	run.State = StateDeployed
	run.Deploy = result

	if err := p.setStatus(ctx, record, deploydao.RunStatusSuccess, nil); err != nil {
		logger.Warn().Err(err).Msg("Failed to update deploy run status")
	}
	return run, nil
}

// build uploads the packaged function and returns its S3 URI.
func (p *Pipeline) build(ctx context.Context, target env.Environment, version string, body io.Reader) (string, error) {
	if body == nil {
		return "", fmt.Errorf("no artifact body to upload")
	}

	key := fmt.Sprintf("%s/%s/%s/bootstrap.zip", deploydao.StackBaseName, target, version)
	uri, err := p.artifacts.Upload(ctx, key, body)
	if err != nil {
		return "", fmt.Errorf("build step failed: %w", err)
	}
	return uri, nil
}

// deploy renders the template, checks it against the least-privilege
// policy, and creates or updates the stack with the Env parameter.
func (p *Pipeline) deploy(ctx context.Context, target env.Environment, stackName, codeURI string) (*services.DeployResult, error) {
	tmpl := template.New(codeURI)
	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("template validation failed: %w", err)
	}

	rendered, err := tmpl.Render()
	if err != nil {
		return nil, err
	}

	if p.validator != nil {
		var doc map[string]any
		if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse rendered template: %w", err)
		}
		result, err := p.validator.ValidateTemplate(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("policy validation error: %w", err)
		}
		if !result.Allowed {
			return nil, fmt.Errorf("policy violations: %v", result.Violations)
		}
	}

	params := utils.MergeParameters(map[string]string{
		"Env": target.String(),
	})

	result, err := p.stacks.Deploy(ctx, stackName, rendered, params)
	if err != nil {
		return nil, fmt.Errorf("deploy step failed: %w", err)
	}
	return result, nil
}

func (p *Pipeline) setStatus(ctx context.Context, record deploydao.Record, status deploydao.RunStatus, errorMsg *string) error {
	return p.recorder.UpdateStatus(ctx, deploydao.UpdateInput{
		PK:       record.PK,
		SK:       record.SK,
		Status:   &status,
		ErrorMsg: errorMsg,
	})
}

func (p *Pipeline) fail(ctx context.Context, record deploydao.Record, cause error) {
	logger := zerolog.Ctx(ctx)
	msg := cause.Error()
	if err := p.setStatus(ctx, record, deploydao.RunStatusFailed, &msg); err != nil {
		logger.Warn().Err(err).Msg("Failed to record deploy run failure")
	}
}
