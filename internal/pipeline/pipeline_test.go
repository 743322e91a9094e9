package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antenna-three/fgo-farming-solver-api/internal/dao/deploydao"
	"github.com/antenna-three/fgo-farming-solver-api/internal/env"
	"github.com/antenna-three/fgo-farming-solver-api/internal/policy"
	"github.com/antenna-three/fgo-farming-solver-api/internal/services"
)

type fakeArtifacts struct {
	uploads []string
	err     error
}

func (f *fakeArtifacts) Upload(_ context.Context, key string, _ io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, key)
	return "s3://artifacts/" + key, nil
}

func (f *fakeArtifacts) Bucket() string { return "artifacts" }

type fakeStacks struct {
	deploys []string
	params  []types.Parameter
	err     error
}

func (f *fakeStacks) Deploy(_ context.Context, stackName, _ string, parameters []types.Parameter) (*services.DeployResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deploys = append(f.deploys, stackName)
	f.params = parameters
	return &services.DeployResult{StackName: stackName, StackID: stackName, Operation: "CREATE"}, nil
}

type fakeRecorder struct {
	created  []deploydao.CreateInput
	statuses []deploydao.RunStatus
}

func (f *fakeRecorder) Create(_ context.Context, input deploydao.CreateInput) (deploydao.Record, error) {
	f.created = append(f.created, input)
	return deploydao.Record{
		PK: deploydao.NewPK(input.Env),
		SK: input.SK,
	}, nil
}

func (f *fakeRecorder) UpdateStatus(_ context.Context, input deploydao.UpdateInput) error {
	f.statuses = append(f.statuses, *input.Status)
	return nil
}

func newTestPipeline(t *testing.T, artifacts *fakeArtifacts, stacks *fakeStacks, recorder *fakeRecorder) *Pipeline {
	t.Helper()
	validator, err := policy.NewValidator()
	require.NoError(t, err)
	return New(artifacts, stacks, validator, recorder)
}

func TestExecuteMainDeploysProd(t *testing.T) {
	artifacts := &fakeArtifacts{}
	stacks := &fakeStacks{}
	recorder := &fakeRecorder{}
	p := newTestPipeline(t, artifacts, stacks, recorder)

	run, err := p.Execute(context.Background(), Input{
		Ref:          "refs/heads/main",
		Version:      "42.abcdef0",
		ArtifactBody: strings.NewReader("zip"),
	})
	require.NoError(t, err)

	assert.Equal(t, StateDeployed, run.State)
	assert.Equal(t, env.Prod, run.Env)
	assert.Equal(t, "prod-fgo-farming-solver", run.StackName)

	require.Len(t, artifacts.uploads, 1)
	assert.Equal(t, "fgo-farming-solver/prod/42.abcdef0/bootstrap.zip", artifacts.uploads[0])

	require.Len(t, stacks.deploys, 1)
	require.Len(t, stacks.params, 1)
	assert.Equal(t, "Env", *stacks.params[0].ParameterKey)
	assert.Equal(t, "prod", *stacks.params[0].ParameterValue)

	// run record: created, then IN_PROGRESS, then SUCCESS
	require.Len(t, recorder.created, 1)
	assert.Equal(t, "prod", recorder.created[0].Env)
	assert.Equal(t, []deploydao.RunStatus{
		deploydao.RunStatusInProgress,
		deploydao.RunStatusSuccess,
	}, recorder.statuses)
}

func TestExecuteFeatureDeploysDev(t *testing.T) {
	artifacts := &fakeArtifacts{}
	stacks := &fakeStacks{}
	recorder := &fakeRecorder{}
	p := newTestPipeline(t, artifacts, stacks, recorder)

	run, err := p.Execute(context.Background(), Input{
		Ref:          "refs/heads/feature/drop-merge",
		Version:      "7.1234567",
		ArtifactBody: strings.NewReader("zip"),
	})
	require.NoError(t, err)

	assert.Equal(t, StateDeployed, run.State)
	assert.Equal(t, env.Dev, run.Env)
	assert.Equal(t, "dev-fgo-farming-solver", run.StackName)
	require.Len(t, stacks.params, 1)
	assert.Equal(t, "dev", *stacks.params[0].ParameterValue)
}

func TestExecuteUnmatchedRefSkips(t *testing.T) {
	refs := []string{
		"refs/heads/release/2.0",
		"refs/heads/main-fix",
		"refs/heads/feature/",
	}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			artifacts := &fakeArtifacts{}
			stacks := &fakeStacks{}
			recorder := &fakeRecorder{}
			p := newTestPipeline(t, artifacts, stacks, recorder)

			run, err := p.Execute(context.Background(), Input{
				Ref:          ref,
				ArtifactBody: strings.NewReader("zip"),
			})
			require.NoError(t, err)

			assert.Equal(t, StateSkipped, run.State)
			assert.Empty(t, artifacts.uploads)
			assert.Empty(t, stacks.deploys)
			assert.Empty(t, recorder.created)
			assert.Empty(t, recorder.statuses)
		})
	}
}

func TestExecuteBuildFailureHaltsRun(t *testing.T) {
	artifacts := &fakeArtifacts{err: fmt.Errorf("upload refused")}
	stacks := &fakeStacks{}
	recorder := &fakeRecorder{}
	p := newTestPipeline(t, artifacts, stacks, recorder)

	_, err := p.Execute(context.Background(), Input{
		Ref:          "main",
		ArtifactBody: strings.NewReader("zip"),
	})
	require.Error(t, err)

	assert.Empty(t, stacks.deploys)
	require.NotEmpty(t, recorder.statuses)
	assert.Equal(t, deploydao.RunStatusFailed, recorder.statuses[len(recorder.statuses)-1])
}

func TestExecuteDeployFailureRecordsFailed(t *testing.T) {
	artifacts := &fakeArtifacts{}
	stacks := &fakeStacks{err: fmt.Errorf("throttled")}
	recorder := &fakeRecorder{}
	p := newTestPipeline(t, artifacts, stacks, recorder)

	_, err := p.Execute(context.Background(), Input{
		Ref:          "main",
		ArtifactBody: strings.NewReader("zip"),
	})
	require.Error(t, err)
	assert.Equal(t, deploydao.RunStatusFailed, recorder.statuses[len(recorder.statuses)-1])
}

func TestExecuteWithoutArtifactFails(t *testing.T) {
	artifacts := &fakeArtifacts{}
	stacks := &fakeStacks{}
	recorder := &fakeRecorder{}
	p := newTestPipeline(t, artifacts, stacks, recorder)

	_, err := p.Execute(context.Background(), Input{Ref: "main"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no artifact body")
}
