package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/antenna-three/fgo-farming-solver-api/internal/di"
	apperrors "github.com/antenna-three/fgo-farming-solver-api/internal/errors"
	"github.com/antenna-three/fgo-farming-solver-api/internal/pipeline"
)

// DeployCommand returns the deploy command that runs one pipeline run
// for a git ref.
func DeployCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Classify a git ref and deploy the solver stack it targets",
		Description: `Runs the deploy pipeline for a single git ref.

The ref decides the environment: main deploys prod, feature/* branches
deploy dev, and any other ref is skipped without touching AWS.

Examples:
  # Deploy prod from main
  fgo-farming-solver deploy --ref refs/heads/main --artifact .build/bootstrap.zip

  # Deploy dev from a feature branch
  fgo-farming-solver deploy --ref refs/heads/feature/new-quests --artifact .build/bootstrap.zip`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ref",
				Usage:    "Git ref that triggered the deploy, e.g. refs/heads/main",
				Required: true,
				EnvVars:  []string{"GITHUB_REF"},
			},
			&cli.StringFlag{
				Name:     "artifact",
				Aliases:  []string{"a"},
				Usage:    "Path to the packaged bootstrap.zip to upload",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "version",
				Usage:   "Version label for the artifact key (defaults to a UTC timestamp)",
				EnvVars: []string{"GITHUB_SHA"},
			},
			&cli.StringFlag{
				Name:  "stack-name",
				Usage: "Override the CloudFormation stack name",
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region to deploy into",
				Value:   "ap-northeast-1",
				EnvVars: []string{"AWS_REGION"},
			},
			&cli.StringFlag{
				Name:    "access-key-id",
				Usage:   "AWS access key id (falls back to the default credential chain)",
				EnvVars: []string{"AWS_ACCESS_KEY_ID"},
			},
			&cli.StringFlag{
				Name:    "secret-access-key",
				Usage:   "AWS secret access key",
				EnvVars: []string{"AWS_SECRET_ACCESS_KEY"},
			},
		},
		Action: func(c *cli.Context) error {
			return deployAction(c, logger)
		},
	}
}

func deployAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)
	ref := c.String("ref")

	// Classify before touching AWS so non-deploy refs exit cleanly with
	// zero actions taken.
	target, err := pipeline.Classify(ref)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoDeployTarget) {
			logger.Info().Str("ref", ref).Msg("Ref matches no deploy target, nothing to do")
			return nil
		}
		return err
	}

	container, err := di.New(target.String(),
		di.WithRegion(c.String("region")),
		di.WithStaticCredentials(c.String("access-key-id"), c.String("secret-access-key")),
		di.WithProviders(
			di.ProvideDeployDAO,
			di.ProvideArtifactStore,
			di.ProvideCloudFormationService,
			di.ProvideValidator,
			di.ProvidePipeline,
		),
	)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	stsClient := di.MustGet[*sts.Client](container)
	identity, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}
	logger.Info().
		Str("account", aws.ToString(identity.Account)).
		Str("arn", aws.ToString(identity.Arn)).
		Str("env", target.String()).
		Msg("Deploying")

	artifact, err := os.Open(c.String("artifact"))
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = artifact.Close() }()

	started := time.Now()
	pipe := di.MustGet[*pipeline.Pipeline](container)
	run, err := pipe.Execute(ctx, pipeline.Input{
		Ref:          ref,
		Version:      c.String("version"),
		ArtifactBody: artifact,
		StackName:    c.String("stack-name"),
	})
	if err != nil {
		return err
	}

	event := logger.Info().
		Str("state", string(run.State)).
		Str("stack_name", run.StackName).
		Dur("elapsed", time.Since(started))
	if run.Deploy != nil {
		event = event.
			Str("stack_id", run.Deploy.StackID).
			Str("operation", run.Deploy.Operation)
	}
	event.Msg("Deploy run finished")
	return nil
}
