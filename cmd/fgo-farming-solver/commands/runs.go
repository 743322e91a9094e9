package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/antenna-three/fgo-farming-solver-api/internal/dao/deploydao"
	"github.com/antenna-three/fgo-farming-solver-api/internal/di"
	"github.com/antenna-three/fgo-farming-solver-api/internal/env"
)

// RunsCommand returns the runs command for listing recorded deploy runs.
func RunsCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recorded deploy runs for an environment",
		Description: `Lists the deploy runs recorded in DynamoDB for an environment,
newest first.

Examples:
  fgo-farming-solver runs --env prod
  fgo-farming-solver runs --env dev --region ap-northeast-1`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Aliases:  []string{"e"},
				Usage:    "Environment to list runs for (dev or prod)",
				Required: true,
				EnvVars:  []string{"ENV"},
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region",
				Value:   "ap-northeast-1",
				EnvVars: []string{"AWS_REGION"},
			},
		},
		Action: func(c *cli.Context) error {
			return runsAction(c, logger)
		},
	}
}

func runsAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	target, err := env.Parse(c.String("env"))
	if err != nil {
		return err
	}

	container, err := di.New(target.String(),
		di.WithRegion(c.String("region")),
		di.WithProviders(di.ProvideDeployDAO),
	)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	dao := di.MustGet[*deploydao.DAO](container)
	records, err := dao.Query(ctx, target.String())
	if err != nil {
		return fmt.Errorf("failed to query deploy runs: %w", err)
	}

	if len(records) == 0 {
		logger.Info().Str("env", target.String()).Msg("No deploy runs recorded")
		return nil
	}

	for _, record := range records {
		fmt.Fprintf(c.App.Writer, "%-28s %-12s %-44s %s\n",
			record.SK, record.Status, record.Ref, record.Version)
	}
	return nil
}
