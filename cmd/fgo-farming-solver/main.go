package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/antenna-three/fgo-farming-solver-api/cmd/fgo-farming-solver/commands"
	"github.com/antenna-three/fgo-farming-solver-api/internal/di"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "fgo-farming-solver",
		Usage: "Deployment toolkit for the farming solver API",
		Description: `Builds and deploys the farming solver stack.

Pushes to main deploy the prod environment, pushes to feature/*
branches deploy dev; any other ref is not a deploy target.`,
		Commands: []*cli.Command{
			commands.DeployCommand(&logger),
			commands.TemplateCommand(&logger),
			commands.RunsCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
