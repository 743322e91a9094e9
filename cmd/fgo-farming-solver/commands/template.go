package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/antenna-three/fgo-farming-solver-api/internal/policy"
	"github.com/antenna-three/fgo-farming-solver-api/internal/template"
)

// TemplateCommand returns the template command for rendering and
// checking the stack template without deploying it.
func TemplateCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Render the CloudFormation template to stdout or a file",
		Description: `Renders the solver stack template the pipeline would deploy.

Useful for reviewing changes before a deploy, or for feeding the
template to external tooling. With --check the rendered template is
also run through the least-privilege policy.

Examples:
  # Print the template
  fgo-farming-solver template

  # Write it to a file and run the policy check
  fgo-farming-solver template --check --output template.yml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "code-uri",
				Usage: "S3 URI for the function code",
				Value: "s3://fgo-farming-solver-artifacts-dev/bootstrap.zip",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the template to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Run the rendered template through the IAM policy check",
			},
		},
		Action: func(c *cli.Context) error {
			return templateAction(c, logger)
		},
	}
}

func templateAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	tmpl := template.New(c.String("code-uri"))
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}

	rendered, err := tmpl.Render()
	if err != nil {
		return err
	}

	if c.Bool("check") {
		validator, err := policy.NewValidator()
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
			return fmt.Errorf("failed to parse rendered template: %w", err)
		}
		result, err := validator.ValidateTemplate(ctx, doc)
		if err != nil {
			return fmt.Errorf("policy validation error: %w", err)
		}
		if !result.Allowed {
			return fmt.Errorf("policy violations: %v", result.Violations)
		}
		logger.Info().Msg("Policy check passed")
	}

	if output := c.String("output"); output != "" {
		if err := os.WriteFile(output, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("failed to write template: %w", err)
		}
		logger.Info().Str("path", output).Msg("Wrote template")
		return nil
	}

	_, err = fmt.Fprint(c.App.Writer, rendered)
	return err
}
