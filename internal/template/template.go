// Package template builds the SAM template for the solver stack in Go
// and renders it to CloudFormation YAML. The Env parameter selects a
// row in each mapping table; the mapping tables themselves come from
// internal/env so the template and the runtime can never drift apart.
package template

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/antenna-three/fgo-farming-solver-api/internal/env"
	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

const (
	// FunctionLogicalID is the logical ID of the solver function.
	FunctionLogicalID = "SolverFunction"

	// ApiLogicalID is the logical ID of the HTTP API.
	ApiLogicalID = "SolverApi"

	transform = "AWS::Serverless-2016-10-31"

	memorySize     = 256
	timeoutSeconds = 30
)

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string   `yaml:"Type"`
	Default       string   `yaml:"Default,omitempty"`
	AllowedValues []string `yaml:"AllowedValues,omitempty"`
}

// Resource is a CloudFormation resource declaration.
type Resource struct {
	Type       string         `yaml:"Type"`
	Properties map[string]any `yaml:"Properties"`
}

// Output is a CloudFormation stack output.
type Output struct {
	Description string `yaml:"Description,omitempty"`
	Value       any    `yaml:"Value"`
}

// Template is the full SAM template document.
type Template struct {
	AWSTemplateFormatVersion string                                  `yaml:"AWSTemplateFormatVersion"`
	Transform                string                                  `yaml:"Transform"`
	Description              string                                  `yaml:"Description,omitempty"`
	Parameters               map[string]Parameter                    `yaml:"Parameters"`
	Mappings                 map[string]map[string]map[string]string `yaml:"Mappings"`
	Resources                map[string]Resource                     `yaml:"Resources"`
	Outputs                  map[string]Output                       `yaml:"Outputs"`
}

// Ref returns a CloudFormation Ref intrinsic.
func Ref(name string) map[string]any {
	return map[string]any{"Ref": name}
}

// GetAtt returns a CloudFormation Fn::GetAtt intrinsic.
func GetAtt(logicalID, attribute string) map[string]any {
	return map[string]any{"Fn::GetAtt": []string{logicalID, attribute}}
}

// FindInMap resolves a mapping table row for the Env parameter.
func FindInMap(table string) map[string]any {
	return map[string]any{"Fn::FindInMap": []any{table, Ref("Env"), "Name"}}
}

// New builds the solver stack template. CodeUri points at the packaged
// bootstrap binary produced by the pipeline's build step.
func New(codeURI string) *Template {
	allowed := make([]string, 0, len(env.Environments))
	for _, e := range env.Environments {
		allowed = append(allowed, e.String())
	}

	return &Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Transform:                transform,
		Description:              "fgo-farming-solver-api: lap optimizer behind a single GET endpoint",
		Parameters: map[string]Parameter{
			"Env": {
				Type:          "String",
				Default:       env.Dev.String(),
				AllowedValues: allowed,
			},
		},
		Mappings: env.Mappings(),
		Resources: map[string]Resource{
			ApiLogicalID: {
				Type: "AWS::Serverless::Api",
				Properties: map[string]any{
					"StageName": FindInMap("Api"),
				},
			},
			FunctionLogicalID: {
				Type: "AWS::Serverless::Function",
				Properties: map[string]any{
					"CodeUri":    codeURI,
					"Handler":    "bootstrap",
					"Runtime":    "provided.al2023",
					"MemorySize": memorySize,
					"Timeout":    timeoutSeconds,
					"Environment": map[string]any{
						"Variables": map[string]any{
							"BUCKET_NAME": FindInMap("Bucket"),
							"TABLE_NAME":  FindInMap("Table"),
						},
					},
					"Policies": []any{
						map[string]any{
							"S3ReadPolicy": map[string]any{
								"BucketName": FindInMap("Bucket"),
							},
						},
						map[string]any{
							"DynamoDBWritePolicy": map[string]any{
								"TableName": FindInMap("Table"),
							},
						},
					},
					"Events": map[string]any{
						"Get": map[string]any{
							"Type": "Api",
							"Properties": map[string]any{
								"Path":      "/",
								"Method":    "get",
								"RestApiId": Ref(ApiLogicalID),
							},
						},
					},
				},
			},
		},
		Outputs: map[string]Output{
			"SolverFunction": {
				Description: "Solver Lambda function ARN",
				Value:       GetAtt(FunctionLogicalID, "Arn"),
			},
			"SolverFunctionRole": {
				Description: "Implicit IAM role created for the solver function",
				Value:       GetAtt(FunctionLogicalID+"Role", "Arn"),
			},
		},
	}
}

// Validate checks the template invariants before a deploy: the Env
// parameter must carry an allow-list, and every allowed value must
// resolve in every mapping table. A miss here would otherwise fail
// later inside the provisioning engine as an unresolvable FindInMap.
func (t *Template) Validate() error {
	p, ok := t.Parameters["Env"]
	if !ok {
		return fmt.Errorf("template has no Env parameter")
	}
	if len(p.AllowedValues) == 0 {
		return fmt.Errorf("Env parameter has no AllowedValues constraint")
	}

	for table, rows := range t.Mappings {
		for _, allowed := range p.AllowedValues {
			row, ok := rows[allowed]
			if !ok {
				return fmt.Errorf("%w: %s[%s]", errors.ErrMappingIncomplete, table, allowed)
			}
			if row["Name"] == "" {
				return fmt.Errorf("%w: %s[%s] has empty Name", errors.ErrMappingIncomplete, table, allowed)
			}
		}
	}

	if _, ok := t.Resources[FunctionLogicalID]; !ok {
		return fmt.Errorf("template has no %s resource", FunctionLogicalID)
	}
	return nil
}

// Render serializes the template to CloudFormation YAML. yaml.v3
// orders map keys, so renders are stable across runs.
func (t *Template) Render() (string, error) {
	out, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return string(out), nil
}
