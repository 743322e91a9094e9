package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	apperrors "github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

// CloudFormationAPI is the slice of the CloudFormation client the
// deploy service needs.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
}

// CloudFormationService deploys the solver stack: create when the
// stack does not exist yet, update otherwise.
type CloudFormationService struct {
	client CloudFormationAPI
}

// DeployResult describes a completed stack operation.
type DeployResult struct {
	StackName string `json:"stack_name"`
	StackID   string `json:"stack_id"`
	Operation string `json:"operation"`
}

func NewCloudFormationService(client CloudFormationAPI) *CloudFormationService {
	return &CloudFormationService{client: client}
}

// Deploy creates or updates the named stack with the given template
// body and parameters. "No updates are to be performed" counts as a
// successful no-op update.
func (s *CloudFormationService) Deploy(ctx context.Context, stackName, templateBody string, parameters []types.Parameter) (result *DeployResult, err error) {
	logger := zerolog.Ctx(ctx)

	defer func(begin time.Time) {
		logger.Info().
			Interface("error", err).
			Str("stack_name", stackName).
			Dur("duration", time.Since(begin)).
			Msg("Stack deploy completed")
	}(time.Now())

	switch err = s.describeStack(ctx, stackName); {
	case err == nil:
		result, err = s.updateStack(ctx, stackName, templateBody, parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to update stack: %w", err)
		}
		result.Operation = "UPDATE"
		return result, nil
	case stderrors.Is(err, apperrors.ErrStackNotFound):
		result, err = s.createStack(ctx, stackName, templateBody, parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to create stack: %w", err)
		}
		result.Operation = "CREATE"
		return result, nil
	default:
		return nil, fmt.Errorf("failed to check if stack exists: %w", err)
	}
}

// describeStack returns ErrStackNotFound when the stack does not exist
// yet, distinguishing "create" from a real DescribeStacks failure.
func (s *CloudFormationService) describeStack(ctx context.Context, stackName string) error {
	_, err := s.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if stderrors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "ValidationError" || strings.Contains(apiErr.ErrorMessage(), "does not exist") {
				return fmt.Errorf("%w: %s", apperrors.ErrStackNotFound, stackName)
			}
		}
		return err
	}
	return nil
}

func (s *CloudFormationService) createStack(ctx context.Context, stackName, templateBody string, parameters []types.Parameter) (*DeployResult, error) {
	result, err := s.client.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(templateBody),
		Parameters:   parameters,
		Capabilities: []types.Capability{
			types.CapabilityCapabilityIam,
			types.CapabilityCapabilityNamedIam,
			types.CapabilityCapabilityAutoExpand,
		},
		Tags: []types.Tag{
			{
				Key:   aws.String("ManagedBy"),
				Value: aws.String("fgo-farming-solver-api"),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &DeployResult{
		StackName: stackName,
		StackID:   aws.ToString(result.StackId),
	}, nil
}

func (s *CloudFormationService) updateStack(ctx context.Context, stackName, templateBody string, parameters []types.Parameter) (*DeployResult, error) {
	logger := zerolog.Ctx(ctx)

	result, err := s.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: aws.String(templateBody),
		Parameters:   parameters,
		Capabilities: []types.Capability{
			types.CapabilityCapabilityIam,
			types.CapabilityCapabilityNamedIam,
			types.CapabilityCapabilityAutoExpand,
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if stderrors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "ValidationError" &&
				strings.Contains(apiErr.ErrorMessage(), "No updates") {
				logger.Info().Str("stack_name", stackName).Msg("No updates needed for stack")
				return &DeployResult{
					StackName: stackName,
					StackID:   stackName,
				}, nil
			}
		}
		return nil, err
	}

	return &DeployResult{
		StackName: stackName,
		StackID:   aws.ToString(result.StackId),
	}, nil
}
