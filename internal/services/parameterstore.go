package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Config holds deployer configuration values from Parameter Store.
type Config struct {
	ArtifactBucket string // S3 bucket the pipeline uploads packaged functions to
	StackName      string // CloudFormation stack name override, optional
}

// ParameterStore defines the interface for accessing configuration parameters
type ParameterStore interface {
	// GetParameter retrieves a single parameter by name
	GetParameter(ctx context.Context, name string) (string, error)

	// GetConfig loads all deployer configuration from Parameter Store
	GetConfig(ctx context.Context) (*Config, error)
}

// SSMParameterStore implements ParameterStore using AWS Systems Manager Parameter Store
type SSMParameterStore struct {
	client *ssm.Client
	env    string
	mu     sync.RWMutex
	cache  map[string]string
}

// NewSSMParameterStore creates a new SSM-backed parameter store
func NewSSMParameterStore(client *ssm.Client, env string) *SSMParameterStore {
	return &SSMParameterStore{
		client: client,
		env:    env,
		cache:  make(map[string]string),
	}
}

// GetParameter retrieves a single parameter from SSM Parameter Store
func (s *SSMParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if value, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s not found", name)
	}
	value := *result.Parameter.Value

	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()

	return value, nil
}

// GetConfig loads all deployer configuration from Parameter Store
func (s *SSMParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	path := fmt.Sprintf("/%s/fgo-farming-solver", s.env)

	result, err := s.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           &path,
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get parameters by path %s: %w", path, err)
	}

	params := make(map[string]string)
	for _, param := range result.Parameters {
		if param.Name != nil && param.Value != nil {
			params[*param.Name] = *param.Value
		}
	}

	s.mu.Lock()
	for k, v := range params {
		s.cache[k] = v
	}
	s.mu.Unlock()

	config := &Config{
		ArtifactBucket: params[fmt.Sprintf("/%s/fgo-farming-solver/artifact-bucket", s.env)],
		StackName:      params[fmt.Sprintf("/%s/fgo-farming-solver/stack-name", s.env)],
	}
	applyDefaults(config, s.env)
	return config, nil
}

// EnvParameterStore implements ParameterStore from process environment
// variables. Used when DISABLE_SSM=true, typically in CI.
type EnvParameterStore struct {
	env string
}

// NewEnvParameterStore creates an environment-variable-backed store
func NewEnvParameterStore(env string) *EnvParameterStore {
	return &EnvParameterStore{env: env}
}

// GetParameter reads a parameter from the process environment
func (s *EnvParameterStore) GetParameter(_ context.Context, name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", name)
	}
	return value, nil
}

// GetConfig loads deployer configuration from environment variables
func (s *EnvParameterStore) GetConfig(_ context.Context) (*Config, error) {
	config := &Config{
		ArtifactBucket: os.Getenv("ARTIFACT_BUCKET"),
		StackName:      os.Getenv("STACK_NAME"),
	}
	applyDefaults(config, s.env)
	return config, nil
}

func applyDefaults(config *Config, env string) {
	if config.StackName == "" {
		config.StackName = fmt.Sprintf("%s-fgo-farming-solver", env)
	}
	if config.ArtifactBucket == "" {
		config.ArtifactBucket = fmt.Sprintf("fgo-farming-solver-artifacts-%s", env)
	}
}
