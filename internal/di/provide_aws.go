package di

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/antenna-three/fgo-farming-solver-api/internal/services"
)

func ProvideContext() context.Context {
	return context.Background()
}

func ProvideAWSConfig(ctx context.Context, region Region, creds StaticCredentials) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(string(region)))
	}
	if !creds.IsZero() {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, opts...)
}

func ProvideS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

func ProvideDynamoDBClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

func ProvideCloudFormationClient(cfg aws.Config) *cloudformation.Client {
	return cloudformation.NewFromConfig(cfg)
}

func ProvideSSMClient(cfg aws.Config) *ssm.Client {
	return ssm.NewFromConfig(cfg)
}

func ProvideSTSClient(cfg aws.Config) *sts.Client {
	return sts.NewFromConfig(cfg)
}

// ProvideParameterStore returns the SSM-backed store unless
// DISABLE_SSM=true, in which case configuration comes from environment
// variables (the CI path).
func ProvideParameterStore(client *ssm.Client, environment string) services.ParameterStore {
	if os.Getenv("DISABLE_SSM") == "true" {
		return services.NewEnvParameterStore(environment)
	}
	return services.NewSSMParameterStore(client, environment)
}

func ProvideAppConfig(ctx context.Context, store services.ParameterStore) (*services.Config, error) {
	return store.GetConfig(ctx)
}
