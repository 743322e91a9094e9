package di

import (
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/antenna-three/fgo-farming-solver-api/internal/dao/deploydao"
	"github.com/antenna-three/fgo-farming-solver-api/internal/pipeline"
	"github.com/antenna-three/fgo-farming-solver-api/internal/policy"
	"github.com/antenna-three/fgo-farming-solver-api/internal/services"
)

func ProvideDeployDAO(client *dynamodb.Client, environment string) *deploydao.DAO {
	return deploydao.New(client, deploydao.TableName(environment))
}

func ProvideArtifactStore(client *s3.Client, config *services.Config) *services.ArtifactStore {
	return services.NewArtifactStore(client, config.ArtifactBucket)
}

func ProvideCloudFormationService(client *cloudformation.Client) *services.CloudFormationService {
	return services.NewCloudFormationService(client)
}

func ProvideValidator() (*policy.Validator, error) {
	return policy.NewValidator()
}

func ProvidePipeline(
	artifacts *services.ArtifactStore,
	stacks *services.CloudFormationService,
	validator *policy.Validator,
	dao *deploydao.DAO,
) *pipeline.Pipeline {
	return pipeline.New(artifacts, stacks, validator, dao)
}
