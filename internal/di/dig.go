// Package di provides a lightweight wrapper around uber's dig
// dependency injection framework: container setup plus type-safe
// retrieval with generics.
package di

import (
	"go.uber.org/dig"
)

// Container defines a dependency injection container based on uber's dig.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error

	// Scope creates a scoped sub-container with its own set of values.
	Scope(name string, opts ...dig.ScopeOption) *dig.Scope
}

// MustGet returns an instance constructed via dependency injection or panics.
//
// Example:
//
//	dao := MustGet[*deploydao.DAO](container)
func MustGet[T any](container Container) (want T) {
	callback := func(got T) {
		want = got
	}
	if err := container.Invoke(callback); err != nil {
		panic(err)
	}
	return want
}

// New creates a new dependency injection container for the given
// environment. The environment string is registered as a plain string
// dependency; region and static credentials registered from options
// feed the AWS config provider.
func New(environment string, opts ...Option) (Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	container := dig.New()
	if err := container.Provide(func() string { return environment }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() Region { return o.region }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() StaticCredentials { return o.credentials }); err != nil {
		return nil, err
	}

	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideContext,
	ProvideAWSConfig,
	ProvideS3Client,
	ProvideDynamoDBClient,
	ProvideCloudFormationClient,
	ProvideSSMClient,
	ProvideSTSClient,
	ProvideParameterStore,
	ProvideAppConfig,
}
