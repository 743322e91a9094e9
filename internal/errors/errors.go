package errors

import "errors"

var (
	ErrUnknownEnvironment = errors.New("unknown environment, expected dev or prod")
	ErrMappingIncomplete  = errors.New("mapping table has no entry for environment")
	ErrNoDeployTarget     = errors.New("ref matches no deploy target")
	ErrStackNotFound      = errors.New("stack not found")
	ErrInfeasible         = errors.New("no lap plan satisfies the requested item counts")
	ErrDatasetNotFound    = errors.New("dataset object not found in bucket")
)
