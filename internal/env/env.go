// Package env maps a deployment environment to the concrete resource
// names the solver stack is wired to: the drop-data S3 bucket, the
// results DynamoDB table, and the HTTP API stage. The mapping tables
// are fixed at authoring time; every environment must have an entry in
// every table.
package env

import (
	"fmt"

	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

// Environment selects a row in each mapping table.
type Environment string

const (
	Dev  Environment = "dev"
	Prod Environment = "prod"
)

// Environments lists every allowed environment value.
var Environments = []Environment{Dev, Prod}

// Parse validates s against the allow-list of known environments.
func Parse(s string) (Environment, error) {
	switch Environment(s) {
	case Dev:
		return Dev, nil
	case Prod:
		return Prod, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownEnvironment, s)
	}
}

// String returns the environment name.
func (e Environment) String() string { return string(e) }

// Mapping tables. Keyed by environment, one entry per environment.
var (
	bucketTable = map[Environment]string{
		Dev:  "fgodrop",
		Prod: "fgodrop",
	}
	tableTable = map[Environment]string{
		Dev:  "fgo-farming-solver-results",
		Prod: "fgo-farming-solver_results",
	}
	apiTable = map[Environment]string{
		Dev:  "dev",
		Prod: "prod",
	}
)

// Resources holds the names resolved for a single environment.
type Resources struct {
	Bucket string // S3 bucket holding items/quests/drop_rates CSVs
	Table  string // DynamoDB table for solve results
	Stage  string // HTTP API stage name
}

// Resolve looks e up in each mapping table independently. It fails if
// any table lacks an entry for e, which would otherwise surface as a
// deploy-time FindInMap error.
func Resolve(e Environment) (Resources, error) {
	bucket, ok := bucketTable[e]
	if !ok {
		return Resources{}, fmt.Errorf("%w: Bucket[%s]", errors.ErrMappingIncomplete, e)
	}
	table, ok := tableTable[e]
	if !ok {
		return Resources{}, fmt.Errorf("%w: Table[%s]", errors.ErrMappingIncomplete, e)
	}
	stage, ok := apiTable[e]
	if !ok {
		return Resources{}, fmt.Errorf("%w: Api[%s]", errors.ErrMappingIncomplete, e)
	}
	return Resources{Bucket: bucket, Table: table, Stage: stage}, nil
}

// Mappings returns the three tables in CloudFormation Mappings shape:
// table name -> environment -> {"Name": value}. The template builder
// embeds this verbatim so the deployed stack and the runtime resolver
// can never disagree.
func Mappings() map[string]map[string]map[string]string {
	out := map[string]map[string]map[string]string{
		"Bucket": {},
		"Table":  {},
		"Api":    {},
	}
	for _, e := range Environments {
		out["Bucket"][e.String()] = map[string]string{"Name": bucketTable[e]}
		out["Table"][e.String()] = map[string]string{"Name": tableTable[e]}
		out["Api"][e.String()] = map[string]string{"Name": apiTable[e]}
	}
	return out
}
