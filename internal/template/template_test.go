package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

func TestNewValidates(t *testing.T) {
	tmpl := New(".build/")
	assert.NoError(t, tmpl.Validate())
}

func TestValidateRejectsMissingMappingRow(t *testing.T) {
	tmpl := New(".build/")
	delete(tmpl.Mappings["Table"], "prod")

	err := tmpl.Validate()
	assert.ErrorIs(t, err, errors.ErrMappingIncomplete)
	assert.Contains(t, err.Error(), "Table[prod]")
}

func TestValidateRejectsMissingAllowList(t *testing.T) {
	tmpl := New(".build/")
	p := tmpl.Parameters["Env"]
	p.AllowedValues = nil
	tmpl.Parameters["Env"] = p

	assert.Error(t, tmpl.Validate())
}

func TestRenderRoundTrips(t *testing.T) {
	tmpl := New(".build/")
	rendered, err := tmpl.Render()
	assert.NoError(t, err)

	var doc map[string]any
	assert.NoError(t, yaml.Unmarshal([]byte(rendered), &doc))

	assert.Equal(t, "AWS::Serverless-2016-10-31", doc["Transform"])

	resources := doc["Resources"].(map[string]any)
	fn := resources[FunctionLogicalID].(map[string]any)
	assert.Equal(t, "AWS::Serverless::Function", fn["Type"])

	props := fn["Properties"].(map[string]any)
	assert.Equal(t, "bootstrap", props["Handler"])
	assert.Equal(t, "provided.al2023", props["Runtime"])

	vars := props["Environment"].(map[string]any)["Variables"].(map[string]any)
	assert.Contains(t, vars, "BUCKET_NAME")
	assert.Contains(t, vars, "TABLE_NAME")
}

func TestRenderIsDeterministic(t *testing.T) {
	a, err := New(".build/").Render()
	assert.NoError(t, err)
	b, err := New(".build/").Render()
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMappingsMatchKnownResourceNames(t *testing.T) {
	tmpl := New(".build/")

	assert.Equal(t, "fgodrop", tmpl.Mappings["Bucket"]["dev"]["Name"])
	assert.Equal(t, "fgodrop", tmpl.Mappings["Bucket"]["prod"]["Name"])
	assert.Equal(t, "fgo-farming-solver-results", tmpl.Mappings["Table"]["dev"]["Name"])
	assert.Equal(t, "fgo-farming-solver_results", tmpl.Mappings["Table"]["prod"]["Name"])
	assert.Equal(t, "dev", tmpl.Mappings["Api"]["dev"]["Name"])
	assert.Equal(t, "prod", tmpl.Mappings["Api"]["prod"]["Name"])
}

func TestFunctionPoliciesAreScoped(t *testing.T) {
	tmpl := New(".build/")

	props := tmpl.Resources[FunctionLogicalID].Properties
	policies := props["Policies"].([]any)
	assert.Len(t, policies, 2)

	rendered, err := tmpl.Render()
	assert.NoError(t, err)
	assert.True(t, strings.Contains(rendered, "S3ReadPolicy"))
	assert.True(t, strings.Contains(rendered, "DynamoDBWritePolicy"))
	assert.False(t, strings.Contains(rendered, "S3CrudPolicy"))
	assert.False(t, strings.Contains(rendered, "DynamoDBCrudPolicy"))
}
