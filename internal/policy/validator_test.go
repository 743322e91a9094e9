package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/antenna-three/fgo-farming-solver-api/internal/template"
)

func templateDoc(t *testing.T, tmpl *template.Template) map[string]any {
	t.Helper()
	rendered, err := tmpl.Render()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(rendered), &doc))
	return doc
}

func TestValidateTemplateAllowsScopedPolicies(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	result, err := v.ValidateTemplate(context.Background(), templateDoc(t, template.New(".build/")))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Empty(t, result.Violations)
}

func TestValidateTemplateRejectsBroadPolicyTemplate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tmpl := template.New(".build/")
	props := tmpl.Resources[template.FunctionLogicalID].Properties
	props["Policies"] = append(props["Policies"].([]any), map[string]any{
		"DynamoDBCrudPolicy": map[string]any{
			"TableName": "fgo-farming-solver-results",
		},
	})

	result, err := v.ValidateTemplate(context.Background(), templateDoc(t, tmpl))
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0], "DynamoDBCrudPolicy")
}

func TestValidateTemplateRejectsManagedPolicyName(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tmpl := template.New(".build/")
	props := tmpl.Resources[template.FunctionLogicalID].Properties
	props["Policies"] = []any{"AmazonS3FullAccess"}

	result, err := v.ValidateTemplate(context.Background(), templateDoc(t, tmpl))
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0], "AmazonS3FullAccess")
}

func TestValidateTemplateRejectsMissingPolicies(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tmpl := template.New(".build/")
	delete(tmpl.Resources[template.FunctionLogicalID].Properties, "Policies")

	result, err := v.ValidateTemplate(context.Background(), templateDoc(t, tmpl))
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0], "no scoped policies")
}
