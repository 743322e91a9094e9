package policy

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed sam.rego
var policyContent string

// Validator checks a rendered SAM template against the least-privilege
// policy: the solver function gets read on the mapped bucket and write
// on the mapped table, nothing broader.
type Validator struct {
	allow      rego.PreparedEvalQuery
	violations rego.PreparedEvalQuery
}

type ValidationResult struct {
	Allowed    bool     `json:"allowed"`
	Violations []string `json:"violations,omitempty"`
}

func NewValidator() (*Validator, error) {
	ctx := context.Background()

	allow, err := rego.New(
		rego.Query("data.sam.allow"),
		rego.Module("sam.rego", policyContent),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query: %w", err)
	}

	violations, err := rego.New(
		rego.Query("data.sam.violations"),
		rego.Module("sam.rego", policyContent),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare violations query: %w", err)
	}

	return &Validator{
		allow:      allow,
		violations: violations,
	}, nil
}

// ValidateTemplate evaluates the policy against a template document
// (the unmarshaled YAML, keyed by top-level section).
func (v *Validator) ValidateTemplate(ctx context.Context, template map[string]any) (*ValidationResult, error) {
	input := map[string]any{
		"Resources": template["Resources"],
	}

	results, err := v.allow.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned no results"},
		}, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned non-boolean result"},
		}, nil
	}

	result := &ValidationResult{Allowed: allowed}
	if !allowed {
		violations, err := v.getViolations(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get violations: %w", err)
		}
		result.Violations = violations
	}

	return result, nil
}

func (v *Validator) getViolations(ctx context.Context, input map[string]any) ([]string, error) {
	results, err := v.violations.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate violations: %w", err)
	}

	if len(results) == 0 || results[0].Expressions[0].Value == nil {
		return []string{"unknown policy violation"}, nil
	}

	raw, ok := results[0].Expressions[0].Value.([]any)
	if !ok {
		return []string{"unknown policy violation"}, nil
	}

	violations := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			violations = append(violations, s)
		}
	}
	return violations, nil
}
