package utils

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/assert"
)

func TestMergeParameters(t *testing.T) {
	tests := []struct {
		name   string
		inputs []map[string]string
		want   []types.Parameter
	}{
		{
			name: "single map",
			inputs: []map[string]string{
				{"Env": "dev"},
			},
			want: []types.Parameter{
				{ParameterKey: aws.String("Env"), ParameterValue: aws.String("dev")},
			},
		},
		{
			name: "override wins",
			inputs: []map[string]string{
				{"Env": "dev", "Stage": "dev"},
				{"Env": "prod"},
			},
			want: []types.Parameter{
				{ParameterKey: aws.String("Env"), ParameterValue: aws.String("prod")},
				{ParameterKey: aws.String("Stage"), ParameterValue: aws.String("dev")},
			},
		},
		{
			name:   "empty",
			inputs: []map[string]string{},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeParameters(tt.inputs...)
			assert.Equal(t, tt.want, got)
		})
	}
}
