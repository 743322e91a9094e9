package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/antenna-three/fgo-farming-solver-api/internal/env"
	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    env.Environment
		wantErr bool
	}{
		{
			name: "main deploys prod",
			ref:  "main",
			want: env.Prod,
		},
		{
			name: "full ref to main deploys prod",
			ref:  "refs/heads/main",
			want: env.Prod,
		},
		{
			name: "feature branch deploys dev",
			ref:  "feature/new-solver",
			want: env.Dev,
		},
		{
			name: "full ref to feature branch deploys dev",
			ref:  "refs/heads/feature/drop-merge",
			want: env.Dev,
		},
		{
			name: "nested feature branch deploys dev",
			ref:  "feature/solver/rework",
			want: env.Dev,
		},
		{
			name:    "branch containing main is not prod",
			ref:     "main-fix",
			wantErr: true,
		},
		{
			name:    "branch containing feature is not dev",
			ref:     "my-feature",
			wantErr: true,
		},
		{
			name:    "bare feature prefix is not a target",
			ref:     "feature/",
			wantErr: true,
		},
		{
			name:    "release branch is not a target",
			ref:     "release/1.2.0",
			wantErr: true,
		},
		{
			name:    "empty ref",
			ref:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.ref)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrNoDeployTarget)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
