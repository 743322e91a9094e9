package resultdao

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPK(t *testing.T) {
	tests := []struct {
		name      string
		objective string
		key       string
		want      PK
	}{
		{
			name:      "ap by id",
			objective: "ap",
			key:       "id",
			want:      PK("ap/id"),
		},
		{
			name:      "lap by name",
			objective: "lap",
			key:       "name",
			want:      PK("lap/name"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPK(tt.objective, tt.key))
		})
	}
}

func TestParsePK(t *testing.T) {
	tests := []struct {
		name          string
		pk            PK
		wantObjective string
		wantKey       string
		wantErr       bool
	}{
		{
			name:          "valid",
			pk:            PK("ap/id"),
			wantObjective: "ap",
			wantKey:       "id",
		},
		{
			name:    "no separator",
			pk:      PK("ap"),
			wantErr: true,
		},
		{
			name:    "too many separators",
			pk:      PK("ap/id/extra"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objective, key, err := ParsePK(tt.pk)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantObjective, objective)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}
