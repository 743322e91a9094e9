package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(map[string]string{
		"fields":       "items,quests",
		"quest_fields": "name,ap",
		"objective":    "ap",
		"items":        "44:30,52:12",
		"quests":       "10,20",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"items", "quests"}, req.Fields)
	assert.Equal(t, []string{"name", "ap"}, req.QuestFields)
	assert.Nil(t, req.ItemFields)
	assert.Equal(t, ObjectiveAP, req.Objective)
	assert.Equal(t, map[string]int{"44": 30, "52": 12}, req.Items)
	assert.Equal(t, []string{"10", "20"}, req.Quests)
}

func TestParseRequestInvalidObjective(t *testing.T) {
	tests := []struct {
		name      string
		objective string
	}{
		{name: "empty", objective: ""},
		{name: "qp is not an objective", objective: "qp"},
		{name: "uppercase", objective: "AP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(map[string]string{
				"objective": tt.objective,
				"items":     "44:30",
			})
			var paramErr *ParamError
			require.ErrorAs(t, err, &paramErr)
			require.Len(t, paramErr.InvalidParams, 1)
			assert.Equal(t, "objective", paramErr.InvalidParams[0].Name)
		})
	}
}

func TestParseRequestInvalidItems(t *testing.T) {
	tests := []struct {
		name  string
		items string
	}{
		{name: "missing count", items: "44"},
		{name: "non-integer count", items: "44:many"},
		{name: "negative count", items: "44:-3"},
		{name: "empty", items: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(map[string]string{
				"objective": "lap",
				"items":     tt.items,
			})
			var paramErr *ParamError
			require.ErrorAs(t, err, &paramErr)
			require.Len(t, paramErr.InvalidParams, 1)
			assert.Equal(t, "items", paramErr.InvalidParams[0].Name)
		})
	}
}

func TestRequestKey(t *testing.T) {
	tests := []struct {
		name  string
		items map[string]int
		want  string
	}{
		{
			name:  "ascii keys resolve by id",
			items: map[string]int{"44": 10, "52": 5},
			want:  "id",
		},
		{
			name:  "non-ascii keys resolve by name",
			items: map[string]int{"竜の牙": 10},
			want:  "name",
		},
		{
			name:  "mixed keys resolve by name",
			items: map[string]int{"44": 10, "竜の牙": 5},
			want:  "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Items: tt.items}
			assert.Equal(t, tt.want, req.Key())
		})
	}
}
