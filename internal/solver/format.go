package solver

import (
	"math"
	"slices"

	"github.com/savaki/gox/slicex"

	"github.com/antenna-three/fgo-farming-solver-api/internal/dataset"
)

func questField(q dataset.Quest, field string) any {
	switch field {
	case "id":
		return q.ID
	case "name":
		return q.Name
	case "area":
		return q.Area
	case "section":
		return q.Section
	case "ap":
		return q.AP
	default:
		return ""
	}
}

func itemField(i dataset.Item, field string) any {
	switch field {
	case "id":
		return i.ID
	case "name":
		return i.Name
	case "category":
		return i.Category
	default:
		return ""
	}
}

// FormatResult shapes a plan for the response body. Laps are rounded
// up (a partial lap must still be run), counts to the nearest integer.
// The requested quest_fields and item_fields are joined in from the
// dataset rows; fields selects which sections appear, both by default.
func FormatResult(plan *Plan, req *Request, items []dataset.Item, quests []dataset.Quest, key string) map[string]any {
	fields := req.Fields
	if len(fields) == 0 {
		fields = []string{"quests", "items"}
	}

	result := make(map[string]any, 2)

	if slices.Contains(fields, "quests") {
		questRows := make([]map[string]any, 0, len(plan.QuestLaps))
		for _, q := range quests {
			laps, ok := plan.QuestLaps[QuestKey(q, key)]
			if !ok {
				continue
			}
			row := map[string]any{
				key:   QuestKey(q, key),
				"lap": int(math.Ceil(laps)),
			}
			for _, f := range req.QuestFields {
				row[f] = questField(q, f)
			}
			questRows = append(questRows, row)
		}
		result["quests"] = questRows
	}

	if slices.Contains(fields, "items") {
		itemInfo := make(map[string]dataset.Item, len(items))
		for _, i := range items {
			if key == "name" {
				itemInfo[i.Name] = i
			} else {
				itemInfo[i.ID] = i
			}
		}

		itemRows := make([]map[string]any, 0, len(plan.ItemCounts))
		for _, i := range items {
			k := i.ID
			if key == "name" {
				k = i.Name
			}
			count, ok := plan.ItemCounts[k]
			if !ok {
				continue
			}
			row := map[string]any{
				key:     k,
				"count": int(math.Round(count)),
			}
			for _, f := range req.ItemFields {
				row[f] = itemField(itemInfo[k], f)
			}
			itemRows = append(itemRows, row)
		}
		result["items"] = itemRows
	}

	return result
}

// Usage describes the request surface for parameterless calls.
func Usage(items []dataset.Item, quests []dataset.Quest) map[string]any {
	zeroItems := make(map[string]int, len(items))
	for _, i := range items {
		zeroItems[i.Name] = 0
	}

	return map[string]any{
		"usage": map[string]any{
			"fields":       []string{"quests", "items"},
			"quest_fields": []string{"id", "name", "area", "section", "ap"},
			"item_fields":  []string{"id", "name", "category"},
			"objective":    "'ap' or 'lap'",
			"items":        zeroItems,
			"quests":       slicex.Map(quests, func(q dataset.Quest) string { return q.Name }),
		},
	}
}
