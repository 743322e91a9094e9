// Package solver computes farming lap plans: given required item
// counts and per-quest drop rates, it finds the cheapest set of quest
// laps whose expected drops cover the requirement. The relaxation is a
// linear program solved with gonum's simplex method; laps are rounded
// up when formatted.
package solver

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/antenna-three/fgo-farming-solver-api/internal/dataset"
	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

// Plan is a solved lap plan. Only strictly positive entries are kept.
type Plan struct {
	QuestLaps  map[string]float64 // laps per quest key
	ItemCounts map[string]float64 // expected drops per item key
}

const positiveEps = 1e-9

// QuestKey returns the quest column addressed by key (id or name).
func QuestKey(q dataset.Quest, key string) string {
	if key == "name" {
		return q.Name
	}
	return q.ID
}

func dropQuestKey(d dataset.DropRate, key string) string {
	if key == "name" {
		return d.QuestName
	}
	return d.QuestID
}

func dropItemKey(d dataset.DropRate, key string) string {
	if key == "name" {
		return d.ItemName
	}
	return d.ItemID
}

// FilterQuests keeps quests selected by key, by area, or by section.
// When quests are keyed by id, the area is the two leading digits of
// the id and the section the leading digit.
func FilterQuests(quests []dataset.Quest, selectors []string, key string) []dataset.Quest {
	selected := make(map[string]bool, len(selectors))
	for _, s := range selectors {
		selected[s] = true
	}

	var out []dataset.Quest
	for _, q := range quests {
		area, section := q.Area, q.Section
		if key == "id" {
			if len(q.ID) >= 2 {
				area = q.ID[:2]
			}
			if len(q.ID) >= 1 {
				section = q.ID[:1]
			}
		}
		if selected[QuestKey(q, key)] || selected[area] || selected[section] {
			out = append(out, q)
		}
	}
	return out
}

// ValidateItems rejects requested item keys that match nothing in the
// item catalog. A typo'd item id is a client error, not an infeasible
// plan.
func ValidateItems(items map[string]int, catalog []dataset.Item, key string) error {
	known := make(map[string]bool, len(catalog))
	for _, item := range catalog {
		if key == "id" {
			known[item.ID] = true
		} else {
			known[item.Name] = true
		}
	}

	var unknown []string
	for k := range items {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	invalid := make([]InvalidParam, 0, len(unknown))
	for _, k := range unknown {
		invalid = append(invalid, InvalidParam{
			Name:   "items",
			Reason: fmt.Sprintf("unknown item %q", k),
		})
	}
	return &ParamError{
		Title:         "Specify known items",
		InvalidParams: invalid,
	}
}

// FilterDropRates keeps rows whose item is requested and whose quest
// survived filtering.
func FilterDropRates(rates []dataset.DropRate, items map[string]int, questKeys []string, key string) []dataset.DropRate {
	quests := make(map[string]bool, len(questKeys))
	for _, q := range questKeys {
		quests[q] = true
	}

	var out []dataset.DropRate
	for _, d := range rates {
		if _, ok := items[dropItemKey(d, key)]; ok && quests[dropQuestKey(d, key)] {
			out = append(out, d)
		}
	}
	return out
}

// Solve minimizes total AP or total laps subject to the expected drop
// count of every requested item meeting its requirement. Requested
// items with no surviving drop-rate row contribute no constraint, so
// they are absent from the result rather than making it infeasible.
func Solve(objective Objective, items map[string]int, quests []dataset.Quest, rates []dataset.DropRate, key string) (*Plan, error) {
	if len(quests) == 0 || len(rates) == 0 {
		return nil, fmt.Errorf("%w: no quests drop the requested items", errors.ErrInfeasible)
	}

	questIndex := make(map[string]int, len(quests))
	for i, q := range quests {
		questIndex[QuestKey(q, key)] = i
	}

	// Constraint rows, one per requested item that has drop data.
	var constrained []string
	itemIndex := make(map[string]int)
	for _, d := range rates {
		item := dropItemKey(d, key)
		if _, ok := itemIndex[item]; !ok {
			itemIndex[item] = len(constrained)
			constrained = append(constrained, item)
		}
	}

	n := len(quests)      // lap variables
	m := len(constrained) // constraints, one surplus variable each

	// Standard form: minimize c'x subject to Ax = b, x >= 0, with
	// x = [laps..., surplus...] and drops - surplus = requirement.
	c := make([]float64, n+m)
	for j, q := range quests {
		if objective == ObjectiveAP {
			c[j] = float64(q.AP)
		} else {
			c[j] = 1
		}
	}

	a := mat.NewDense(m, n+m, nil)
	for _, d := range rates {
		i := itemIndex[dropItemKey(d, key)]
		j, ok := questIndex[dropQuestKey(d, key)]
		if !ok {
			continue
		}
		a.Set(i, j, a.At(i, j)+d.Rate)
	}
	for i := 0; i < m; i++ {
		a.Set(i, n+i, -1)
	}

	b := make([]float64, m)
	for i, item := range constrained {
		b[i] = float64(items[item])
	}

	_, x, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInfeasible, err)
	}

	plan := &Plan{
		QuestLaps:  make(map[string]float64),
		ItemCounts: make(map[string]float64),
	}
	for _, q := range quests {
		laps := x[questIndex[QuestKey(q, key)]]
		if laps > positiveEps {
			plan.QuestLaps[QuestKey(q, key)] = laps
		}
	}
	for _, d := range rates {
		j, ok := questIndex[dropQuestKey(d, key)]
		if !ok {
			continue
		}
		if count := d.Rate * x[j]; count > 0 {
			plan.ItemCounts[dropItemKey(d, key)] += count
		}
	}
	for item, count := range plan.ItemCounts {
		if count <= positiveEps {
			delete(plan.ItemCounts, item)
		}
	}
	return plan, nil
}
