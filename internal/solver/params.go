package solver

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Objective selects what the lap plan minimizes.
type Objective string

const (
	// ObjectiveAP minimizes total AP spent.
	ObjectiveAP Objective = "ap"
	// ObjectiveLap minimizes total laps run.
	ObjectiveLap Objective = "lap"
)

// InvalidParam identifies one rejected request parameter.
type InvalidParam struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ParamError is a client error: the request parameters cannot be
// decoded or fail validation. It maps to HTTP 400.
type ParamError struct {
	Title         string         `json:"title,omitempty"`
	Message       string         `json:"message,omitempty"`
	InvalidParams []InvalidParam `json:"invalid_params,omitempty"`
}

func (e *ParamError) Error() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Message
}

// Request is a decoded solve request.
type Request struct {
	Fields      []string       // result sections to include: quests, items
	QuestFields []string       // extra quest columns to join into results
	ItemFields  []string       // extra item columns to join into results
	Objective   Objective      // ap or lap
	Items       map[string]int // required drop counts keyed by item id or name
	Quests      []string       // optional quest/area/section filter
}

// ParseRequest decodes the query-string parameters of a solve request.
// List parameters are comma separated; items is a comma separated list
// of key:count pairs.
func ParseRequest(params map[string]string) (*Request, error) {
	objective := Objective(params["objective"])
	if objective != ObjectiveAP && objective != ObjectiveLap {
		return nil, &ParamError{
			Title: fmt.Sprintf("Specify %s", params["objective"]),
			InvalidParams: []InvalidParam{{
				Name:   "objective",
				Reason: "must be ap or lap",
			}},
		}
	}

	items, err := parsePairs(params["items"])
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &ParamError{
			Title: "Specify items",
			InvalidParams: []InvalidParam{{
				Name:   "items",
				Reason: `must be like "string:integer,string:integer,..."`,
			}},
		}
	}

	return &Request{
		Fields:      parseList(params["fields"]),
		QuestFields: parseList(params["quest_fields"]),
		ItemFields:  parseList(params["item_fields"]),
		Objective:   objective,
		Items:       items,
		Quests:      parseList(params["quests"]),
	}, nil
}

func parseList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func parsePairs(value string) (map[string]int, error) {
	if value == "" {
		return nil, nil
	}

	pairs := make(map[string]int)
	for _, pair := range strings.Split(value, ",") {
		key, count, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, &ParamError{
				Message: "Numbers of items must be positive integers",
				InvalidParams: []InvalidParam{{
					Name:   "items",
					Reason: `must be like "string:integer,string:integer,..."`,
				}},
			}
		}
		n, err := strconv.Atoi(count)
		if err != nil || n < 0 {
			return nil, &ParamError{
				Message: "Numbers of items must be positive integers",
				InvalidParams: []InvalidParam{{
					Name:   "items",
					Reason: `must be like "string:integer,string:integer,..."`,
				}},
			}
		}
		pairs[key] = n
	}
	return pairs, nil
}

// Key reports which dataset column the requested item keys address: if
// every key is plain ASCII they are ids, otherwise item names.
func (r *Request) Key() string {
	for k := range r.Items {
		if utf8.RuneCountInString(k) != len(k) {
			return "name"
		}
	}
	return "id"
}
