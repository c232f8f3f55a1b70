package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FilterOperator names a comparison applied to a single metadata field.
type FilterOperator string

const (
	OpEquals              FilterOperator = "equals"
	OpNotEquals           FilterOperator = "notEquals"
	OpIn                  FilterOperator = "in"
	OpNotIn               FilterOperator = "notIn"
	OpGreaterThan         FilterOperator = "greaterThan"
	OpGreaterThanOrEquals FilterOperator = "greaterThanOrEquals"
	OpLessThan            FilterOperator = "lessThan"
	OpLessThanOrEquals    FilterOperator = "lessThanOrEquals"
	OpStringContains      FilterOperator = "stringContains"
)

var knownOperators = map[FilterOperator]struct{}{
	OpEquals:              {},
	OpNotEquals:           {},
	OpIn:                  {},
	OpNotIn:               {},
	OpGreaterThan:         {},
	OpGreaterThanOrEquals: {},
	OpLessThan:            {},
	OpLessThanOrEquals:    {},
	OpStringContains:      {},
}

// FilterCondition is a leaf predicate over one metadata field.
type FilterCondition struct {
	Operator FilterOperator
	Key      string
	Value    interface{}
}

// MetadataFilter is a boolean expression over metadata fields. Exactly one of
// Condition, AndAll, or OrAll is set; a zero-value filter represents the empty
// expression (no filtering).
type MetadataFilter struct {
	Condition *FilterCondition
	AndAll    []*MetadataFilter
	OrAll     []*MetadataFilter
}

// And builds a conjunction over the given sub-expressions.
func And(filters ...*MetadataFilter) *MetadataFilter {
	return &MetadataFilter{AndAll: filters}
}

// Or builds a disjunction over the given sub-expressions.
func Or(filters ...*MetadataFilter) *MetadataFilter {
	return &MetadataFilter{OrAll: filters}
}

// Cond builds a leaf condition.
func Cond(op FilterOperator, key string, value interface{}) *MetadataFilter {
	return &MetadataFilter{Condition: &FilterCondition{Operator: op, Key: key, Value: value}}
}

// IsEmpty reports whether the filter carries no predicate at all.
func (f *MetadataFilter) IsEmpty() bool {
	return f == nil || (f.Condition == nil && len(f.AndAll) == 0 && len(f.OrAll) == 0)
}

// Keys returns the set of metadata field names referenced anywhere in the
// expression tree. A nil or empty filter yields an empty set.
func (f *MetadataFilter) Keys() map[string]struct{} {
	keys := make(map[string]struct{})
	f.collectKeys(keys)
	return keys
}

// SortedKeys returns Keys() as a sorted slice, for stable logging and prompts.
func (f *MetadataFilter) SortedKeys() []string {
	set := f.Keys()
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *MetadataFilter) collectKeys(into map[string]struct{}) {
	if f == nil {
		return
	}
	if f.Condition != nil && f.Condition.Key != "" {
		into[f.Condition.Key] = struct{}{}
	}
	for _, sub := range f.AndAll {
		sub.collectKeys(into)
	}
	for _, sub := range f.OrAll {
		sub.collectKeys(into)
	}
}

type conditionBody struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// MarshalJSON renders the backend wire shape: leaves become
// {"<operator>":{"key":...,"value":...}} and branches {"andAll":[...]} or
// {"orAll":[...]}. The empty filter renders as {}.
func (f *MetadataFilter) MarshalJSON() ([]byte, error) {
	switch {
	case f.IsEmpty():
		return []byte("{}"), nil
	case f.Condition != nil:
		return json.Marshal(map[string]conditionBody{
			string(f.Condition.Operator): {Key: f.Condition.Key, Value: f.Condition.Value},
		})
	case len(f.AndAll) > 0:
		return json.Marshal(map[string][]*MetadataFilter{"andAll": f.AndAll})
	default:
		return json.Marshal(map[string][]*MetadataFilter{"orAll": f.OrAll})
	}
}

// UnmarshalJSON parses the backend wire shape. An empty object yields the
// empty filter; an object with an operator outside the known set is rejected
// so malformed model output degrades instead of silently passing through.
func (f *MetadataFilter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*f = MetadataFilter{}
		return nil
	}
	if len(raw) != 1 {
		return fmt.Errorf("filter node must have exactly one key, got %d", len(raw))
	}

	for name, body := range raw {
		switch name {
		case "andAll":
			var subs []*MetadataFilter
			if err := json.Unmarshal(body, &subs); err != nil {
				return fmt.Errorf("invalid andAll branch: %w", err)
			}
			*f = MetadataFilter{AndAll: subs}
		case "orAll":
			var subs []*MetadataFilter
			if err := json.Unmarshal(body, &subs); err != nil {
				return fmt.Errorf("invalid orAll branch: %w", err)
			}
			*f = MetadataFilter{OrAll: subs}
		default:
			op := FilterOperator(name)
			if _, ok := knownOperators[op]; !ok {
				return fmt.Errorf("unknown filter operator %q", name)
			}
			var cond conditionBody
			if err := json.Unmarshal(body, &cond); err != nil {
				return fmt.Errorf("invalid %s condition: %w", name, err)
			}
			if cond.Key == "" {
				return fmt.Errorf("%s condition is missing a key", name)
			}
			*f = MetadataFilter{Condition: &FilterCondition{Operator: op, Key: cond.Key, Value: cond.Value}}
		}
	}
	return nil
}

// ParseFilter decodes a filter expression from JSON text. An empty object,
// JSON null, or blank input all yield (nil, nil): no filter.
func ParseFilter(text string) (*MetadataFilter, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var f MetadataFilter
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return nil, err
	}
	if f.IsEmpty() {
		return nil, nil
	}
	return &f, nil
}
