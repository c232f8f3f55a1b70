package retriever

import (
	"fmt"
	"strconv"
	"strings"

	"kb-connector/internal/domain"
)

// sqlBuilder accumulates positional arguments while the filter tree is
// compiled, so placeholders stay consistent regardless of nesting.
type sqlBuilder struct {
	args []interface{}
}

func (b *sqlBuilder) placeholder(value interface{}) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// compileFilter translates a metadata filter tree into a SQL predicate over
// the jsonb metadata column, appending bind arguments after the given prefix
// args. A nil/empty filter compiles to an empty predicate.
func compileFilter(filter *domain.MetadataFilter, prefixArgs []interface{}) (string, []interface{}, error) {
	if filter.IsEmpty() {
		return "", prefixArgs, nil
	}
	b := &sqlBuilder{args: prefixArgs}
	clause, err := compileNode(filter, b)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

func compileNode(filter *domain.MetadataFilter, b *sqlBuilder) (string, error) {
	switch {
	case filter.Condition != nil:
		return compileCondition(filter.Condition, b)
	case len(filter.AndAll) > 0:
		return compileBranch(filter.AndAll, " AND ", b)
	case len(filter.OrAll) > 0:
		return compileBranch(filter.OrAll, " OR ", b)
	default:
		return "", fmt.Errorf("empty filter node")
	}
}

func compileBranch(subs []*domain.MetadataFilter, joiner string, b *sqlBuilder) (string, error) {
	clauses := make([]string, 0, len(subs))
	for _, sub := range subs {
		clause, err := compileNode(sub, b)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return "(" + strings.Join(clauses, joiner) + ")", nil
}

func compileCondition(cond *domain.FilterCondition, b *sqlBuilder) (string, error) {
	field := fmt.Sprintf("metadata->>%s", b.placeholder(cond.Key))

	switch cond.Operator {
	case domain.OpEquals:
		return fmt.Sprintf("%s = %s", field, b.placeholder(scalarText(cond.Value))), nil
	case domain.OpNotEquals:
		return fmt.Sprintf("%s IS DISTINCT FROM %s", field, b.placeholder(scalarText(cond.Value))), nil
	case domain.OpIn:
		return fmt.Sprintf("%s = ANY(%s)", field, b.placeholder(textList(cond.Value))), nil
	case domain.OpNotIn:
		return fmt.Sprintf("NOT (%s = ANY(%s))", field, b.placeholder(textList(cond.Value))), nil
	case domain.OpGreaterThan:
		return numericCompare(field, ">", cond.Value, b)
	case domain.OpGreaterThanOrEquals:
		return numericCompare(field, ">=", cond.Value, b)
	case domain.OpLessThan:
		return numericCompare(field, "<", cond.Value, b)
	case domain.OpLessThanOrEquals:
		return numericCompare(field, "<=", cond.Value, b)
	case domain.OpStringContains:
		return fmt.Sprintf("%s LIKE '%%' || %s || '%%'", field, b.placeholder(scalarText(cond.Value))), nil
	default:
		return "", fmt.Errorf("unsupported filter operator %q", cond.Operator)
	}
}

func numericCompare(field, op string, value interface{}, b *sqlBuilder) (string, error) {
	num, ok := asFloat(value)
	if !ok {
		return "", fmt.Errorf("operator %q requires a numeric value, got %T", op, value)
	}
	return fmt.Sprintf("(%s)::numeric %s %s", field, op, b.placeholder(num)), nil
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// scalarText renders a JSON scalar the way ->> renders it, so text
// comparisons line up with the stored jsonb values.
func scalarText(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func textList(value interface{}) []string {
	switch v := value.(type) {
	case []interface{}:
		out := make([]string, len(v))
		for i, elem := range v {
			out[i] = scalarText(elem)
		}
		return out
	case []string:
		return v
	default:
		return []string{scalarText(value)}
	}
}
