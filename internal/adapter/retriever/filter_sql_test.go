package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kb-connector/internal/domain"
)

func TestCompileFilter_EmptyFilter(t *testing.T) {
	prefix := []interface{}{"vec", "collection"}

	clause, args, err := compileFilter(nil, prefix)
	require.NoError(t, err)
	assert.Empty(t, clause)
	assert.Equal(t, prefix, args)

	clause, args, err = compileFilter(&domain.MetadataFilter{}, prefix)
	require.NoError(t, err)
	assert.Empty(t, clause)
	assert.Equal(t, prefix, args)
}

func TestCompileFilter_Equals(t *testing.T) {
	f := domain.Cond(domain.OpEquals, "author_name", "Smith")

	clause, args, err := compileFilter(f, []interface{}{"vec"})
	require.NoError(t, err)

	assert.Equal(t, "metadata->>$2 = $3", clause)
	assert.Equal(t, []interface{}{"vec", "author_name", "Smith"}, args)
}

func TestCompileFilter_NumericOperators(t *testing.T) {
	tests := []struct {
		op     domain.FilterOperator
		symbol string
	}{
		{domain.OpGreaterThan, ">"},
		{domain.OpGreaterThanOrEquals, ">="},
		{domain.OpLessThan, "<"},
		{domain.OpLessThanOrEquals, "<="},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			f := domain.Cond(tt.op, "created_at_unix", float64(1754006400))

			clause, args, err := compileFilter(f, nil)
			require.NoError(t, err)

			assert.Equal(t, "(metadata->>$1)::numeric "+tt.symbol+" $2", clause)
			assert.Equal(t, []interface{}{"created_at_unix", float64(1754006400)}, args)
		})
	}
}

func TestCompileFilter_NumericOperatorRejectsNonNumber(t *testing.T) {
	f := domain.Cond(domain.OpGreaterThan, "created_at_unix", "yesterday")

	_, _, err := compileFilter(f, nil)
	assert.Error(t, err)
}

func TestCompileFilter_InList(t *testing.T) {
	f := domain.Cond(domain.OpIn, "author_name", []interface{}{"John", "Smith"})

	clause, args, err := compileFilter(f, nil)
	require.NoError(t, err)

	assert.Equal(t, "metadata->>$1 = ANY($2)", clause)
	require.Len(t, args, 2)
	assert.Equal(t, []string{"John", "Smith"}, args[1])
}

func TestCompileFilter_InScalarCoercedToList(t *testing.T) {
	f := domain.Cond(domain.OpIn, "author_name", "Smith")

	clause, args, err := compileFilter(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "metadata->>$1 = ANY($2)", clause)
	assert.Equal(t, []string{"Smith"}, args[1])
}

func TestCompileFilter_NotOperators(t *testing.T) {
	notEq := domain.Cond(domain.OpNotEquals, "category", "spam")
	clause, _, err := compileFilter(notEq, nil)
	require.NoError(t, err)
	assert.Equal(t, "metadata->>$1 IS DISTINCT FROM $2", clause)

	notIn := domain.Cond(domain.OpNotIn, "category", []interface{}{"spam"})
	clause, _, err = compileFilter(notIn, nil)
	require.NoError(t, err)
	assert.Equal(t, "NOT (metadata->>$1 = ANY($2))", clause)
}

func TestCompileFilter_StringContains(t *testing.T) {
	f := domain.Cond(domain.OpStringContains, "title", "budget")

	clause, args, err := compileFilter(f, nil)
	require.NoError(t, err)

	assert.Equal(t, "metadata->>$1 LIKE '%' || $2 || '%'", clause)
	assert.Equal(t, []interface{}{"title", "budget"}, args)
}

func TestCompileFilter_NestedTree(t *testing.T) {
	f := domain.And(
		domain.Cond(domain.OpGreaterThanOrEquals, "created_at_unix", float64(1)),
		domain.Or(
			domain.Cond(domain.OpEquals, "author_name", "Smith"),
			domain.Cond(domain.OpEquals, "author_name", "Jones"),
		),
	)

	clause, args, err := compileFilter(f, []interface{}{"vec", "col"})
	require.NoError(t, err)

	assert.Equal(t,
		"((metadata->>$3)::numeric >= $4 AND (metadata->>$5 = $6 OR metadata->>$7 = $8))",
		clause)
	assert.Len(t, args, 8)
	assert.Equal(t, "author_name", args[4])
	assert.Equal(t, "Jones", args[7])
}

func TestScalarText_NumberFormatting(t *testing.T) {
	// jsonb ->> renders numbers without exponent notation; the bind value
	// must match or text comparison silently fails.
	assert.Equal(t, "1754006400", scalarText(float64(1754006400)))
	assert.Equal(t, "0.5", scalarText(0.5))
	assert.Equal(t, "42", scalarText(42))
	assert.Equal(t, "true", scalarText(true))
	assert.Equal(t, "Smith", scalarText("Smith"))
}
