package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter_EmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty string", text: ""},
		{name: "whitespace only", text: "   "},
		{name: "empty object", text: "{}"},
		{name: "json null", text: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.text)
			require.NoError(t, err)
			assert.Nil(t, f)
		})
	}
}

func TestParseFilter_SingleCondition(t *testing.T) {
	f, err := ParseFilter(`{"equals":{"key":"author_name","value":"Smith"}}`)
	require.NoError(t, err)
	require.NotNil(t, f)
	require.NotNil(t, f.Condition)

	assert.Equal(t, OpEquals, f.Condition.Operator)
	assert.Equal(t, "author_name", f.Condition.Key)
	assert.Equal(t, "Smith", f.Condition.Value)
}

func TestParseFilter_NestedTree(t *testing.T) {
	text := `{"andAll":[
		{"greaterThanOrEquals":{"key":"created_at_unix","value":1754006400}},
		{"orAll":[
			{"in":{"key":"author_name","value":["Smith","Jones"]}},
			{"stringContains":{"key":"title","value":"budget"}}
		]}
	]}`

	f, err := ParseFilter(text)
	require.NoError(t, err)
	require.Len(t, f.AndAll, 2)
	require.Len(t, f.AndAll[1].OrAll, 2)

	assert.Equal(t, OpGreaterThanOrEquals, f.AndAll[0].Condition.Operator)
	assert.Equal(t, OpIn, f.AndAll[1].OrAll[0].Condition.Operator)
	assert.Equal(t, OpStringContains, f.AndAll[1].OrAll[1].Condition.Operator)
}

func TestParseFilter_Rejections(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "unknown operator", text: `{"between":{"key":"x","value":1}}`},
		{name: "missing key", text: `{"equals":{"value":"Smith"}}`},
		{name: "two keys in one node", text: `{"equals":{"key":"a","value":1},"lessThan":{"key":"b","value":2}}`},
		{name: "not an object", text: `["equals"]`},
		{name: "malformed json", text: `{"equals":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestMetadataFilter_MarshalRoundTrip(t *testing.T) {
	f := And(
		Cond(OpGreaterThanOrEquals, "created_at_unix", float64(1754006400)),
		Or(
			Cond(OpIn, "author_name", []interface{}{"Smith"}),
			Cond(OpEquals, "category", "finance"),
		),
	)

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var back MetadataFilter
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *f, back)
}

func TestMetadataFilter_MarshalEmptyAsObject(t *testing.T) {
	data, err := json.Marshal(&MetadataFilter{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestMetadataFilter_Keys(t *testing.T) {
	f := And(
		Cond(OpGreaterThanOrEquals, "created_at_unix", 1),
		Cond(OpLessThanOrEquals, "created_at_unix", 2),
		Or(
			Cond(OpIn, "author_name", []interface{}{"Smith"}),
			Cond(OpStringContains, "title", "budget"),
		),
	)

	keys := f.Keys()
	assert.Len(t, keys, 3)
	assert.Contains(t, keys, "created_at_unix")
	assert.Contains(t, keys, "author_name")
	assert.Contains(t, keys, "title")

	assert.Equal(t, []string{"author_name", "created_at_unix", "title"}, f.SortedKeys())
}

func TestMetadataFilter_KeysNilSafe(t *testing.T) {
	var f *MetadataFilter
	assert.Empty(t, f.Keys())
	assert.True(t, f.IsEmpty())
}

func TestMetadataFilter_IsEmpty(t *testing.T) {
	assert.True(t, (&MetadataFilter{}).IsEmpty())
	assert.False(t, Cond(OpEquals, "k", "v").IsEmpty())
	assert.False(t, And(Cond(OpEquals, "k", "v")).IsEmpty())
}
