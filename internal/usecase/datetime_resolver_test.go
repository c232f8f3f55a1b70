package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeRangeResolver_Resolve(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`[
		{"original": "August 2025", "parsed": "from 2025-08-01T00:00:00Z to 2025-08-31T23:59:59Z"}
	]`}}
	resolver := NewDateTimeRangeResolver(llm, testLogger())

	ranges := resolver.Resolve(context.Background(), "Show me posts from August 2025")
	require.Len(t, ranges, 1)

	assert.Equal(t, "August 2025", ranges[0].Original)
	assert.Equal(t, "2025-08-01T00:00:00Z", ranges[0].StartISO)
	assert.Equal(t, int64(1754006400), ranges[0].StartUnix)
	assert.Equal(t, "2025-08-31T23:59:59Z", ranges[0].EndISO)
	assert.Equal(t, int64(1756684799), ranges[0].EndUnix)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Show me posts from August 2025")
}

func TestDateTimeRangeResolver_FencedOutput(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"```json\n[{\"original\":\"2024\",\"parsed\":\"from 2024-01-01T00:00:00Z to 2024-12-31T23:59:59Z\"}]\n```"}}
	resolver := NewDateTimeRangeResolver(llm, testLogger())

	ranges := resolver.Resolve(context.Background(), "anything from 2024")
	require.Len(t, ranges, 1)
	assert.Equal(t, "2024-01-01T00:00:00Z", ranges[0].StartISO)
}

func TestDateTimeRangeResolver_SoftFailures(t *testing.T) {
	tests := []struct {
		name string
		llm  *scriptedLLM
	}{
		{name: "model error", llm: &scriptedLLM{err: errors.New("model down")}},
		{name: "non-json output", llm: &scriptedLLM{responses: []string{"I could not find any dates."}}},
		{name: "empty array", llm: &scriptedLLM{responses: []string{"[]"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewDateTimeRangeResolver(tt.llm, testLogger())
			assert.Empty(t, resolver.Resolve(context.Background(), "some query"))
		})
	}
}

func TestDateTimeRangeResolver_DropsInvalidRanges(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`[
		{"original": "good", "parsed": "from 2024-01-01 to 2024-01-31"},
		{"original": "backwards", "parsed": "from 2024-02-01 to 2024-01-01"},
		{"original": "no pattern", "parsed": "around January"}
	]`}}
	resolver := NewDateTimeRangeResolver(llm, testLogger())

	ranges := resolver.Resolve(context.Background(), "query")
	require.Len(t, ranges, 1)
	assert.Equal(t, "good", ranges[0].Original)
}
