package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "json fence", input: "```json\n{\"after\": \"x\"}\n```", expected: `{"after": "x"}`},
		{name: "bare fence", input: "```\n{\"after\": \"x\"}\n```", expected: `{"after": "x"}`},
		{name: "fence with other language", input: "```javascript\n{\"after\": \"x\"}\n```", expected: `{"after": "x"}`},
		{name: "plain object", input: `{"after": "x"}`, expected: `{"after": "x"}`},
		{name: "preamble", input: "Here is the rewrite:\n{\"after\": \"x\"}", expected: `{"after": "x"}`},
		{name: "trailing chatter", input: "{\"after\": \"x\"}\n\nHope this helps!", expected: `{"after": "x"}`},
		{name: "array", input: "Items:\n[\"a\", \"b\"]", expected: `["a", "b"]`},
		{name: "object containing array", input: "Result: {\"targets\": [\"Go\"]}", expected: `{"targets": ["Go"]}`},
		{name: "escaped quotes", input: `Result: {"rationale": "says \"hi\" {x}"}`, expected: `{"rationale": "says \"hi\" {x}"}`},
		{name: "no json", input: "  just text  ", expected: "just text"},
		{name: "unbalanced", input: `{"after": "x"`, expected: `{"after": "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSONObject(`{"a": {"b": 1}} tail`))
	assert.Equal(t, `[[1, 2], [3]]`, extractJSONArray(`[[1, 2], [3]] tail`))
	assert.Equal(t, `[{"id": 1}]`, extractJSONArray(`[{"id": 1}]`))
	assert.Empty(t, extractJSONObject("not json"))
	assert.Empty(t, extractJSONArray(""))
}
