package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_SectionOrder(t *testing.T) {
	docs := []string{"The budget is published every March.", "Audits are annual."}
	mem := []string{"User: hello", "Assistant: hi"}

	out := Assemble("", docs, mem, "When is the budget published?")

	system := strings.Index(out, "governance platform")
	memory := strings.Index(out, "Conversation So Far:")
	context := strings.Index(out, "Context Information:")
	question := strings.Index(out, "User Question:")
	style := strings.Index(out, "Just raw text needed.")

	for name, idx := range map[string]int{
		"system": system, "memory": memory, "context": context,
		"question": question, "style": style,
	} {
		require.GreaterOrEqual(t, idx, 0, "missing %s section", name)
	}

	assert.Less(t, system, memory)
	assert.Less(t, memory, context)
	assert.Less(t, context, question)
	assert.Less(t, question, style)
}

func TestAssemble_ContainsDocsAndQuestion(t *testing.T) {
	out := Assemble("", []string{"doc one", "doc two"}, nil, "what now?")

	assert.Contains(t, out, "doc one\ndoc two")
	assert.Contains(t, out, "User Question: what now?")
	assert.NotContains(t, out, "Conversation So Far:")
}

func TestAssemble_Deterministic(t *testing.T) {
	docs := []string{"a", "b"}
	mem := []string{"User: x"}

	assert.Equal(t,
		Assemble("", docs, mem, "q"),
		Assemble("", docs, mem, "q"),
	)
}

func TestAssemble_CustomSystemPrompt(t *testing.T) {
	out := Assemble("Custom instructions.", nil, nil, "q")

	assert.True(t, strings.HasPrefix(out, "Custom instructions."))
	assert.NotContains(t, out, "Sri Lanka")
}
