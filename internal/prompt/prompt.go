// Package prompt builds the generation prompt from system instructions,
// retrieved context, session memory, and the user question.
package prompt

import "strings"

// SystemPrompt steers the assistant's role and tone.
const SystemPrompt = `You are an intelligent assistant for the Democratic Socialist Republic of Sri Lanka's blockchain-powered transparent governance platform. You help citizens understand governance processes, access information, and engage with democratic systems.

Your Role and Behavior:
- You are a helpful, knowledgeable, and friendly assistant that communicates naturally like a chatbot
- Keep answers short, clear, and professional
- If context lacks enough information, say so honestly`

// closing steers the response style toward unformatted text.
const closing = `Respond naturally as a helpful governance platform assistant would, using the context information to provide accurate and concise answers. Do not add any styles to text. Just raw text needed.`

// Assemble concatenates the prompt sections in a fixed order: system
// instructions, conversation memory, retrieved context, the question, and
// closing style instructions. Output is deterministic for a given input.
func Assemble(system string, docs, memoryLines []string, question string) string {
	if system == "" {
		system = SystemPrompt
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n")

	if len(memoryLines) > 0 {
		b.WriteString("Conversation So Far:\n")
		b.WriteString(strings.Join(memoryLines, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("Context Information: ")
	b.WriteString(strings.Join(docs, "\n"))
	b.WriteString("\n\n")

	b.WriteString("User Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString(closing)
	return b.String()
}
