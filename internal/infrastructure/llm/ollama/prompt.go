package ollama

import (
	"fmt"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// buildPrompt renders a router template. Wording here is a tuning concern;
// the template ids, slot names and the grounding sentinel are the contract.
func buildPrompt(template domain.PromptTemplate, vars map[string]string) (string, error) {
	switch template {
	case domain.TemplateRefine:
		return fmt.Sprintf(`You are a conversation helper.
If the user message is a simple greeting or pleasantry, return it unchanged.
Otherwise rewrite the question so it stands alone: resolve pronouns and
ambiguous follow-ups using the chat history. Return only the rewritten question.

Chat history:
%s

Question: %s
Standalone question:`, vars["history"], vars["question"]), nil

	case domain.TemplateSearchQuery:
		return fmt.Sprintf(`Turn the question below into one concise web search query.
Return only the query text, no quotes, no explanation.

Question: %s`, vars["question"]), nil

	case domain.TemplateGroundedAnswer:
		return fmt.Sprintf(`Answer the question using ONLY the context below.
If the context does not contain the answer, reply with exactly %s and nothing else.

Context:
%s

Question: %s`, domain.GroundingSentinel, vars["context"], vars["question"]), nil

	case domain.TemplateWebAnswer:
		return fmt.Sprintf(`Answer the question using the web search results below.

Web results:
%s

Question: %s`, vars["context"], vars["question"]), nil

	case domain.TemplateOpenChat:
		return fmt.Sprintf(`You are a helpful assistant. Reply naturally.

User: %s`, vars["question"]), nil

	default:
		return "", fmt.Errorf("unknown prompt template: %s", template)
	}
}

func buildClassificationPrompt(text string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are a document classifier.
Return strict JSON object with keys:
category (string), subcategory (string), tags (array of strings), confidence (number from 0 to 1), summary (string).
No markdown, no extra keys.

Document:
` + snippet
}
