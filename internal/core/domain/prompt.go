package domain

// PromptTemplate identifies a fixed instruction with named slots. The wording
// lives in the completion adapter; only the template id, the slot names and
// the grounding sentinel are load-bearing for the router.
type PromptTemplate string

const (
	// TemplateRefine rewrites a follow-up into a standalone question.
	// Slots: history, question.
	TemplateRefine PromptTemplate = "refine"
	// TemplateSearchQuery synthesizes a concise web search query.
	// Slots: question.
	TemplateSearchQuery PromptTemplate = "search_query"
	// TemplateGroundedAnswer answers strictly from retrieved context and
	// emits GroundingSentinel when the context does not contain the answer.
	// Slots: context, question.
	TemplateGroundedAnswer PromptTemplate = "grounded_answer"
	// TemplateWebAnswer answers from web search snippets.
	// Slots: context, question.
	TemplateWebAnswer PromptTemplate = "web_answer"
	// TemplateOpenChat answers without external grounding.
	// Slots: question.
	TemplateOpenChat PromptTemplate = "open_chat"
)

// GroundingSentinel is the machine-checkable marker the grounded-answer
// template instructs the model to emit when retrieved context cannot answer
// the question. Checking for it replaces free-text refusal detection.
const GroundingSentinel = "MISSING_INFO"
