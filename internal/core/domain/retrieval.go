package domain

// RoutingDecision labels which source(s) produced an answer.
type RoutingDecision string

const (
	DecisionRAG  RoutingDecision = "RAG"
	DecisionWeb  RoutingDecision = "WEB"
	DecisionChat RoutingDecision = "CHAT"
	// DecisionMixed appears only when a compound query was split and the
	// sub-answers used different sources. A single query never ends MIXED.
	DecisionMixed RoutingDecision = "MIXED"
)

// RetrievedPassage is one unit of evidence: a document chunk or a web snippet.
// Score follows the convention of the backend that produced it (qdrant cosine
// similarity as wired here, higher is better). Scores from different backends
// are never compared against each other.
type RetrievedPassage struct {
	Content     string  `json:"content"`
	SourceLabel string  `json:"source_label"`
	Score       float64 `json:"score"`
}

// AnswerResult is the router's sole output per user turn.
type AnswerResult struct {
	Text     string             `json:"text"`
	Evidence []RetrievedPassage `json:"evidence"`
	Decision RoutingDecision    `json:"decision"`
}

// WebResult is a single live web search hit.
type WebResult struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	SourceID string `json:"source_id"`
}
