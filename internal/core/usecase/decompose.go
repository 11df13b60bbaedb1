package usecase

import "strings"

// Decomposer splits a refined query into independent sub-queries. It is a
// syntactic heuristic, not a grammar; keeping it behind an interface lets a
// proper classifier replace it without touching the routing state machine.
type Decomposer interface {
	Decompose(query string) []string
}

type heuristicDecomposer struct{}

func NewHeuristicDecomposer() Decomposer {
	return heuristicDecomposer{}
}

// whMarkers are the interrogative words counted by the " and " rule.
var whMarkers = []string{"what", "why", "how", "when", "where", "who", "which"}

// Decompose applies two deterministic rules, cheapest first:
//
//  1. Split on "?" — two or more non-empty fragments become sub-queries,
//     each with its "?" restored, order preserved.
//  2. A single space-bounded " and " splits the query in two, but only when
//     at least two distinct WH words appear; "What is the capital and why"
//     carries one WH word and stays whole.
//
// Anything else is a single query. No model call is involved, so the common
// single-question case pays nothing.
func (heuristicDecomposer) Decompose(query string) []string {
	if parts := splitOnQuestionMarks(query); len(parts) >= 2 {
		return parts
	}

	lower := strings.ToLower(query)
	if idx := strings.Index(lower, " and "); idx >= 0 && countDistinctWHMarkers(lower) >= 2 {
		left := strings.TrimSpace(query[:idx])
		right := strings.TrimSpace(query[idx+len(" and "):])
		if left != "" && right != "" {
			return []string{left, right}
		}
	}

	return []string{query}
}

func splitOnQuestionMarks(query string) []string {
	fragments := strings.Split(query, "?")
	out := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		trimmed := strings.TrimSpace(fragment)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed+"?")
	}
	return out
}

func countDistinctWHMarkers(lower string) int {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})

	seen := make(map[string]struct{}, len(whMarkers))
	for _, word := range words {
		for _, marker := range whMarkers {
			if word == marker {
				seen[marker] = struct{}{}
			}
		}
	}
	return len(seen)
}
