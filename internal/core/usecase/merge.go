package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// mergeAndAnswer routes every sub-query independently and assembles one
// combined result. Sub-queries share no mutable state, but output order
// always follows decomposition order. The merged decision stays RAG only
// when every part was RAG; any WEB or CHAT part flips it to MIXED.
func (r *Router) mergeAndAnswer(ctx context.Context, subQueries []string, resultCount int) (*domain.AnswerResult, error) {
	var (
		sections []string
		evidence []domain.RetrievedPassage
		allRAG   = true
	)

	for _, subQuery := range subQueries {
		result, err := r.routeSingle(ctx, subQuery, resultCount)
		if err != nil {
			return nil, fmt.Errorf("route sub-query %q: %w", subQuery, err)
		}

		sections = append(sections, fmt.Sprintf("**%s**\n%s", strings.TrimSpace(subQuery), result.Text))
		evidence = append(evidence, result.Evidence...)
		if result.Decision != domain.DecisionRAG {
			allRAG = false
		}
	}

	decision := domain.DecisionMixed
	if allRAG {
		decision = domain.DecisionRAG
	}

	if evidence == nil {
		evidence = []domain.RetrievedPassage{}
	}
	return &domain.AnswerResult{
		Text:     strings.Join(sections, "\n\n"),
		Evidence: evidence,
		Decision: decision,
	}, nil
}
