package usecase

import (
	"context"
	"log/slog"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

const systemErrorText = "Something went wrong while answering your question. Please try again."

// Ask is the single caller-facing operation: refine, decompose, route,
// merge. It is also the all-enclosing error boundary — any failure from the
// collaborators ends up as a CHAT-tagged result with a generic message and
// empty evidence, never as an error to the caller.
func (r *Router) Ask(ctx context.Context, query string, history []domain.ConversationTurn, resultCount int) *domain.AnswerResult {
	result, err := r.answer(ctx, query, history, resultCount)
	if err != nil {
		slog.Error("router_failure", "error", err)
		return &domain.AnswerResult{
			Text:     systemErrorText,
			Evidence: []domain.RetrievedPassage{},
			Decision: domain.DecisionChat,
		}
	}
	return result
}

func (r *Router) answer(ctx context.Context, query string, history []domain.ConversationTurn, resultCount int) (*domain.AnswerResult, error) {
	refined, err := r.Refine(ctx, query, history)
	if err != nil {
		return nil, err
	}

	subQueries := r.decomposer.Decompose(refined)
	if len(subQueries) > 1 {
		return r.mergeAndAnswer(ctx, subQueries, resultCount)
	}
	return r.routeSingle(ctx, refined, resultCount)
}
