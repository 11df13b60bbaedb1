package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// routeState names the stations of the single-query state machine. States
// advance strictly in the order below; a state either terminates with an
// answer or hands off to the next permitted state.
type routeState int

const (
	stateSmallTalk routeState = iota
	stateSubjective
	stateRetrieval
	stateRelevance
	stateWeb
	stateChatFallback
)

const (
	disclaimerNotFromDocs = "Note: The answer was not found in your documents, so the following comes from general knowledge."
	disclaimerWebFailed   = "Live web search was unavailable."

	defaultResultCount  = 3
	maxWebEvidenceItems = 3
)

// routeSingle answers one standalone query. Gates run first and terminate
// without any retrieval; otherwise the query flows retrieval -> relevance
// check -> web fallback -> chat fallback, degrading gracefully at each step.
// Only errors with no further fallback escape to the Ask boundary.
func (r *Router) routeSingle(ctx context.Context, query string, resultCount int) (*domain.AnswerResult, error) {
	if resultCount <= 0 {
		resultCount = defaultResultCount
	}

	var (
		state     = stateSmallTalk
		passages  []domain.RetrievedPassage
		webFailed bool
	)

	for {
		switch state {
		case stateSmallTalk:
			if r.intents.Classify(query) == IntentSmallTalk {
				return r.openChat(ctx, query, "")
			}
			state = stateSubjective

		case stateSubjective:
			if r.intents.Classify(query) == IntentSubjective {
				return r.openChat(ctx, query, "")
			}
			state = stateRetrieval

		case stateRetrieval:
			found, err := r.retrievePassages(ctx, query, resultCount)
			if err != nil {
				return nil, err
			}
			passages = found
			r.observeRetrieval(len(passages) > 0)
			if len(passages) == 0 {
				state = stateWeb
				continue
			}
			state = stateRelevance

		case stateRelevance:
			answer, err := r.completer.Complete(ctx, domain.TemplateGroundedAnswer, map[string]string{
				"context":  joinPassages(passages),
				"question": query,
			})
			if err != nil {
				return nil, fmt.Errorf("grounded answer: %w", err)
			}
			if strings.Contains(answer, domain.GroundingSentinel) {
				state = stateWeb
				continue
			}
			return &domain.AnswerResult{
				Text:     strings.TrimSpace(answer),
				Evidence: passages,
				Decision: domain.DecisionRAG,
			}, nil

		case stateWeb:
			if !r.webAvailable() {
				r.observeFallback(FallbackWebDisabled)
				state = stateChatFallback
				continue
			}
			result, failure, err := r.answerFromWeb(ctx, query)
			if err != nil {
				return nil, err
			}
			if failure != "" {
				r.observeFallback(failure)
				webFailed = true
				state = stateChatFallback
				continue
			}
			return result, nil

		case stateChatFallback:
			prefix := disclaimerNotFromDocs
			if webFailed {
				prefix = disclaimerWebFailed + " " + disclaimerNotFromDocs
			}
			return r.openChat(ctx, query, prefix)

		default:
			return nil, fmt.Errorf("route single: unknown state %d", state)
		}
	}
}

// retrievePassages queries the index with the loose threshold, then retries
// once unfiltered when the threshold excluded everything on a non-empty
// index. Small indexes with threshold filtering can otherwise starve the
// relevance check of candidates.
func (r *Router) retrievePassages(ctx context.Context, query string, resultCount int) ([]domain.RetrievedPassage, error) {
	threshold := r.cfg.RetrievalThreshold
	passages, err := r.retriever.Search(ctx, query, resultCount, &threshold)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}
	if len(passages) > 0 {
		return passages, nil
	}

	size, err := r.retriever.IndexSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("index size: %w", err)
	}
	if size == 0 {
		return nil, nil
	}

	passages, err = r.retriever.Search(ctx, query, resultCount, nil)
	if err != nil {
		return nil, fmt.Errorf("unfiltered search passages: %w", err)
	}
	return passages, nil
}

// answerFromWeb synthesizes a search query, runs the search and answers from
// the snippets. A non-empty failure reason reports a failed or empty search:
// that is a routing signal toward the chat fallback, not an error.
// Completion failures are errors and propagate.
func (r *Router) answerFromWeb(ctx context.Context, query string) (*domain.AnswerResult, string, error) {
	searchQuery, err := r.completer.Complete(ctx, domain.TemplateSearchQuery, map[string]string{
		"question": query,
	})
	if err != nil {
		return nil, "", fmt.Errorf("synthesize search query: %w", err)
	}
	searchQuery = truncateAtWord(strings.TrimSpace(searchQuery), r.cfg.MaxSearchQueryLength)
	if searchQuery == "" {
		searchQuery = truncateAtWord(query, r.cfg.MaxSearchQueryLength)
	}

	results, err := r.web.Search(ctx, searchQuery, r.cfg.MaxWebResults)
	if err != nil {
		return nil, FallbackWebFailed, nil
	}
	if len(results) == 0 {
		return nil, FallbackWebEmpty, nil
	}

	var contextBuilder strings.Builder
	for _, res := range results {
		contextBuilder.WriteString("Source: ")
		contextBuilder.WriteString(res.Title)
		contextBuilder.WriteString("\n")
		contextBuilder.WriteString(res.Content)
		contextBuilder.WriteString("\n\n")
	}

	answer, err := r.completer.Complete(ctx, domain.TemplateWebAnswer, map[string]string{
		"context":  contextBuilder.String(),
		"question": query,
	})
	if err != nil {
		return nil, "", fmt.Errorf("web answer: %w", err)
	}

	evidence := make([]domain.RetrievedPassage, 0, maxWebEvidenceItems)
	for _, res := range results {
		if len(evidence) == maxWebEvidenceItems {
			break
		}
		label := res.Title
		if label == "" {
			label = "Web"
		}
		evidence = append(evidence, domain.RetrievedPassage{
			Content:     res.Content,
			SourceLabel: label,
		})
	}

	return &domain.AnswerResult{
		Text:     strings.TrimSpace(answer),
		Evidence: evidence,
		Decision: domain.DecisionWeb,
	}, "", nil
}

// openChat produces an ungrounded completion. A non-empty prefix marks the
// answer as degraded so the user can tell grounded from ungrounded replies.
func (r *Router) openChat(ctx context.Context, query, prefix string) (*domain.AnswerResult, error) {
	answer, err := r.completer.Complete(ctx, domain.TemplateOpenChat, map[string]string{
		"question": query,
	})
	if err != nil {
		return nil, fmt.Errorf("open chat: %w", err)
	}

	text := strings.TrimSpace(answer)
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	return &domain.AnswerResult{
		Text:     text,
		Evidence: []domain.RetrievedPassage{},
		Decision: domain.DecisionChat,
	}, nil
}

func joinPassages(passages []domain.RetrievedPassage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}
