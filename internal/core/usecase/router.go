package usecase

import (
	"strings"

	"github.com/evmakarov/knowledge-assistant/internal/core/ports"
)

// RouterConfig is the value set fixed at construction time. The threshold is
// expressed in the retrieval backend's own convention (cosine similarity,
// higher is better) and is deliberately loose: borderline matches survive
// retrieval so the grounded-answer check gets to judge them.
type RouterConfig struct {
	RetrievalThreshold   float64
	WebEnabled           bool
	MaxWebResults        int
	MaxSearchQueryLength int
}

func (c RouterConfig) normalize() RouterConfig {
	out := c
	if out.RetrievalThreshold <= 0 {
		out.RetrievalThreshold = 0.30
	}
	if out.MaxWebResults <= 0 {
		out.MaxWebResults = 5
	}
	if out.MaxSearchQueryLength <= 0 {
		out.MaxSearchQueryLength = 120
	}
	return out
}

// Fallback reasons reported to the DecisionObserver when a query degrades
// to the chat fallback.
const (
	FallbackWebDisabled = "web_disabled"
	FallbackWebFailed   = "web_failed"
	FallbackWebEmpty    = "web_empty"
)

// DecisionObserver receives routing telemetry: whether retrieval produced
// candidate passages, and why a query fell back to ungrounded chat. A nil
// observer disables reporting; implementations must not block.
type DecisionObserver interface {
	RetrievalObserved(hit bool)
	FallbackObserved(reason string)
}

// Router decides, per query, which sources to consult and in what order.
// It holds no mutable state across calls: history is caller-supplied input
// and all persistence lives behind the injected collaborators.
type Router struct {
	completer  ports.TextCompleter
	retriever  ports.PassageRetriever
	web        ports.WebSearcher
	intents    IntentClassifier
	decomposer Decomposer
	observer   DecisionObserver
	cfg        RouterConfig
}

func NewRouter(
	completer ports.TextCompleter,
	retriever ports.PassageRetriever,
	web ports.WebSearcher,
	cfg RouterConfig,
) *Router {
	return &Router{
		completer:  completer,
		retriever:  retriever,
		web:        web,
		intents:    NewRuleClassifier(DefaultRules()),
		decomposer: NewHeuristicDecomposer(),
		cfg:        cfg.normalize(),
	}
}

// WithIntentClassifier swaps the rule set used by the small-talk and
// subjective gates, mainly for tests and tuning.
func (r *Router) WithIntentClassifier(classifier IntentClassifier) *Router {
	if classifier != nil {
		r.intents = classifier
	}
	return r
}

// WithObserver attaches routing telemetry (retrieval hits, fallback
// reasons). Wired by the api binary to its prometheus counters.
func (r *Router) WithObserver(observer DecisionObserver) *Router {
	r.observer = observer
	return r
}

func (r *Router) observeRetrieval(hit bool) {
	if r.observer != nil {
		r.observer.RetrievalObserved(hit)
	}
}

func (r *Router) observeFallback(reason string) {
	if r.observer != nil {
		r.observer.FallbackObserved(reason)
	}
}

// webAvailable reports whether the web fallback may be attempted at all.
// This is a cheap capability check, never a probing call.
func (r *Router) webAvailable() bool {
	return r.cfg.WebEnabled && r.web != nil
}

// truncateAtWord cuts s to at most max runes at a space boundary, never
// mid-word, unless the first word alone exceeds max.
func truncateAtWord(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return strings.TrimSpace(s)
	}
	cut := string(runes[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
