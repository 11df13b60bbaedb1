package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

func TestAskMultiQuestionMergesInOrder(t *testing.T) {
	completer := &routeCompleterFake{
		responses: map[domain.PromptTemplate]string{
			domain.TemplateGroundedAnswer: "grounded part",
		},
	}
	retriever := &retrieverFake{filtered: somePassages()}
	router := NewRouter(completer, retriever, nil, RouterConfig{})

	result := router.Ask(context.Background(), "What is Go? Who created it?", nil, 3)

	if result.Decision != domain.DecisionRAG {
		t.Fatalf("decision = %s, want %s when every part is grounded", result.Decision, domain.DecisionRAG)
	}

	first := strings.Index(result.Text, "**What is Go?**")
	second := strings.Index(result.Text, "**Who created it?**")
	if first < 0 || second < 0 {
		t.Fatalf("merged text %q missing section headers", result.Text)
	}
	if first > second {
		t.Fatalf("sections out of decomposition order in %q", result.Text)
	}
	// Two grounded parts, two passages each.
	if len(result.Evidence) != 4 {
		t.Fatalf("evidence length = %d, want 4", len(result.Evidence))
	}
}

func TestAskMixedDecisionWhenPartsDiverge(t *testing.T) {
	// First sub-query is factual and grounds fine; second is small talk
	// and routes to chat, so the merged decision must be MIXED.
	completer := &routeCompleterFake{
		responses: map[domain.PromptTemplate]string{
			domain.TemplateGroundedAnswer: "grounded part",
			domain.TemplateOpenChat:       "chat part",
		},
	}
	retriever := &retrieverFake{filtered: somePassages()}
	router := NewRouter(completer, retriever, nil, RouterConfig{})

	result := router.Ask(context.Background(), "What is Go? How are you?", nil, 3)

	if result.Decision != domain.DecisionMixed {
		t.Fatalf("decision = %s, want %s", result.Decision, domain.DecisionMixed)
	}
	if !strings.Contains(result.Text, "grounded part") || !strings.Contains(result.Text, "chat part") {
		t.Fatalf("merged text %q missing a part", result.Text)
	}
}

func TestAskMergedChatPartsKeepEmptyEvidence(t *testing.T) {
	completer := &routeCompleterFake{}
	retriever := &retrieverFake{}
	router := NewRouter(completer, retriever, nil, RouterConfig{})

	result := router.Ask(context.Background(), "How are you? Whats up?", nil, 3)

	if result.Decision != domain.DecisionMixed {
		t.Fatalf("decision = %s, want %s", result.Decision, domain.DecisionMixed)
	}
	if result.Evidence == nil || len(result.Evidence) != 0 {
		t.Fatalf("evidence = %#v, want empty non-nil slice", result.Evidence)
	}
}
