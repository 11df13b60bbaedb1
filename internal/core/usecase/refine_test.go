package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

func TestRefinePassesHistoryWindow(t *testing.T) {
	completer := &routeCompleterFake{
		responses: map[domain.PromptTemplate]string{
			domain.TemplateRefine: "When was the Eiffel Tower built?",
		},
	}
	router := NewRouter(completer, &retrieverFake{}, nil, RouterConfig{})

	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "first"},
		{Role: domain.RoleUser, Text: "tell me about the eiffel tower"},
		{Role: domain.RoleAssistant, Text: "It is a tower in Paris."},
		{Role: domain.RoleUser, Text: "interesting"},
	}

	refined, err := router.Refine(context.Background(), "when was it built", history)
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if refined != "When was the Eiffel Tower built?" {
		t.Fatalf("refined = %q", refined)
	}

	vars := completer.vars[domain.TemplateRefine]
	if vars["question"] != "when was it built" {
		t.Fatalf("question var = %q", vars["question"])
	}
	if strings.Contains(vars["history"], "first") {
		t.Fatalf("history var %q includes turns beyond the window", vars["history"])
	}
	if !strings.Contains(vars["history"], "ASSISTANT: It is a tower in Paris.") {
		t.Fatalf("history var %q missing role-tagged turn", vars["history"])
	}
}

func TestRefineEmptyResultFallsBackToRawQuery(t *testing.T) {
	completer := &routeCompleterFake{
		responses: map[domain.PromptTemplate]string{
			domain.TemplateRefine: "   ",
		},
	}
	router := NewRouter(completer, &retrieverFake{}, nil, RouterConfig{})

	refined, err := router.Refine(context.Background(), "  what is go  ", nil)
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if refined != "what is go" {
		t.Fatalf("refined = %q, want trimmed raw query", refined)
	}
}

func TestRefinePropagatesCompletionError(t *testing.T) {
	completer := &routeCompleterFake{
		errs: map[domain.PromptTemplate]error{
			domain.TemplateRefine: errors.New("down"),
		},
	}
	router := NewRouter(completer, &retrieverFake{}, nil, RouterConfig{})

	if _, err := router.Refine(context.Background(), "q", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	if got := formatHistory(nil, 3); got != "" {
		t.Fatalf("formatHistory(nil) = %q, want empty", got)
	}
}
