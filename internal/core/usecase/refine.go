package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// refineHistoryWindow bounds how many trailing turns condition the rewrite.
// Older turns stay in the transcript but are not consulted here.
const refineHistoryWindow = 3

// Refine rewrites a raw query into a standalone question using recent
// history. A completion failure propagates: the top-level Ask boundary is
// the only place that converts failures into a user-facing result.
func (r *Router) Refine(ctx context.Context, rawQuery string, history []domain.ConversationTurn) (string, error) {
	out, err := r.completer.Complete(ctx, domain.TemplateRefine, map[string]string{
		"history":  formatHistory(history, refineHistoryWindow),
		"question": rawQuery,
	})
	if err != nil {
		return "", fmt.Errorf("refine query: %w", err)
	}

	refined := strings.TrimSpace(out)
	if refined == "" {
		refined = strings.TrimSpace(rawQuery)
	}
	return refined, nil
}

func formatHistory(history []domain.ConversationTurn, window int) string {
	if window <= 0 || len(history) == 0 {
		return ""
	}
	start := len(history) - window
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, turn := range history[start:] {
		b.WriteString(strings.ToUpper(string(turn.Role)))
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
