package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

func newConversationRepoWithMock(t *testing.T) (*ConversationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ConversationRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureConversationUpsertsThenSelects(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO conversations").
		WithArgs("u-1", "c-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id, conversation_id, created_at, updated_at").
		WithArgs("u-1", "c-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "conversation_id", "created_at", "updated_at"}).
			AddRow("u-1", "c-1", now, now))

	conv, err := repo.EnsureConversation(context.Background(), "u-1", "c-1")
	if err != nil {
		t.Fatalf("EnsureConversation() error = %v", err)
	}
	if conv.UserID != "u-1" || conv.ConversationID != "c-1" {
		t.Fatalf("conversation = %+v", conv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendMessageStoresNullDecisionForUserTurns(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO conversation_messages").
		WithArgs("m-1", "u-1", "c-1", "user", "hello", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendMessage(context.Background(), domain.ConversationMessage{
		ID:             "m-1",
		UserID:         "u-1",
		ConversationID: "c-1",
		Role:           domain.RoleUser,
		Content:        "hello",
	})
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendMessageStoresDecisionForAssistantTurns(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO conversation_messages").
		WithArgs("m-2", "u-1", "c-1", "assistant", "Paris.", "RAG", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendMessage(context.Background(), domain.ConversationMessage{
		ID:             "m-2",
		UserID:         "u-1",
		ConversationID: "c-1",
		Role:           domain.RoleAssistant,
		Content:        "Paris.",
		Decision:       "RAG",
	})
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentMessagesReversesToChronologicalOrder(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	// Both rows share one timestamp on purpose: ordering comes from the
	// sequence column, never from created_at. SQL returns newest first; the
	// repository must hand back oldest first.
	base := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, user_id, conversation_id, role, content, COALESCE\(decision, ''\), created_at\s+FROM conversation_messages\s+WHERE user_id = \$1 AND conversation_id = \$2\s+ORDER BY seq DESC`).
		WithArgs("u-1", "c-1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "conversation_id", "role", "content", "decision", "created_at"}).
			AddRow("m-2", "u-1", "c-1", "assistant", "Paris.", "RAG", base).
			AddRow("m-1", "u-1", "c-1", "user", "capital of France?", "", base))

	messages, err := repo.ListRecentMessages(context.Background(), "u-1", "c-1", 2)
	if err != nil {
		t.Fatalf("ListRecentMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].ID != "m-1" || messages[1].ID != "m-2" {
		t.Fatalf("order = [%s, %s], want chronological", messages[0].ID, messages[1].ID)
	}
	if messages[0].Role != domain.RoleUser {
		t.Fatalf("role = %s", messages[0].Role)
	}
	if messages[1].Decision != "RAG" {
		t.Fatalf("decision = %q", messages[1].Decision)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentMessagesZeroLimit(t *testing.T) {
	repo, _, done := newConversationRepoWithMock(t)
	defer done()

	messages, err := repo.ListRecentMessages(context.Background(), "u-1", "c-1", 0)
	if err != nil {
		t.Fatalf("ListRecentMessages() error = %v", err)
	}
	if messages != nil {
		t.Fatalf("messages = %v, want nil without touching the database", messages)
	}
}

func TestListRecentMessagesQueryError(t *testing.T) {
	repo, mock, done := newConversationRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, user_id, conversation_id, role, content").
		WithArgs("u-1", "c-1", 3).
		WillReturnError(errors.New("connection reset"))

	if _, err := repo.ListRecentMessages(context.Background(), "u-1", "c-1", 3); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
