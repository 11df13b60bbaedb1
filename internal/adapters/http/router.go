package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
	"github.com/evmakarov/knowledge-assistant/internal/core/ports"
	"github.com/evmakarov/knowledge-assistant/internal/observability/metrics"
)

const serviceName = "knowledge-assistant-api"

type Router struct {
	ingestUC      ports.DocumentIngestor
	assistant     ports.Assistant
	conversations ports.ConversationStore
	documents     ports.DocumentReader

	metrics        *metrics.HTTPServerMetrics
	historyWindow  int
	resultCount    int
	rateLimitRPS   int
	rateLimitBurst int
}

type RouterOptions struct {
	HistoryWindow  int
	ResultCount    int
	RateLimitRPS   int
	RateLimitBurst int
}

func NewRouter(
	ingestUC ports.DocumentIngestor,
	assistant ports.Assistant,
	conversations ports.ConversationStore,
	documents ports.DocumentReader,
	serverMetrics *metrics.HTTPServerMetrics,
	options RouterOptions,
) *Router {
	historyWindow := options.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = 6
	}
	resultCount := options.ResultCount
	if resultCount <= 0 {
		resultCount = 3
	}

	return &Router{
		ingestUC:       ingestUC,
		assistant:      assistant,
		conversations:  conversations,
		documents:      documents,
		metrics:        serverMetrics,
		historyWindow:  historyWindow,
		resultCount:    resultCount,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/chat", rt.chat)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.rateLimitRPS, rt.rateLimitBurst, handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type chatRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
	ResultCount    int    `json:"result_count"`
}

type chatResponse struct {
	ConversationID string                    `json:"conversation_id"`
	Answer         string                    `json:"answer"`
	Decision       domain.RoutingDecision    `json:"decision"`
	Evidence       []domain.RetrievedPassage `json:"evidence"`
}

// chat runs one turn: load the recent transcript, hand it to the router
// read-only, then append both sides of the exchange. The router itself never
// writes history, so a failed append loses at most transcript persistence,
// never a partially-routed answer.
func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	if _, err := rt.conversations.EnsureConversation(r.Context(), req.UserID, conversationID); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	recent, err := rt.conversations.ListRecentMessages(r.Context(), req.UserID, conversationID, rt.historyWindow)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	history := make([]domain.ConversationTurn, 0, len(recent))
	for _, msg := range recent {
		history = append(history, domain.ConversationTurn{Role: msg.Role, Text: msg.Content})
	}

	resultCount := req.ResultCount
	if resultCount <= 0 {
		resultCount = rt.resultCount
	}

	start := time.Now()
	result := rt.assistant.Ask(r.Context(), req.Query, history, resultCount)
	if rt.metrics != nil {
		rt.metrics.RecordRouterDecision(serviceName, string(result.Decision), len(result.Evidence), time.Since(start))
	}

	rt.appendTranscript(r, req.UserID, conversationID, req.Query, result)

	writeJSON(w, http.StatusOK, chatResponse{
		ConversationID: conversationID,
		Answer:         result.Text,
		Decision:       result.Decision,
		Evidence:       result.Evidence,
	})
}

func (rt *Router) appendTranscript(r *http.Request, userID, conversationID, query string, result *domain.AnswerResult) {
	now := time.Now().UTC()
	userMsg := domain.ConversationMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        query,
		CreatedAt:      now,
	}
	// Insertion order fixes transcript order: the store sequences messages
	// itself, so both turns can share one timestamp.
	assistantMsg := domain.ConversationMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Content:        result.Text,
		Decision:       string(result.Decision),
		CreatedAt:      now,
	}

	if err := rt.conversations.AppendMessage(r.Context(), userMsg); err != nil {
		logAppendFailure(r, "user", err)
		return
	}
	if err := rt.conversations.AppendMessage(r.Context(), assistantMsg); err != nil {
		logAppendFailure(r, "assistant", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
