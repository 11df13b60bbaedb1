package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evmakarov/knowledge-assistant/internal/config"
	"github.com/evmakarov/knowledge-assistant/internal/core/ports"
	"github.com/evmakarov/knowledge-assistant/internal/core/usecase"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/chunking"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/extractor"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/llm/ollama"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/queue/nats"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/repository/postgres"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/resilience"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/storage/localfs"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/vector/qdrant"
	"github.com/evmakarov/knowledge-assistant/internal/infrastructure/websearch/tavily"
)

type App struct {
	Config config.Config

	Queue         ports.MessageQueue
	Documents     ports.DocumentRepository
	Conversations ports.ConversationStore

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	Assistant *usecase.Router

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure document schema: %w", err)
	}
	convRepo := postgres.NewConversationRepository(db)
	if err := convRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure conversation schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithExecutor(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	completer := ollama.NewCompleter(ollamaClient)
	classifier := ollama.NewClassifier(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient)

	vectorClient := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	retriever := qdrant.NewRetriever(embedder, vectorClient)

	var web ports.WebSearcher
	webEnabled := strings.TrimSpace(cfg.TavilyAPIKey) != ""
	if webEnabled {
		tavilyClient, err := tavily.New(cfg.TavilyAPIKey, tavily.Options{
			BaseURL:           cfg.TavilyURL,
			Timeout:           30 * time.Second,
			RequestsPerMinute: cfg.TavilyRequestsPerMinute,
		})
		if err != nil {
			return nil, fmt.Errorf("init web search: %w", err)
		}
		web = tavilyClient
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.New(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(docRepo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(docRepo, textExtractor, classifier, chunker, embedder, vectorClient)
	router := usecase.NewRouter(completer, retriever, web, usecase.RouterConfig{
		RetrievalThreshold:   cfg.RouterScoreThreshold,
		WebEnabled:           webEnabled,
		MaxWebResults:        cfg.RouterMaxWebResults,
		MaxSearchQueryLength: cfg.RouterMaxSearchQueryLen,
	})

	return &App{
		Config: cfg,

		Queue:         queue,
		Documents:     docRepo,
		Conversations: convRepo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		Assistant: router,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
