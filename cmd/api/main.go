package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/evmakarov/knowledge-assistant/internal/adapters/http"
	"github.com/evmakarov/knowledge-assistant/internal/bootstrap"
	"github.com/evmakarov/knowledge-assistant/internal/config"
	"github.com/evmakarov/knowledge-assistant/internal/observability/logging"
	"github.com/evmakarov/knowledge-assistant/internal/observability/metrics"
)

const apiService = "knowledge-assistant-api"

// routerTelemetry feeds the router's retrieval and fallback signals into the
// api's prometheus registry.
type routerTelemetry struct {
	metrics *metrics.HTTPServerMetrics
}

func (t routerTelemetry) RetrievalObserved(hit bool) {
	t.metrics.RecordRetrievalOutcome(apiService, hit)
}

func (t routerTelemetry) FallbackObserved(reason string) {
	t.metrics.RecordFallback(apiService, reason)
}

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(apiService, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics(apiService)
	app.Assistant.WithObserver(routerTelemetry{metrics: serverMetrics})
	router := httpadapter.NewRouter(
		app.IngestUC,
		app.Assistant,
		app.Conversations,
		app.Documents,
		serverMetrics,
		httpadapter.RouterOptions{
			HistoryWindow:  cfg.ChatHistoryMessages,
			ResultCount:    cfg.RouterResultCount,
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
