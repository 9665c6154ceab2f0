// Package app wires the service together: adapters, services, HTTP routes
// and the load-then-serve lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"courserag/features/chat"
	"courserag/features/stats"
	"courserag/internal/adapter/gemini"
	"courserag/internal/config"
	"courserag/internal/docparse"
	"courserag/internal/ingest"
	"courserag/internal/middleware"
	"courserag/internal/retrieval"
	"courserag/internal/session"
	"courserag/internal/tools"
)

type App struct {
	Handler http.Handler
	Ingest  *ingest.Service

	port int
}

func New(cfg *config.Config, deps *Dependencies) *App {
	embedder := gemini.NewEmbedder(deps.GenAI, cfg.EmbeddingModel)
	generator := gemini.NewGenerator(deps.GenAI, cfg.ChatModel)

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(embedder, deps.Store, cfg.MaxResults, queryLogger)

	parser := docparse.NewParser(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestService := ingest.NewService(parser, embedder, deps.Store)

	sessionRepo := session.NewPostgresRepo(deps.DB)
	sessionService := session.NewService(sessionRepo, cfg.MaxHistory)

	// One manager per request: tool source tracking is per-exchange state.
	newTools := func() *tools.Manager {
		return tools.NewManager(
			tools.NewSearchTool(retrievalService, deps.Store),
			tools.NewOutlineTool(retrievalService, deps.Store),
		)
	}

	chatService := chat.NewService(generator, sessionService, newTools)
	chatHandler := chat.NewHandler(chatService)
	statsHandler := stats.NewHandler(deps.Store)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/query", middleware.CorrelationID(enableCORS(chatHandler.Query)))
	mux.Handle("GET /api/courses", middleware.CorrelationID(enableCORS(statsHandler.GetCourses)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler: mux,
		Ingest:  ingestService,
		port:    cfg.ServerPort,
	}
}

// LoadCourses indexes the docs folder before the server accepts traffic. A
// missing folder is not fatal; the service starts with an empty catalog.
func (a *App) LoadCourses(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		slog.Warn("course docs folder not found, starting with empty index", "path", path)
		return
	}

	courses, chunks, err := a.Ingest.AddCourseFolder(ctx, path, false)
	if err != nil {
		slog.Error("failed to load course documents", "error", err)
		return
	}
	slog.Info("course documents loaded", "courses", courses, "chunks", chunks)
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
