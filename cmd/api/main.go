package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/numa-labs/numa/internal/analytics"
	"github.com/numa-labs/numa/internal/api/handlers"
	"github.com/numa-labs/numa/internal/api/middleware"
	"github.com/numa-labs/numa/internal/auth"
	"github.com/numa-labs/numa/internal/brain"
	"github.com/numa-labs/numa/internal/config"
	"github.com/numa-labs/numa/internal/export"
	"github.com/numa-labs/numa/internal/finance"
	"github.com/numa-labs/numa/internal/gcs"
	"github.com/numa-labs/numa/internal/jobs/inmemory"
	"github.com/numa-labs/numa/internal/logger"
	"github.com/numa-labs/numa/internal/notionsync"
	"github.com/numa-labs/numa/internal/receipts"
	"github.com/numa-labs/numa/internal/store/postgres"
	"github.com/numa-labs/numa/internal/transcribe"
	"github.com/numa-labs/numa/internal/voice"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	txStore := postgres.NewStore(pool)
	userStore := postgres.NewUserStore(pool)

	authSvc := auth.NewService(userStore, cfg.JWTSecret, 24*time.Hour)
	financeSvc := finance.NewService(txStore)

	gemini, err := brain.NewGemini(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reasoning client")
	}

	transcriber, err := transcribe.NewGoogleTranscriber(ctx, cfg.GoogleProject, cfg.SpeechRegion)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transcriber")
	}
	defer transcriber.Close()

	var archive gcs.Archive
	if cfg.GCSBucket != "" {
		bucketArchive, err := gcs.NewBucketArchive(ctx, cfg.GCSBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage archive")
		}
		defer bucketArchive.Close()
		archive = bucketArchive
	} else {
		log.Warn().Msg("No GCS bucket configured - audio and receipt archival disabled")
	}

	var (
		ledger   analytics.Exporter
		reporter handlers.MonthlyReporter
	)
	if cfg.BigQueryProject != "" {
		exporter, err := analytics.NewBigQueryExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create analytics exporter")
		}
		defer exporter.Close()
		ledger = exporter
		reporter = exporter
	} else {
		log.Warn().Msg("No BigQuery project configured - ledger export and reports disabled")
	}

	var notion *notionsync.Syncer
	if cfg.NotionAPIKey != "" && cfg.NotionDatabaseID != "" {
		notion = notionsync.NewSyncer(notionsync.NewNotionClient(cfg.NotionAPIKey), cfg.NotionDatabaseID)
	} else {
		log.Warn().Msg("Notion not configured - page sync disabled")
	}

	// Job infrastructure with an in-process worker.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	exportHandler := export.NewHandler(financeSvc, ledger, notion)
	if err := jobQueue.Start(workerCtx, exportHandler.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start export worker")
	}

	orchestrator := voice.NewOrchestrator(transcriber, gemini, financeSvc)
	verifier := receipts.NewVerifier(gemini, financeSvc, archive)

	authHandler := handlers.NewAuthHandler(authSvc, log)
	voiceHandler := handlers.NewVoiceHandler(orchestrator, archive, log)
	transactionsHandler := handlers.NewTransactionsHandler(financeSvc, verifier, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	reportsHandler := handlers.NewReportsHandler(reporter, log)

	requireAuth := middleware.Auth(authSvc)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			authHandler.Register(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			authHandler.Login(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.Handle("/api/voice", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			voiceHandler.HandleVoice(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/chat", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			voiceHandler.HandleChat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/transactions", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/transactions/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		id, action, _ := strings.Cut(rest, "/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			transactionsHandler.Get(w, r, id)
		case action == "verify" && r.Method == http.MethodPost:
			transactionsHandler.Verify(w, r, id)
		case action == "verify-manual" && r.Method == http.MethodPost:
			transactionsHandler.VerifyManual(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/reports/monthly", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.Monthly(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/jobs", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/jobs/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.Get(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
