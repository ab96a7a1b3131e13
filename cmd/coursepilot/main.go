package main

import (
	"context"
	"time"

	"coursepilot/internal/api"
	appconfig "coursepilot/internal/config"
	"coursepilot/internal/generator"
	"coursepilot/internal/ingest"
	"coursepilot/internal/knowledge"
	"coursepilot/internal/rag"
	"coursepilot/internal/session"
	"coursepilot/internal/tools"
	"coursepilot/pkg/config"
	"coursepilot/pkg/database"
	"coursepilot/pkg/llm"
	"coursepilot/pkg/logging"
	"coursepilot/pkg/monitoring"
	"coursepilot/pkg/server"
)

const serviceName = "coursepilot"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	cfg := appconfig.Load()

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	embedder, err := llm.NewEmbeddingClient(cfg.Embedding)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create embedding client")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dims, err := llm.ProbeEmbeddingDimensions(startupCtx, embedder)
	if err != nil {
		logger.WithError(err).Fatal("Failed to probe embedding dimensions")
	}
	logger.WithField("dimensions", dims).Info("Embedding model probed")

	if err := knowledge.EnsureSchema(startupCtx, db, dims); err != nil {
		logger.WithError(err).Fatal("Failed to ensure database schema")
	}
	migrated, err := knowledge.EnsureEmbeddingDimensions(startupCtx, db, dims)
	if err != nil {
		logger.WithError(err).Fatal("Failed to align embedding dimensions")
	}
	if migrated {
		logger.WithField("dimensions", dims).Warn("Embedding dimensions changed, stored chunks were dropped")
	}

	store := knowledge.NewStore(db, embedder, cfg.MaxResults, logger)

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewSearchTool(store)); err != nil {
		logger.WithError(err).Fatal("Failed to register search tool")
	}
	if err := registry.Register(tools.NewOutlineTool(store)); err != nil {
		logger.WithError(err).Fatal("Failed to register outline tool")
	}

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create LLM provider")
	}

	engine := generator.New(provider, cfg.MaxToolRounds, logger)
	sessions := session.NewManager(cfg.MaxHistory)
	processor := ingest.NewProcessor(store, cfg.ChunkSize, cfg.ChunkOverlap, logger)

	system := rag.NewSystem(engine, registry, sessions, store, processor, cfg.HasLLMCredentials(), logger)
	if !cfg.HasLLMCredentials() {
		logger.Warn("LLM_API_KEY is not set, queries will answer with a placeholder")
	}

	if cfg.DocsDir != "" {
		courses, chunks, err := system.AddCourseFolder(startupCtx, cfg.DocsDir)
		if err != nil {
			logger.WithError(err).WithField("dir", cfg.DocsDir).Warn("Course folder ingestion skipped")
		} else {
			logger.WithFields(logging.Fields{
				"courses": courses,
				"chunks":  chunks,
			}).Info("Course documents loaded")
		}
	}

	healthChecker := monitoring.NewHealthChecker(serviceName, "1.0.0")
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("configuration", monitoring.ConfigurationHealthCheck(map[string]string{
		"LLM_API_KEY": cfg.LLM.APIKey,
	}))

	router := server.SetupRouter(logger, serviceName)
	router.GET("/health/detailed", healthChecker.Handler())
	api.NewHandlers(system, sessions, logger).RegisterRoutes(router)

	serverConfig := server.DefaultConfig(serviceName, cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
