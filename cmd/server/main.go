package main

import (
	"log"
	"log/slog"

	"github.com/contentmachine/contentmachine/internal/ai"
	"github.com/contentmachine/contentmachine/internal/auth"
	"github.com/contentmachine/contentmachine/internal/config"
	"github.com/contentmachine/contentmachine/internal/database"
	"github.com/contentmachine/contentmachine/internal/models"
	"github.com/contentmachine/contentmachine/internal/plan"
	"github.com/contentmachine/contentmachine/internal/server"
	"github.com/contentmachine/contentmachine/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := worker.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.EncryptionKey != "" {
		if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
			log.Fatalf("failed to initialize encryption: %v", err)
		}
	} else {
		log.Println("WARNING: ENCRYPTION_KEY not set. User AI API keys will be stored unencrypted.")
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	if err := database.SeedReferenceData(db); err != nil {
		log.Fatalf("failed to seed reference data: %v", err)
	}

	if cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			log.Printf("failed to seed dev data: %v", err)
		}
	}

	auth.InitProviders(cfg)

	if err := worker.InitClient(cfg.RedisURL); err != nil {
		log.Fatalf("failed to initialize task client: %v", err)
	}
	defer worker.CloseClient()

	aiClient := ai.NewClient(cfg.OpenRouterAPIKey, cfg.AppURL)

	progress, err := plan.NewProgress(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to create progress tracker: %v", err)
	}
	defer progress.Close()

	generator := plan.NewGenerator(db, ai.NewGateway(aiClient), progress, logger)

	stopWorker, err := worker.Start(cfg, generator)
	if err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
	defer stopWorker()

	r := server.New(server.Deps{
		Cfg:          cfg,
		DB:           db,
		AIClient:     aiClient,
		PlanProgress: progress,
		Logger:       logger,
		EnqueuePlan:  worker.EnqueueGeneratePlan,
	})

	logger.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
