package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/justsurfingit/job-recommender/internal/config"
	"github.com/justsurfingit/job-recommender/internal/database"
	"github.com/justsurfingit/job-recommender/internal/embedding"
	"github.com/justsurfingit/job-recommender/internal/handlers"
	"github.com/justsurfingit/job-recommender/internal/services"
)

func main() {
	// 1. Load Configuration (.env + environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database Connection (optional, only used for history)
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Printf("⚠️  Recommendation history disabled: %v", err)
			db = nil
		}
	} else {
		log.Println("DATABASE_URL not set, recommendation history disabled")
	}

	// 3. Initialize Embedding Client
	embedder, err := embedding.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedding client: ", err)
	}
	log.Printf("✅ Embedding provider %s (%s, dim %d)", cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.EmbeddingDim)

	// 4. Initialize Core Services (Dependencies)
	historyService := services.NewHistoryService(db)
	recommendService := services.NewRecommendService(cfg, embedder)

	// 5. Load the Job Catalog
	if cfg.DataPath != "" {
		up, err := recommendService.LoadCatalogFile(ctx, cfg.DataPath)
		if err != nil {
			log.Printf("⚠️  Failed to load dataset %s: %v", cfg.DataPath, err)
		} else {
			log.Printf("✅ Indexed %d jobs from %s", up.JobsIndexed, cfg.DataPath)
		}
	} else if err := recommendService.RestoreCatalog(); err == nil {
		log.Printf("✅ Restored catalog with %d jobs", recommendService.CatalogSize())
	} else if !services.IsCacheMiss(err) {
		log.Printf("⚠️  Failed to restore catalog: %v", err)
	}

	// 6. Initialize Handlers & Router
	recommendHandler := handlers.NewRecommendHandler(recommendService, historyService)
	r := handlers.NewRouter(recommendHandler)

	// 7. Serve until SIGINT/SIGTERM
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Forced shutdown: %v", err)
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
