package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/craftbase/site-provisioner/internal/client"
	"github.com/craftbase/site-provisioner/internal/config"
	"github.com/craftbase/site-provisioner/internal/db"
	"github.com/craftbase/site-provisioner/internal/http"
	"github.com/craftbase/site-provisioner/internal/publisher"
	"github.com/craftbase/site-provisioner/internal/repository"
	"github.com/craftbase/site-provisioner/internal/service"
	"github.com/craftbase/site-provisioner/internal/template"
)

func main() {
	log.Println("Starting Site Provisioner...")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	pool, err := db.NewPool(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Initialize repositories
	websiteRepo := repository.NewWebsiteRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	logRepo := repository.NewLogRepository(pool)

	// Initialize platform clients
	ctx := context.Background()

	githubClient := client.NewGitHubClient(cfg.GitHub.Token, cfg.GitHub.Org)

	storageClient, err := client.NewStorageClient(ctx, cfg.Cloud.ProjectID)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	defer storageClient.Close()

	buildClient, err := client.NewCloudBuildClient(ctx, cfg.Cloud.ProjectID, cfg.Cloud.Region, cfg.Cloud.Connection)
	if err != nil {
		log.Fatalf("Failed to create build client: %v", err)
	}

	runClient, err := client.NewCloudRunClient(ctx, cfg.Cloud.ProjectID, cfg.Cloud.Region)
	if err != nil {
		log.Fatalf("Failed to create run client: %v", err)
	}

	// Initialize services
	provisionService := service.NewProvisionService(
		cfg,
		storageClient,
		githubClient,
		template.NewMaterializer(),
		publisher.New(githubClient),
		service.NewRegistrar(buildClient, buildClient),
	)

	sessionService := service.NewSessionService(cfg, buildClient, buildClient, runClient)

	// Initialize HTTP server
	handler := http.NewHandler(provisionService, sessionService, websiteRepo, sessionRepo, logRepo)
	server := http.NewServer(cfg, pool, handler)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("Server starting on %s", addr)
		if err := server.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server exited")
}
