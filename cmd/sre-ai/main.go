package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"github.com/Amitabh1998/sre-ai/internal/alerts"
	"github.com/Amitabh1998/sre-ai/internal/config"
	"github.com/Amitabh1998/sre-ai/internal/database"
	"github.com/Amitabh1998/sre-ai/internal/feed"
	"github.com/Amitabh1998/sre-ai/internal/handlers"
	"github.com/Amitabh1998/sre-ai/internal/investigation"
	"github.com/Amitabh1998/sre-ai/internal/jobs"
	"github.com/Amitabh1998/sre-ai/internal/llm"
	"github.com/Amitabh1998/sre-ai/internal/middleware"
	"github.com/Amitabh1998/sre-ai/internal/notify"
	"github.com/Amitabh1998/sre-ai/internal/secrets"
)

const investigationTimeout = 5 * time.Minute

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SRE-AI incident pipeline...")

	if cfg.AdminPassword == "" {
		log.Fatalf("ADMIN_PASSWORD is not set")
	}
	passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	jwtAuthMiddleware := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: passwordHash,
		JWTSecret:         cfg.JWTSecret,
		JWTExpiryHours:    cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/webhook/*",
			"/auth/login",
		},
	})
	log.Printf("JWT authentication enabled for user: %s", cfg.AdminUsername)

	// Database
	db, err := database.Connect(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	if err := database.InitializeDefaults(db, cfg.DefaultOrgName); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}

	store := database.NewStore(db)

	// The dashboard API operates on the default organization. Webhooks
	// address organizations by slug and are not bound to it.
	defaultOrg, err := store.GetOrganizationBySlug("default")
	if err != nil {
		log.Fatalf("Failed to resolve default organization: %v", err)
	}

	// Integration credential encryption
	cipher, err := secrets.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential encryption: %v", err)
	}

	// Model backend
	if !cfg.HasModelBackend() {
		log.Fatalf("No model backend configured: set OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	llmClient, err := llm.NewClient(llm.Config{
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})
	if err != nil {
		log.Fatalf("Failed to initialize model client: %v", err)
	}
	log.Printf("Model backend: %s", llmClient.Provider())

	// Slack notifications (nil when unconfigured)
	notifier := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel)
	if notifier == nil {
		log.Printf("Slack notifications DISABLED (set SLACK_BOT_TOKEN and SLACK_CHANNEL)")
	} else {
		log.Printf("Slack notifications enabled on channel %s", cfg.SlackChannel)
	}

	// Live activity feed
	hub := feed.NewHub()

	// Investigation pipeline
	gatherer := investigation.NewGatherer(store, cipher)
	generator := investigation.NewGenerator(llmClient)
	orchestrator := investigation.NewOrchestrator(store, gatherer, generator, hub)
	dispatcher := investigation.NewDispatcher(orchestrator, investigationTimeout)
	dispatcher.OnFailure = func(incidentUUID string, err error) {
		notifier.InvestigationFailed(incidentUUID, err)
	}
	dispatcher.OnSuccess = func(result *investigation.Result) {
		incident, err := store.GetIncidentByUUID(result.IncidentUUID)
		if err != nil {
			return
		}
		highest := 0
		for _, h := range result.Hypotheses {
			if h.Confidence > highest {
				highest = h.Confidence
			}
		}
		notifier.InvestigationCompleted(incident, len(result.Hypotheses), highest)
	}

	// Alert ingestion front door
	frontDoor := alerts.NewFrontDoor(store, dispatcher)

	// HTTP surface
	router := &handlers.Router{
		Auth: jwtAuthMiddleware,
		CORS: middleware.NewCORSMiddleware(),
		Handlers: []handlers.RouteRegistrar{
			handlers.NewAuthHandler(jwtAuthMiddleware),
			handlers.NewIncidentHandler(store, dispatcher, notifier, defaultOrg.ID),
			handlers.NewIntegrationHandler(store, cipher, defaultOrg.ID),
			handlers.NewDashboardHandler(store, defaultOrg.ID),
			handlers.NewWebhookHandler(frontDoor),
		},
		WSHandler: hub.HandleWebSocket,
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router.Build(),
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Watchdog for investigations that never report back
	stop := make(chan struct{})
	if cfg.StaleInvestigationMinutes > 0 {
		monitor := jobs.NewStaleInvestigationMonitor(db,
			time.Duration(cfg.StaleInvestigationMinutes)*time.Minute)
		go monitor.Start(time.Minute, stop)
		log.Printf("Stale investigation monitor started (threshold: %d minutes)", cfg.StaleInvestigationMinutes)
	}

	log.Println("SRE-AI is running! Press Ctrl+C to exit.")
	log.Printf("Alert webhook endpoint: http://localhost:%d/webhook/alerts/{orgSlug}", cfg.HTTPPort)
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api", cfg.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal, cleaning up...")

	close(stop)
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	log.Println("Draining in-flight investigations...")
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error draining investigations: %v", err)
	}

	log.Println("Shutdown complete")
}
