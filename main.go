package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/handler"
	"github.com/al0dan/absher/middleware"
	"github.com/al0dan/absher/pkg/logger"
	"github.com/al0dan/absher/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize store and seed demo accounts
	store, err := service.NewStore(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.SeedUsers(cfg.Users); err != nil {
		slog.Error("failed to seed users", "error", err)
		os.Exit(1)
	}

	// Initialize services
	aiSvc := service.NewAIService(&cfg.AI)
	wathqSvc := service.NewWathqService(&cfg.Wathq)
	zatcaSvc := service.NewZatcaService()
	nafathSvc := service.NewNafathService(&cfg.Nafath)

	// Object-storage archive is optional
	var archiveSvc *service.ArchiveService
	if cfg.Archive.Endpoint != "" {
		archiveSvc, err = service.NewArchiveService(&cfg.Archive)
		if err != nil {
			slog.Error("failed to initialize archive service", "error", err)
			os.Exit(1)
		}
		if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("archive endpoint not configured, artifact archiving disabled")
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg, store)
	nafathHandler := handler.NewNafathHandler(nafathSvc)
	contractHandler := handler.NewContractHandler(store, aiSvc, zatcaSvc, archiveSvc)
	lookupHandler := handler.NewLookupHandler(store, wathqSvc)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())     // Request ID for tracing
	router.Use(middleware.Recovery())      // Panic recovery
	router.Use(middleware.RequestLogger()) // Access logging
	router.Use(corsMiddleware())           // CORS
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, time.Minute))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Metrics endpoint
	router.GET("/metrics", func(c *gin.Context) {
		count, err := store.CountContracts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count contracts"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"total_contracts": count})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/nafath", nafathHandler.Redirect)
		api.GET("/auth/nafath/callback", nafathHandler.Callback)
		api.POST("/validate/vat", lookupHandler.ValidateVAT)
		api.POST("/validate/cr", lookupHandler.ValidateCR)
		api.POST("/validate/both", lookupHandler.ValidateBoth)
		api.POST("/lookup/cr", lookupHandler.LookupCR)

		// Signing-token access needs no session: the token is the capability
		api.GET("/contract/token/:token", contractHandler.GetByToken)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/contracts", contractHandler.Create)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.POST("/contracts/:id/sign", contractHandler.Sign)
		protected.GET("/contracts/:id/export", contractHandler.Export)
		protected.GET("/contracts/:id/invoice", contractHandler.Invoice)
		protected.GET("/contracts/:id/archive", contractHandler.ArchiveURLs)
		protected.GET("/dashboard", contractHandler.Dashboard)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
