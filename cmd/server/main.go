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

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/finlend/origination-engine/internal/config"
	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/handler"
	"github.com/finlend/origination-engine/internal/repository"
	"github.com/finlend/origination-engine/internal/service"
	"github.com/finlend/origination-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	quotationRepo := repository.NewQuotationRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	hvAmount, hvRate, hvTenure := cfg.GetFallbackThresholds()
	defaults := domain.PolicyThresholds{
		LoanAmount:      hvAmount,
		MinInterestRate: hvRate,
		MaxTenure:       hvTenure,
	}

	sequences := service.NewSequenceGenerator(sequenceRepo, cfg.Business.SequenceRetryAttempts)
	classifier := service.NewClassifier(policyRepo, defaults)
	notifications := service.NewNotificationService(notificationRepo, userRepo)
	quotationService := service.NewQuotationService(quotationRepo, userRepo, auditRepo,
		sequences, classifier, notifications, redisClient, cfg.GetCacheTTL())
	loanService := service.NewLoanService(loanRepo, userRepo, auditRepo, policyRepo,
		sequences, notifications, redisClient, cfg.GetCacheTTL())
	policyService := service.NewPolicyService(policyRepo, auditRepo)

	// Initialize handlers
	quotationHandler := handler.NewQuotationHandler(quotationService)
	loanHandler := handler.NewLoanHandler(loanService)
	policyHandler := handler.NewPolicyHandler(policyService)
	notificationHandler := handler.NewNotificationHandler(notifications)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(quotationHandler, loanHandler, policyHandler, notificationHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	quotationHandler *handler.QuotationHandler,
	loanHandler *handler.LoanHandler,
	policyHandler *handler.PolicyHandler,
	notificationHandler *handler.NotificationHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware, response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes, all behind the identity middleware
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(handler.ActorMiddleware)

	api.HandleFunc("/quotations", quotationHandler.List).Methods("GET")
	api.HandleFunc("/quotations", quotationHandler.Create).Methods("POST")
	api.HandleFunc("/quotations/{id}", quotationHandler.Get).Methods("GET")
	api.HandleFunc("/quotations/{id}", quotationHandler.Update).Methods("PATCH")
	api.HandleFunc("/quotations/{id}/status", quotationHandler.UpdateStatus).Methods("PATCH")
	api.HandleFunc("/quotations/{id}", quotationHandler.Delete).Methods("DELETE")

	// Register the static path before the parameterized one
	api.HandleFunc("/loans/topup-eligible", loanHandler.TopUpEligible).Methods("GET")
	api.HandleFunc("/loans", loanHandler.List).Methods("GET")
	api.HandleFunc("/loans", loanHandler.Create).Methods("POST")
	api.HandleFunc("/loans/{id}", loanHandler.Get).Methods("GET")
	api.HandleFunc("/loans/{id}/stage", loanHandler.UpdateStage).Methods("PATCH")
	api.HandleFunc("/loans/{id}/disburse", loanHandler.Disburse).Methods("PATCH")

	api.HandleFunc("/policy", policyHandler.Get).Methods("GET")
	api.HandleFunc("/policy", policyHandler.Update).Methods("PATCH")

	api.HandleFunc("/notifications", notificationHandler.List).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("PATCH")

	return router
}
