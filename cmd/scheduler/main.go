package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/finlend/origination-engine/internal/config"
	"github.com/finlend/origination-engine/internal/repository"
	"github.com/finlend/origination-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	log.Println("Starting origination scheduler...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanService := buildLoanService(cfg, db, redisClient)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Daily sweep for loans that crossed their top-up eligibility date
	_, err = c.AddFunc(cfg.Scheduler.TopUpSweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		notified, err := loanService.RunTopUpSweep(ctx)
		if err != nil {
			log.Printf("Top-up sweep failed: %v", err)
			return
		}
		log.Printf("Top-up sweep complete, %d loans notified", notified)
	})
	if err != nil {
		log.Fatalf("Error scheduling top-up sweep: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}

func buildLoanService(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client) *service.LoanService {
	loanRepo := repository.NewLoanRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	sequences := service.NewSequenceGenerator(sequenceRepo, cfg.Business.SequenceRetryAttempts)
	notifications := service.NewNotificationService(notificationRepo, userRepo)

	return service.NewLoanService(loanRepo, userRepo, auditRepo, policyRepo,
		sequences, notifications, redisClient, cfg.GetCacheTTL())
}
