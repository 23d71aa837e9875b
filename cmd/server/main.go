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

	"quitwell/coaching-app/internal/api"
	"quitwell/coaching-app/internal/config"
	"quitwell/coaching-app/internal/notifier"
	"quitwell/coaching-app/internal/repository/mongo"
	"quitwell/coaching-app/internal/service"
	"quitwell/coaching-app/internal/sweeper"
)

func main() {
	log.Println("Starting QuitWell coaching server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("quit_plans"))
		mongo.EnsurePhaseIndexes(ctx, appDB.Collection("quit_phases"))
		log.Println("Index creation process completed.")
	}()

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	phaseRepo := mongo.NewMongoPhaseRepository(appDB)

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	coachService := service.NewCoachService(userRepo)
	planService := service.NewPlanService(
		planRepo, phaseRepo,
		notifier.NewLogNotifier(),
		cfg.Policy.MinPlanDurationDays,
		cfg.Policy.MinFeedbackLength,
	)
	phaseService := service.NewPhaseService(planRepo, phaseRepo)
	historyService := service.NewHistoryService(planRepo, userRepo)

	// --- Background sweep ---
	if cfg.Sweeper.Enabled {
		sw := sweeper.New(planService, cfg.Sweeper.Schedule)
		if err := sw.Start(); err != nil {
			log.Fatalf("FATAL: Could not start expiry sweeper: %v", err)
		}
		defer sw.Stop()
	}

	// --- HTTP ---
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, cfg.JWT.Secret, authService, coachService, planService, phaseService, historyService)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server error: %v", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}
	log.Println("Server exited.")
}
