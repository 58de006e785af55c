package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	_ "github.com/KazeemKazeem/Relationship-Reality-Check/docs"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/cache"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/config"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/evaluation"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/repository"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/service"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/transport/rest"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/transport/ws"
)

// @title Relationship Reality Check API
// @version 1.0
// @description Likert-scale relationship evaluation and scoring service
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// The catalog and weight tables are process-wide constants; a violated
	// invariant is a build defect, not a runtime condition.
	if err := evaluation.ValidateCatalog(); err != nil {
		log.Fatal("Question catalog invariant violated: ", err)
	}
	log.Println("Question catalog validated")

	// Advice generator configuration
	aiConfig := config.DefaultAIConfig()
	log.Printf("Advice model: %s", aiConfig.Model)
	if aiConfig.IsEnabled() {
		log.Println("Gemini API key: configured")
	} else {
		log.Println("Gemini API key: NOT SET (advice falls back to static text)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisAddr
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	userRepo := repository.NewUserRepo(db)
	evalRepo := repository.NewEvaluationRepo(db)

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	historyCache := cache.NewHistoryCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	adviceSvc := service.NewAdviceService()
	historySvc := service.NewHistoryService(evalRepo, historyCache)
	evalSvc := service.NewEvaluationService(sessionCache, evalRepo, historyCache)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	evalSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:       authSvc,
		EvaluationService: evalSvc,
		AdviceService:     adviceSvc,
		HistoryService:    historySvc,
		WSHub:             wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/register")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/auth/guest")
		log.Println("  POST/GET /v1/evaluations")
		log.Println("  POST /v1/evaluations/{id}/answer|next|previous|finish")
		log.Println("  GET  /v1/evaluations/{id}/advice")
		log.Println("  GET/DELETE /v1/history")
		log.Println("  WS  /v1/ws/evaluations/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
