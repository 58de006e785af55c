package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/service"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/transport/rest/handler"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/transport/rest/middleware"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	EvaluationService *service.EvaluationService
	AdviceService     *service.AdviceService
	HistoryService    *service.HistoryService
	WSHub             *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	evalHandler := handler.NewEvaluationHandler(c.EvaluationService, c.AdviceService)
	historyHandler := handler.NewHistoryHandler(c.HistoryService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.EvaluationService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/evaluations/{id}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Evaluation routes (registered user or guest token)
	evalRoutes := v1.NewRoute().Subrouter()
	evalRoutes.Use(authMW.RequireAuth)

	evalRoutes.HandleFunc("/evaluations", evalHandler.Start).Methods("POST", "OPTIONS")
	evalRoutes.HandleFunc("/evaluations/{id}", evalHandler.Get).Methods("GET", "OPTIONS")
	evalRoutes.HandleFunc("/evaluations/{id}/answer", evalHandler.Answer).Methods("POST", "OPTIONS")
	evalRoutes.HandleFunc("/evaluations/{id}/next", evalHandler.Next).Methods("POST", "OPTIONS")
	evalRoutes.HandleFunc("/evaluations/{id}/previous", evalHandler.Previous).Methods("POST", "OPTIONS")
	evalRoutes.HandleFunc("/evaluations/{id}/finish", evalHandler.Finish).Methods("POST", "OPTIONS")
	evalRoutes.HandleFunc("/evaluations/{id}/advice", evalHandler.Advice).Methods("GET", "OPTIONS")

	// Registered-user routes (guests have no account and are never persisted)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/history", historyHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/history/{id}", historyHandler.Delete).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
