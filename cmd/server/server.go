package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/config"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/db"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/handlers"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services/agent"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services/knowledge"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if cfg.PineconeAPIKey == "" {
		log.Fatal("PINECONE_API_KEY environment variable is required")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	if cfg.AnthropicAPIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required")
	}

	progressRepo, err := newProgressRepository(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize progress database: %v", err)
	}
	defer progressRepo.Close()

	knowledgeService, err := knowledge.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName, cfg.PineconeNamespace, cfg.EmbedTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize knowledge service: %v", err)
	}

	progressService := services.NewProgressService(progressRepo)
	progressHandler := handlers.NewProgressHandler(progressService)

	tools := []agent.AgentTool{
		agent.NewRetrieveContentTool(knowledgeService),
		agent.NewGetStudentProgressTool(progressService),
		agent.NewUpdateStudentProgressTool(progressService),
	}
	planner := agent.NewAnthropicPlanner(cfg.AnthropicAPIKey, tools, cfg.PlannerTimeout)
	agentService := agent.NewService(planner, tools, cfg.AgentMaxTurns)
	agentHandler := handlers.NewAgentHandler(agentService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	progressHandler.RegisterRoutes(router)
	agentHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// newProgressRepository prefers Postgres when DB_URL is set and falls
// back to the embedded SQLite store otherwise.
func newProgressRepository(cfg *config.Config) (db.ProgressRepository, error) {
	if cfg.DatabaseURL != "" {
		log.Printf("[INFO] Using Postgres progress store")
		return db.NewPostgresProgressRepository(cfg.DatabaseURL)
	}
	log.Printf("[INFO] Using SQLite progress store at %s", cfg.ProgressDBPath)
	return db.NewSQLiteProgressRepository(cfg.ProgressDBPath)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
