package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	ProgressDBPath    string
	PineconeAPIKey    string
	PineconeIndexName string
	PineconeNamespace string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	AgentMaxTurns     int
	PlannerTimeout    time.Duration
	EmbedTimeout      time.Duration
}

// Load reads configuration from the environment. A local .env file is
// applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] No .env file loaded: %v", err)
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DB_URL"),
		ProgressDBPath:    getEnv("PROGRESS_DB_PATH", "./student_progress.db"),
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName: getEnv("PINECONE_INDEX_NAME", "learning-companion-kb"),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "learning_companion_kb"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AgentMaxTurns:     getEnvInt("AGENT_MAX_TURNS", 25),
		PlannerTimeout:    getEnvDuration("PLANNER_TIMEOUT", 2*time.Minute),
		EmbedTimeout:      getEnvDuration("EMBED_TIMEOUT", 2*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] Invalid value for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] Invalid value for %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
