package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings, loaded once at startup.
type Config struct {
	HTTPPort    string
	MongoURI    string
	RedisAddr   string
	ModelPath   string
	CORSOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	return &Config{
		HTTPPort:    getEnv("PORT", "8080"),
		MongoURI:    os.Getenv("MONGO_URI"),
		RedisAddr:   os.Getenv("REDIS_URI"),
		ModelPath:   getEnv("MODEL_PATH", "models/crop_model.json"),
		CORSOrigins: splitOrigins(os.Getenv("CORS_ORIGINS")),
	}
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"*"}
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
