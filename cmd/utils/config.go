package utils

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries all process-wide settings. It is loaded once in main and
// handed to each component constructor.
type Config struct {
	DatabaseURL        string
	ServerPort         string
	JWTSecret          string
	JWTAlgorithm       string
	TokenExpiryMinutes int
	LLMAPIKey          string
	LLMBaseURL         string
	LLMModel           string
	LLMTimeoutSeconds  int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on process environment")
	}

	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTAlgorithm:       getEnv("JWT_ALGORITHM", "HS256"),
		TokenExpiryMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 1440),
		LLMAPIKey:          os.Getenv("LLM_API_KEY"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o"),
		LLMTimeoutSeconds:  getEnvInt("LLM_TIMEOUT_SECONDS", 30),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Invalid value for %s, using default %d", key, fallback)
		return fallback
	}
	return parsed
}
