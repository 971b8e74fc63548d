package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DBPath     string
	ListenAddr string
	UploadDir  string
	LogLevel   string
	Env        string
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		DBPath:     getEnv("DB_PATH", "database.db"),
		ListenAddr: getEnv("LISTEN_ADDR", ":3000"),
		UploadDir:  getEnv("UPLOAD_DIR", "uploads"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Env:        getEnv("APP_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
