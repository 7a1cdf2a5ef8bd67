// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the binaries need to start.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	GoogleProject string
	GCSBucket     string
	SpeechRegion  string
	GeminiModel   string

	BigQueryProject string
	BigQueryDataset string

	NotionAPIKey     string
	NotionDatabaseID string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		GoogleProject:    os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
		SpeechRegion:     getenv("SPEECH_REGION", "us-central1"),
		GeminiModel:      getenv("GEMINI_MODEL", ""),
		BigQueryProject:  os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:  getenv("BIGQUERY_DATASET", "numa"),
		NotionAPIKey:     os.Getenv("NOTION_API_KEY"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
	}

	if cfg.BigQueryProject == "" {
		cfg.BigQueryProject = cfg.GoogleProject
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
