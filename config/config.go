package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PrimaryJSONURL   string
	SecondaryJSONURL string

	HTTPAddr        string
	FetchTimeoutSec int
	AllowedOrigins  []string
}

// Load reads the .env file and returns a populated Config struct. A missing
// primary source URL is a hard error: there is nothing to serve without it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		PrimaryJSONURL:   getEnv("PRIMARY_JSON_URL", ""),
		SecondaryJSONURL: getEnv("SECONDARY_JSON_URL", ""),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 30),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	if cfg.PrimaryJSONURL == "" {
		return nil, errors.New("PRIMARY_JSON_URL is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
