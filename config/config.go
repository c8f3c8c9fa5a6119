package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Rating engine tunables. The defaults reproduce the classical
	// K=32 Elo update with a 1200 starting rating.
	EloInitialRating int
	EloKBase         float64
	EloKDecayGames   int

	// Cloudflare R2 (group logo storage). Optional: when AccountID is
	// empty the uploader is disabled and logo endpoints reject uploads.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables, optionally
// picking up a .env file first (local development convenience).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	initialRating, err := intEnv("ELO_INITIAL_RATING", 1200)
	if err != nil {
		return nil, err
	}
	kBase, err := floatEnv("ELO_K_BASE", 32)
	if err != nil {
		return nil, err
	}
	if kBase <= 0 {
		return nil, fmt.Errorf("ELO_K_BASE must be positive, got %v", kBase)
	}
	decayGames, err := intEnv("ELO_K_DECAY_GAMES", 30)
	if err != nil {
		return nil, err
	}
	if decayGames <= 0 {
		return nil, fmt.Errorf("ELO_K_DECAY_GAMES must be positive, got %d", decayGames)
	}

	cfg := &Config{
		DatabaseURL:      dbURL,
		JWTSecretKey:     jwtKey,
		ServerPort:       port,
		EloInitialRating: initialRating,
		EloKBase:         kBase,
		EloKDecayGames:   decayGames,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}

func floatEnv(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}
