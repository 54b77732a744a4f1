// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the listing service.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	StorageURL         string // base URL of the object-storage HTTP API
	StorageKey         string // bearer token for object-storage writes
	PosterBucket       string // bucket holding job poster images
	SignInPath         string // where AccessGate redirects unauthenticated callers
	SessionTTLHours    int    // admin session lifetime
	PurgeIntervalHours int    // how often expired sessions are purged
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	storageURL := os.Getenv("STORAGE_URL")
	if storageURL == "" {
		return nil, fmt.Errorf("STORAGE_URL is required")
	}

	bucket := os.Getenv("POSTER_BUCKET")
	if bucket == "" {
		bucket = "posters"
	}

	signInPath := os.Getenv("SIGNIN_PATH")
	if signInPath == "" {
		signInPath = "/login"
	}

	ttl := 24
	if s := os.Getenv("SESSION_TTL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer, got %q", s)
		}
		ttl = v
	}

	purge := 1
	if s := os.Getenv("PURGE_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("PURGE_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		purge = v
	}

	port := os.Getenv("LISTING_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		Port:               port,
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		StorageURL:         storageURL,
		StorageKey:         os.Getenv("STORAGE_KEY"),
		PosterBucket:       bucket,
		SignInPath:         signInPath,
		SessionTTLHours:    ttl,
		PurgeIntervalHours: purge,
	}, nil
}
