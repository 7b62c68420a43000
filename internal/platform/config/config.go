// Package config loads process configuration from the environment so main
// stays lean.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	defaultAddr     = ":8080"
	defaultTokenTTL = time.Hour
	defaultCacheTTL = 5 * time.Minute
)

// Server captures process level configuration.
type Server struct {
	Addr string

	// JWTSecret signs bearer tokens. Its absence is a fatal startup
	// condition, never a per-request error.
	JWTSecret string
	TokenTTL  time.Duration

	// DatabaseURL selects Postgres storage; empty means in-memory stores.
	DatabaseURL string

	// Redis enables the tale read cache; an empty URL disables it.
	Redis RedisConfig

	TaleCacheTTL time.Duration
}

// RedisConfig captures Redis connection tuning.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables. Call Validate
// before use.
func FromEnv() Server {
	addr := os.Getenv("FABULA_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	ttl := defaultTokenTTL
	if raw := os.Getenv("FABULA_TOKEN_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	return Server{
		Addr:        addr,
		JWTSecret:   os.Getenv("FABULA_JWT_SECRET"),
		TokenTTL:    ttl,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		TaleCacheTTL: defaultCacheTTL,
	}
}

// Validate reports fatal misconfiguration. The signing secret is checked
// once here, at startup, rather than per-request at the gate.
func (s Server) Validate() error {
	if s.JWTSecret == "" {
		return errors.New("FABULA_JWT_SECRET is required")
	}
	if s.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive, got %s", s.TokenTTL)
	}
	return nil
}
