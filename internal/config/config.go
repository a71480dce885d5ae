package config

import (
	"errors"
	"os"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	MySQL struct {
		DSN string // e.g., user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
	}
	HTTP struct {
		Addr string // default :8080
	}
	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration // default 24h
	}
	Bootstrap struct {
		AdminUsername string // optional; seeds the first superadmin
		AdminPassword string
	}
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config

	cfg.MySQL.DSN = os.Getenv("MYSQL_DSN")
	if cfg.MySQL.DSN == "" {
		return cfg, errors.New("MYSQL_DSN is required")
	}

	cfg.HTTP.Addr = os.Getenv("HTTP_ADDR")
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	cfg.Auth.TokenTTL = 24 * time.Hour
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return cfg, errors.New("TOKEN_TTL must be a positive duration")
		}
		cfg.Auth.TokenTTL = d
	}

	cfg.Bootstrap.AdminUsername = os.Getenv("BOOTSTRAP_ADMIN_USERNAME")
	cfg.Bootstrap.AdminPassword = os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")

	return cfg, nil
}
