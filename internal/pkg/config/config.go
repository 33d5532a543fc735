package config

import (
	"fmt"
	"os"
)

type BackendConfig struct {
	BaseURL string
}

type SessionConfig struct {
	CookieName string
	Secret     string
}

type Config struct {
	Backend     BackendConfig
	Session     SessionConfig
	ServerPort  string
	MetricsAddr string
	PprofAddr   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			BaseURL: getEnvOrDefault("BACKEND_API_URL", "http://localhost:5000/api"),
		},
		Session: SessionConfig{
			CookieName: getEnvOrDefault("SESSION_COOKIE_NAME", "clinic_session"),
			Secret:     os.Getenv("SESSION_SECRET"),
		},
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8091"),
		MetricsAddr: getEnvOrDefault("METRICS_ADDR", ":9092"),
		PprofAddr:   getEnvOrDefault("PPROF_ADDR", ":6060"),
	}

	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
