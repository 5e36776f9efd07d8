// Package config centralises configuration parsing for the fit-tracker service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config captures runtime configuration values for the fit-tracker service.
type Config struct {
	HTTPAddress      string
	PostgresURL      string
	ClientID         string        // Upstream platform client credential.
	ClientSecret     string        // Upstream platform client secret.
	BaseURL          string        // Upstream REST base URL (token + biometrics).
	WebSocketBaseURL string        // Upstream streaming base URL.
	HTTPTimeout      time.Duration // Timeout for outbound upstream calls.
	ReconnectDelay   time.Duration // Fixed delay between stream reconnect attempts.
	TokenTTL         time.Duration // How long a fetched bearer token is reused.
}

// Load reads environment variables into Config. Upstream credentials and
// database coordinates have no usable defaults; Load returns an error naming
// every missing variable so startup fails fast instead of proceeding with
// placeholder values.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddress:      getEnv("HTTP_ADDRESS", ":8080"),
		ClientID:         os.Getenv("CLIENT_ID"),
		ClientSecret:     os.Getenv("CLIENT_SECRET"),
		BaseURL:          os.Getenv("BASE_URL"),
		WebSocketBaseURL: os.Getenv("WEBSOCKET_BASE_URL"),
		HTTPTimeout:      getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		ReconnectDelay:   getDurationEnv("RECONNECT_DELAY", 5*time.Second),
		TokenTTL:         getDurationEnv("TOKEN_TTL", 5*time.Minute),
	}

	var missing []string
	for _, required := range []struct {
		key   string
		value string
	}{
		{"CLIENT_ID", cfg.ClientID},
		{"CLIENT_SECRET", cfg.ClientSecret},
		{"BASE_URL", cfg.BaseURL},
		{"WEBSOCKET_BASE_URL", cfg.WebSocketBaseURL},
	} {
		if strings.TrimSpace(required.value) == "" {
			missing = append(missing, required.key)
		}
	}

	postgresURL, dbMissing := loadPostgresURL()
	cfg.PostgresURL = postgresURL
	missing = append(missing, dbMissing...)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// loadPostgresURL prefers a full POSTGRES_URL and otherwise assembles one
// from the discrete DB_* variables.
func loadPostgresURL() (string, []string) {
	if full := os.Getenv("POSTGRES_URL"); strings.TrimSpace(full) != "" {
		return full, nil
	}

	var missing []string
	get := func(key string) string {
		value := os.Getenv(key)
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
		return value
	}

	user := get("DB_USER")
	host := get("DB_HOST")
	port := get("DB_PORT")
	name := get("DB_NAME")
	if len(missing) > 0 {
		return "", missing
	}

	auth := url.User(user)
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		auth = url.UserPassword(user, password)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     auth,
		Host:     fmt.Sprintf("%s:%s", host, port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String(), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
