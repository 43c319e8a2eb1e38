package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the example server settings. It is read once at startup.
type Config struct {
	// Database
	DatabaseDriver string
	DatabaseURL    string
	StoreBackend   string
	AutoMigrate    bool

	// Server
	ServerPort string
	BasePath   string
	LogLevel   string

	// Auth
	AuthSecret   string
	CookieSecure bool

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GithubClientID     string
	GithubClientSecret string
}

// Load reads the environment, preferring values from the given .env files
// (".env" when none are given). Missing files are skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	env := map[string]string{}
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		for k, v := range values {
			if _, ok := env[k]; !ok {
				env[k] = v
			}
		}
	}

	get := func(key, def string) string {
		if v, ok := env[key]; ok && v != "" {
			return v
		}
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = get("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.DatabaseDriver = strings.ToLower(get("DATABASE_DRIVER", "sqlite"))
	cfg.StoreBackend = strings.ToLower(get("STORE_BACKEND", "gorm"))
	cfg.AutoMigrate = getBool(get("AUTO_MIGRATE", ""), true)
	cfg.ServerPort = get("SERVER_PORT", "8080")
	cfg.BasePath = get("BASE_PATH", "/api/auth")
	cfg.LogLevel = strings.ToLower(get("LOG_LEVEL", "info"))
	cfg.AuthSecret = get("AUTH_SECRET", "")
	cfg.CookieSecure = getBool(get("COOKIE_SECURE", ""), false)
	cfg.GoogleClientID = get("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = get("GOOGLE_CLIENT_SECRET", "")
	cfg.GoogleRedirectURL = get("GOOGLE_REDIRECT_URL", "")
	cfg.GithubClientID = get("GITHUB_CLIENT_ID", "")
	cfg.GithubClientSecret = get("GITHUB_CLIENT_SECRET", "")

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	switch cfg.StoreBackend {
	case "gorm":
	case "sql":
		if cfg.DatabaseDriver == "mysql" {
			return nil, errors.New("STORE_BACKEND=sql supports sqlite and postgres only")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func getBool(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
