package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "DATABASE_DRIVER", "STORE_BACKEND", "AUTO_MIGRATE",
		"SERVER_PORT", "BASE_PATH", "LOG_LEVEL", "AUTH_SECRET", "COOKIE_SECURE",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET",
	} {
		t.Setenv(key, "")
	}
}

func noFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "auth.db")

	cfg, err := Load(noFile(t))
	require.NoError(t, err)

	assert.Equal(t, "auth.db", cfg.DatabaseURL)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "gorm", cfg.StoreBackend)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "/api/auth", cfg.BasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)

	_, err := Load(noFile(t))
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadPrefersEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "from-process")
	t.Setenv("SERVER_PORT", "9000")

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("DATABASE_URL=postgres://localhost/auth\nDATABASE_DRIVER=postgres\nSTORE_BACKEND=sql\nAUTO_MIGRATE=false\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/auth", cfg.DatabaseURL)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "9000", cfg.ServerPort)
}

func TestLoadRejectsUnsupportedCombinations(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		backend string
	}{
		{"unknown driver", "oracle", "gorm"},
		{"unknown backend", "sqlite", "ent"},
		{"sql backend on mysql", "mysql", "sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", "dsn")
			t.Setenv("DATABASE_DRIVER", tt.driver)
			t.Setenv("STORE_BACKEND", tt.backend)

			_, err := Load(noFile(t))
			assert.Error(t, err)
		})
	}
}
