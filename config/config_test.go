package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "ENV", "DEBUG", "FRONTEND_URL", "DB_DRIVER", "DB_PATH",
		"JWT_SECRET", "JWT_EXPIRES_IN", "GEMINI_API_KEY", "AWS_REGION", "REDIS_ADDR",
		"REDIS_DB", "STATS_ETL_INTERVAL", "DIGEST_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.ExpiresIn)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.StatsInterval)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_EXPIRES_IN", "3d")
	t.Setenv("STATS_ETL_INTERVAL", "90m")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DIGEST_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 72*time.Hour, cfg.Auth.ExpiresIn)
	assert.Equal(t, 90*time.Minute, cfg.Jobs.StatsInterval)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.AWS.DigestEnabled)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
  frontend_url: https://app.example.com
auth:
  jwt_secret: from-file
gemini:
  model: gemini-pro
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port, "env wins over file")
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)
	assert.Equal(t, "https://app.example.com", cfg.Server.AllowedOrigins()[0])
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, d)

	d, err = parseDuration("36h")
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour, d)

	_, err = parseDuration("xd")
	assert.Error(t, err)
}

func TestInvalidDurationKeepsDefault(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "forever")
	assert.Equal(t, time.Hour, getEnvDuration("JWT_EXPIRES_IN", time.Hour))
}

func TestAllowedOrigins(t *testing.T) {
	got := ServerConfig{FrontendURL: "https://app.example.com"}.AllowedOrigins()
	assert.Equal(t, "https://app.example.com", got[0])
	assert.Contains(t, got, "http://localhost:5173")

	assert.Equal(t, defaultOrigins, ServerConfig{}.AllowedOrigins())
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	_, err := OpenDB(DatabaseConfig{Driver: "oracle"})
	assert.EqualError(t, err, `unsupported DB_DRIVER "oracle"`)
}

func TestInitDBSQLiteMemory(t *testing.T) {
	db, err := InitDB(DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, table := range []string{"users", "meal_logs", "daily_stats", "weekly_stats"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
