package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	AWS      AWSConfig      `yaml:"aws"`
	Redis    RedisConfig    `yaml:"redis"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	Env         string `yaml:"env"`
	Debug       bool   `yaml:"debug"`
	FrontendURL string `yaml:"frontend_url"`
}

// Origins that may call the API in addition to FrontendURL.
var defaultOrigins = []string{
	"http://localhost:5173",
	"https://smartcal-frontend.onrender.com",
	"https://smartcal-nutrition-tracker-frontend.onrender.com",
}

func (s ServerConfig) IsDevelopment() bool { return s.Env == "development" }

// AllowedOrigins lists the CORS origins, FrontendURL first.
func (s ServerConfig) AllowedOrigins() []string {
	out := make([]string, 0, len(defaultOrigins)+1)
	if s.FrontendURL != "" {
		out = append(out, s.FrontendURL)
	}
	return append(out, defaultOrigins...)
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql | postgres | sqlite
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSL      bool   `yaml:"ssl"`
	Path     string `yaml:"path"` // sqlite file, ":memory:" allowed
	Debug    bool   `yaml:"-"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AWSConfig struct {
	Region        string `yaml:"region"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Region      string `yaml:"s3_region"`
	CloudFrontURL string `yaml:"cloudfront_url"`
	SESEmail      string `yaml:"ses_email"`
	DigestEnabled bool   `yaml:"digest_enabled"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JobsConfig struct {
	StatsInterval time.Duration `yaml:"stats_interval"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: "3001", Env: "development", FrontendURL: "http://localhost:3000"},
		Database: DatabaseConfig{
			Driver: "mysql",
			Host:   "localhost",
			Port:   "3306",
			User:   "root",
			Name:   "smartcal",
			Path:   "smartcal.db",
		},
		Auth:   AuthConfig{ExpiresIn: 7 * 24 * time.Hour},
		Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
		Jobs:   JobsConfig{StatsInterval: 24 * time.Hour},
	}
}

// Load assembles the configuration. Values come from built-in defaults,
// then the YAML file named by CONFIG_FILE, then the environment (a .env
// file is loaded into the environment first when present).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(&cfg)

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Debug = getEnvBool("DEBUG", cfg.Server.Debug)
	cfg.Server.FrontendURL = getEnv("FRONTEND_URL", cfg.Server.FrontendURL)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSL = getEnvBool("DB_SSL", cfg.Database.SSL)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Database.Debug = cfg.Server.Debug

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.ExpiresIn = getEnvDuration("JWT_EXPIRES_IN", cfg.Auth.ExpiresIn)

	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", cfg.Gemini.APIKey)
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", cfg.Gemini.Model)

	cfg.AWS.Region = getEnv("AWS_REGION", cfg.AWS.Region)
	cfg.AWS.S3Bucket = getEnv("S3_BUCKET", cfg.AWS.S3Bucket)
	cfg.AWS.S3Region = getEnv("S3_REGION", cfg.AWS.S3Region)
	cfg.AWS.CloudFrontURL = getEnv("CLOUDFRONT_URL", cfg.AWS.CloudFrontURL)
	cfg.AWS.SESEmail = getEnv("SES_EMAIL", cfg.AWS.SESEmail)
	cfg.AWS.DigestEnabled = getEnvBool("DIGEST_ENABLED", cfg.AWS.DigestEnabled)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Jobs.StatsInterval = getEnvDuration("STATS_ETL_INTERVAL", cfg.Jobs.StatsInterval)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("36h") and the "7d" day form.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := parseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

func parseDuration(value string) (time.Duration, error) {
	if n := len(value); n > 1 && value[n-1] == 'd' {
		days, err := strconv.Atoi(value[:n-1])
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}
