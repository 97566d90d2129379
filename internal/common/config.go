package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/joseph-ayodele/receipt-parser/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Auth     AuthConfig     `yaml:"auth"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Report   ReportConfig   `yaml:"report"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver" validate:"oneof=postgres sqlite"`
	DSN              string        `yaml:"dsn" validate:"required"`
	MaxConns         int32         `yaml:"max_conns" validate:"gte=1"`
	MinConns         int32         `yaml:"min_conns" validate:"gte=0"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr" validate:"required"`
}

// GeminiConfig holds settings for the analysis service.
type GeminiConfig struct {
	APIKey      string        `yaml:"api_key" validate:"required"`
	Model       string        `yaml:"model" validate:"required"`
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

// PipelineConfig holds upload processing settings.
type PipelineConfig struct {
	ProcessTimeout    time.Duration `yaml:"process_timeout"`
	AnalysisCachePath string        `yaml:"analysis_cache_path"`
	MaxImageBytes     int           `yaml:"max_image_bytes" validate:"gte=1"`
}

// ReportConfig holds report presentation settings.
type ReportConfig struct {
	Currency string `yaml:"currency" validate:"currency"`
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{GRPCAddr: ":8080"},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Timeout:     60 * time.Second,
			MaxRetries:  3,
			BackoffBase: time.Second,
		},
		Pipeline: PipelineConfig{
			ProcessTimeout: 3 * time.Minute,
			MaxImageBytes:  constants.MaxImageBytesDefault,
		},
		Report: ReportConfig{Currency: constants.ReportCurrencyDefault},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence. A .env file in the
// working directory is loaded into the environment first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(CodeConfig, "load .env", err)
	}

	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("parse config file %s", path), err)
		}
	}

	db := &cfg.Database
	db.Driver = getEnv("DB_DRIVER", db.Driver)
	db.DSN = getEnv("DB_URL", db.DSN)
	db.MaxConns = getEnvAsInt32("DB_MAX_CONNS", db.MaxConns)
	db.MinConns = getEnvAsInt32("DB_MIN_CONNS", db.MinConns)
	db.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", db.MaxConnLifetime)
	db.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", db.MaxConnIdleTime)
	db.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", db.DialTimeout)
	db.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", db.StatementTimeout)

	cfg.Server.GRPCAddr = getEnv("GRPC_ADDR", cfg.Server.GRPCAddr)

	g := &cfg.Gemini
	g.APIKey = getEnv("GEMINI_API_KEY", g.APIKey)
	g.Model = getEnv("GEMINI_MODEL", g.Model)
	g.BaseURL = getEnv("GEMINI_BASE_URL", g.BaseURL)
	g.Timeout = getEnvAsDuration("GEMINI_TIMEOUT", g.Timeout)
	g.MaxRetries = getEnvAsInt("GEMINI_MAX_RETRIES", g.MaxRetries)
	g.BackoffBase = getEnvAsDuration("GEMINI_BACKOFF_BASE", g.BackoffBase)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTIssuer = getEnv("JWT_ISSUER", cfg.Auth.JWTIssuer)

	p := &cfg.Pipeline
	p.ProcessTimeout = getEnvAsDuration("PROCESS_TIMEOUT", p.ProcessTimeout)
	p.AnalysisCachePath = getEnv("ANALYSIS_CACHE_PATH", p.AnalysisCachePath)
	p.MaxImageBytes = getEnvAsInt("MAX_IMAGE_BYTES", p.MaxImageBytes)

	cfg.Report.Currency = getEnv("REPORT_CURRENCY", cfg.Report.Currency)
	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the full configuration required by the server.
func (c *Config) Validate() error {
	if err := NewValidator().Struct(c); err != nil {
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	return nil
}

// ValidateSections checks only the given parts of the configuration, for tools
// that do not need every collaborator.
func ValidateSections(sections ...interface{}) error {
	v := NewValidator()
	for _, s := range sections {
		if err := v.Struct(s); err != nil {
			return NewAppError(CodeConfig, "invalid configuration", err)
		}
	}
	return nil
}
