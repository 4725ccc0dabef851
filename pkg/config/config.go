package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Engine        EngineConfig
	Inbox         InboxConfig
	Storage       StorageConfig
	Rules         RulesConfig
	Holder        HolderConfig
	Observability ObservabilityConfig
	Gemini        GeminiConfig
}

// HolderConfig is the cardholder identity used to derive password candidates
// for statements arriving without an explicit password.
type HolderConfig struct {
	Name       string
	DOB        string // DDMMYYYY
	CardLast4s []string
}

type GeminiConfig struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	AttemptTimeout    time.Duration
}

type EngineConfig struct {
	Workers         int
	ParseMaxRetries int
	ConfidenceFloor float64
}

type InboxConfig struct {
	Dir        string
	ReportDir  string
	SweepCron  string
	RunOnStart bool
}

type StorageConfig struct {
	ScratchDir string
}

type RulesConfig struct {
	BankRulesPath string
	VendorMapPath string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Engine: EngineConfig{
			Workers:         getEnvAsInt("ENGINE_WORKERS", 4),
			ParseMaxRetries: getEnvAsInt("ENGINE_PARSE_MAX_RETRIES", 2),
			ConfidenceFloor: float64(getEnvAsInt("ENGINE_CONFIDENCE_FLOOR", 50)),
		},
		Inbox: InboxConfig{
			Dir:        getEnv("INBOX_DIR", "./inbox"),
			ReportDir:  getEnv("REPORT_DIR", "./reports"),
			SweepCron:  getEnv("INBOX_SWEEP_CRON", "*/10 * * * *"),
			RunOnStart: getEnvAsBool("INBOX_SWEEP_ON_START", true),
		},
		Storage: StorageConfig{
			ScratchDir: getEnv("SCRATCH_DIR", os.TempDir()+"/statement-engine"),
		},
		Rules: RulesConfig{
			BankRulesPath: getEnv("BANK_RULES_PATH", ""),
			VendorMapPath: getEnv("VENDOR_MAP_PATH", ""),
		},
		Holder: HolderConfig{
			Name:       getEnv("HOLDER_NAME", ""),
			DOB:        getEnv("HOLDER_DOB", ""),
			CardLast4s: splitList(getEnv("HOLDER_CARD_LAST4S", "")),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Gemini: GeminiConfig{
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			Model:             getEnv("GEMINI_MODEL", ""),
			RequestsPerMinute: getEnvAsInt("GEMINI_RPM", 15),
			AttemptTimeout:    getEnvAsDuration("GEMINI_ATTEMPT_TIMEOUT", 90*time.Second),
		},
	}

	if cfg.Gemini.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	if cfg.Gemini.Model == "" {
		return nil, errors.New("GEMINI_MODEL is required")
	}

	if cfg.Engine.Workers <= 0 {
		return nil, fmt.Errorf("ENGINE_WORKERS must be positive, got %d", cfg.Engine.Workers)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
