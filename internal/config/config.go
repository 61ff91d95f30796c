// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/alschell/wealthhorizonai/internal/state"
	"github.com/alschell/wealthhorizonai/internal/utils"
	"github.com/alschell/wealthhorizonai/pkg/formulas"
)

// ReportFileName is the fixed name of the exported report.
const ReportFileName = "comprehensive_report.txt"

// Config holds application configuration
type Config struct {
	APIKey   string
	Port     int
	LogLevel string
	DevMode  bool

	CORSAllowedOrigins []string

	DataDir   string // Base directory for generated files (always absolute)
	ReportDir string // Where the report export lands; defaults to DataDir
	LedgerDSN string // SQLite DSN for the trade journal; in-memory unless set

	RandomSeed             uint64
	MonteCarloSamples      int
	AdaptiveMemoryCapacity int
	AutopilotSchedule      string // cron spec; empty disables scheduled autopilot

	ReportS3Bucket          string // Optional: also upload the exported report
	ReportS3Prefix          string
	ReportS3Endpoint        string // S3-compatible endpoint; empty means AWS
	ReportS3AccessKeyID     string // Static keys; empty means the default AWS chain
	ReportS3SecretAccessKey string
	AWSRegion               string
}

// DefaultLedgerDSN keeps the trade journal in a shared in-memory database.
const DefaultLedgerDSN = "file:ledger?mode=memory&cache=shared"

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	reportDir := getEnv("REPORT_DIR", absDataDir)
	absReportDir, err := filepath.Abs(reportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report directory path: %w", err)
	}

	cfg := &Config{
		APIKey:                  getEnv("API_KEY", ""),
		Port:                    getEnvAsInt("PORT", 8000),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		DevMode:                 getEnvAsBool("DEV_MODE", false),
		CORSAllowedOrigins:      utils.ParseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DataDir:                 absDataDir,
		ReportDir:               absReportDir,
		LedgerDSN:               getEnv("LEDGER_DSN", DefaultLedgerDSN),
		RandomSeed:              uint64(getEnvAsInt("RANDOM_SEED", 42)),
		MonteCarloSamples:       getEnvAsInt("MONTE_CARLO_SAMPLES", formulas.MaxSimulations),
		AdaptiveMemoryCapacity:  getEnvAsInt("ADAPTIVE_MEMORY_CAPACITY", 10000),
		AutopilotSchedule:       getEnv("AUTOPILOT_SCHEDULE", ""),
		ReportS3Bucket:          getEnv("REPORT_S3_BUCKET", ""),
		ReportS3Prefix:          getEnv("REPORT_S3_PREFIX", "reports/"),
		ReportS3Endpoint:        getEnv("REPORT_S3_ENDPOINT", ""),
		ReportS3AccessKeyID:     getEnv("REPORT_S3_ACCESS_KEY_ID", ""),
		ReportS3SecretAccessKey: getEnv("REPORT_S3_SECRET_ACCESS_KEY", ""),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure directories exist
	for _, dir := range []string{cfg.DataDir, cfg.ReportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// Validate checks that configured values are usable.
// A missing API key is allowed here; the HTTP layer then rejects every request.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MonteCarloSamples <= 0 || c.MonteCarloSamples > formulas.MaxSimulations {
		return fmt.Errorf("MONTE_CARLO_SAMPLES must be in [1, %d], got %d", formulas.MaxSimulations, c.MonteCarloSamples)
	}
	if c.AdaptiveMemoryCapacity < state.MinMemoryCapacity {
		return fmt.Errorf("ADAPTIVE_MEMORY_CAPACITY must exceed the training batch size (min %d), got %d", state.MinMemoryCapacity, c.AdaptiveMemoryCapacity)
	}
	if c.AutopilotSchedule != "" {
		if _, err := cron.ParseStandard(c.AutopilotSchedule); err != nil {
			return fmt.Errorf("invalid AUTOPILOT_SCHEDULE %q: %w", c.AutopilotSchedule, err)
		}
	}
	return nil
}

// ReportPath returns the absolute path of the exported report.
func (c *Config) ReportPath() string {
	return filepath.Join(c.ReportDir, ReportFileName)
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
