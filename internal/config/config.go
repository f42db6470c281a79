package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/vocabsrs/internal/database"
	"github.com/example/vocabsrs/internal/spaced_repetition"
)

// Default values
const (
	DefaultDBPath                = "data/vocabsrs.db"
	DefaultReviewBatchSize       = 20
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
)

// Config holds application configuration
type Config struct {
	Database        database.Config
	TelegramToken   string
	PolicyFile      string
	Policy          spaced_repetition.Policy
	ReviewBatchSize int
	NotifyStartHour int
	NotifyEndHour   int
	EnableScheduler bool
}

// Load reads .env (if present) and the environment, then the optional
// scheduling policy file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Database: database.Config{
			Type: getEnv("DB_TYPE", "sqlite"),
			Path: getEnv("DB_PATH", DefaultDBPath),
			URL:  os.Getenv("DATABASE_URL"),
		},
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		PolicyFile:      os.Getenv("SRS_POLICY_FILE"),
		ReviewBatchSize: getEnvInt("REVIEW_BATCH_SIZE", DefaultReviewBatchSize),
		NotifyStartHour: getEnvHour("NOTIFICATION_START_HOUR", DefaultNotificationStartHour),
		NotifyEndHour:   getEnvHour("NOTIFICATION_END_HOUR", DefaultNotificationEndHour),
		EnableScheduler: getEnv("ENABLE_SCHEDULER", "true") != "false",
	}

	policy, err := LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy
	return cfg, nil
}

// LoadPolicy reads a YAML policy file over DefaultPolicy. Keys missing from
// the file keep their default. An empty path returns the defaults.
func LoadPolicy(path string) (spaced_repetition.Policy, error) {
	policy := spaced_repetition.DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("policy file %s: %w", path, err)
	}
	return policy, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns a positive integer variable, or defaultValue if unset or invalid
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvHour returns an hour of day in 0-23, or defaultValue
func getEnvHour(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if h, err := strconv.Atoi(value); err == nil && h >= 0 && h <= 23 {
			return h
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}
