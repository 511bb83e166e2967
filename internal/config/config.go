// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"qdeck/internal/register"
)

// Config holds application configuration
type Config struct {
	LogLevel      string
	LogPretty     bool
	LogFile       string // TUI log destination; empty disables TUI logging
	Strategy      string // indexed or dense
	BenchParallel int    // scenarios run concurrently by the bench runner
	BenchSuite    string // YAML suite file; empty selects the builtin suite
	QASMFile      string // file the TUI saves to
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:      getEnv("QDECK_LOG_LEVEL", "info"),
		LogPretty:     getEnvAsBool("QDECK_LOG_PRETTY", true),
		LogFile:       getEnv("QDECK_LOG_FILE", ""),
		Strategy:      getEnv("QDECK_STRATEGY", "indexed"),
		BenchParallel: getEnvAsInt("QDECK_BENCH_PARALLEL", 1),
		BenchSuite:    getEnv("QDECK_BENCH_SUITE", ""),
		QASMFile:      getEnv("QDECK_QASM_FILE", "circuit.qasm"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if _, err := register.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("QDECK_STRATEGY: %w", err)
	}
	if c.BenchParallel < 1 {
		return fmt.Errorf("QDECK_BENCH_PARALLEL must be at least 1, got %d", c.BenchParallel)
	}
	if c.QASMFile == "" {
		return fmt.Errorf("QDECK_QASM_FILE must not be empty")
	}
	return nil
}

// RegisterStrategy returns the parsed register strategy.
func (c *Config) RegisterStrategy() register.Strategy {
	s, _ := register.ParseStrategy(c.Strategy)
	return s
}

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
