//
//
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// ConfigEnvVar names the environment variable holding the YAML config path.
const ConfigEnvVar = "VFC_CONFIG"

// Load merges LoadBaseline() + optional YAML file + env overrides (VFC_*).
// An empty path falls back to $VFC_CONFIG; a missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	config := LoadBaseline()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(ConfigEnvVar)
		explicit = path != ""
	}
	if !explicit {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(config, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile overlays a YAML file on top of config. Absent keys keep their current value.
func loadFromFile(config *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

// applyEnvOverrides applies VFC_* environment variables to the config.
func applyEnvOverrides(config *Config) error {
	// Server
	config.Server.Addr = GetEnvVar("VFC_ADDR", config.Server.Addr)
	if val := os.Getenv("VFC_ALLOWED_ORIGINS"); val != "" {
		config.Server.AllowedOrigins = splitList(val)
	}

	// Store
	config.Store.Backend = GetEnvVar("VFC_STORE_BACKEND", config.Store.Backend)
	config.Store.CSVPath = GetEnvVar("VFC_STORE_CSV_PATH", config.Store.CSVPath)
	config.Store.SQLitePath = GetEnvVar("VFC_STORE_SQLITE_PATH", config.Store.SQLitePath)
	config.Store.RedisAddr = GetEnvVar("VFC_STORE_REDIS_ADDR", config.Store.RedisAddr)
	config.Store.RedisKey = GetEnvVar("VFC_STORE_REDIS_KEY", config.Store.RedisKey)
	config.Store.RedisDB = GetEnvInt("VFC_STORE_REDIS_DB", config.Store.RedisDB)
	config.Store.Timezone = GetEnvVar("VFC_STORE_TIMEZONE", config.Store.Timezone)

	// Estimator
	config.Estimator.Epoch = GetEnvVar("VFC_ESTIMATOR_EPOCH", config.Estimator.Epoch)
	config.Estimator.BandwidthMinutes = GetEnvFloat("VFC_ESTIMATOR_BANDWIDTH_MINUTES", config.Estimator.BandwidthMinutes)
	config.Estimator.Resolution = GetEnvInt("VFC_ESTIMATOR_RESOLUTION", config.Estimator.Resolution)
	if val := os.Getenv("VFC_ESTIMATOR_WEIGHTED"); val != "" {
		if weighted, err := strconv.ParseBool(val); err == nil {
			config.Estimator.WeightByGroupSize = weighted
		}
	}

	// Stats
	config.Stats.Mode = GetEnvVar("VFC_STATS_MODE", config.Stats.Mode)
	config.Stats.RecentLimit = GetEnvInt("VFC_STATS_RECENT_LIMIT", config.Stats.RecentLimit)

	// Hub
	config.Hub.HeartbeatInterval = GetEnvDuration("VFC_HUB_HEARTBEAT_INTERVAL", config.Hub.HeartbeatInterval)
	config.Hub.SendTimeout = GetEnvDuration("VFC_HUB_SEND_TIMEOUT", config.Hub.SendTimeout)

	// Ingress
	config.Ingress.RatePerSecond = GetEnvFloat("VFC_INGRESS_RATE", config.Ingress.RatePerSecond)
	config.Ingress.Burst = GetEnvInt("VFC_INGRESS_BURST", config.Ingress.Burst)

	// Logging
	config.Logging.Level = GetEnvVar("VFC_LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = GetEnvVar("VFC_LOG_FORMAT", config.Logging.Format)
	config.Logging.File = GetEnvVar("VFC_LOG_FILE", config.Logging.File)

	// Audit
	config.Audit.Dir = GetEnvVar("VFC_AUDIT_DIR", config.Audit.Dir)

	return nil
}

// GetEnvVar returns the value of an environment variable with a default.
func GetEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration returns the value of an environment variable as a duration with a default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvFloat returns the value of an environment variable as a float64 with a default.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// GetEnvInt returns the value of an environment variable as an int with a default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
