//
//
package config

import (
	"fmt"
)

// Validate enforces configuration invariants.
func Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(config); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	if err := validateStore(config); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}

	if err := validateEstimator(config); err != nil {
		return fmt.Errorf("estimator validation failed: %w", err)
	}

	if err := validateStats(config); err != nil {
		return fmt.Errorf("stats validation failed: %w", err)
	}

	if err := validateHub(config); err != nil {
		return fmt.Errorf("hub validation failed: %w", err)
	}

	if err := validateIngress(config); err != nil {
		return fmt.Errorf("ingress validation failed: %w", err)
	}

	return nil
}

func validateServer(config *Config) error {
	if config.Server.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if config.Server.ReadTimeout < 0 || config.Server.WriteTimeout < 0 || config.Server.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	return nil
}

func validateStore(config *Config) error {
	switch config.Store.Backend {
	case BackendCSV:
		if config.Store.CSVPath == "" {
			return fmt.Errorf("csv backend requires csvPath")
		}
	case BackendSQLite:
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires sqlitePath")
		}
	case BackendRedis:
		if config.Store.RedisAddr == "" || config.Store.RedisKey == "" {
			return fmt.Errorf("redis backend requires redisAddr and redisKey")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", config.Store.Backend)
	}

	if _, err := config.Location(); err != nil {
		return err
	}
	return nil
}

func validateEstimator(config *Config) error {
	if config.Estimator.BandwidthMinutes <= 0 {
		return fmt.Errorf("bandwidth must be positive, got %v", config.Estimator.BandwidthMinutes)
	}
	if config.Estimator.Resolution < 2 {
		return fmt.Errorf("resolution must be >= 2, got %d", config.Estimator.Resolution)
	}
	if _, err := config.Epoch(); err != nil {
		return err
	}
	return nil
}

func validateStats(config *Config) error {
	if config.Stats.Mode != ModeRate && config.Stats.Mode != ModeTally {
		return fmt.Errorf("invalid mode %q, must be one of: %s, %s", config.Stats.Mode, ModeRate, ModeTally)
	}
	if config.Stats.RecentLimit <= 0 {
		return fmt.Errorf("recent limit must be positive, got %d", config.Stats.RecentLimit)
	}
	return nil
}

func validateHub(config *Config) error {
	if config.Hub.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", config.Hub.HeartbeatInterval)
	}
	if config.Hub.SendTimeout <= 0 {
		return fmt.Errorf("send timeout must be positive, got %v", config.Hub.SendTimeout)
	}
	return nil
}

func validateIngress(config *Config) error {
	if config.Ingress.RatePerSecond < 0 || config.Ingress.Burst < 0 {
		return fmt.Errorf("ingress rate and burst must be non-negative")
	}
	return nil
}
