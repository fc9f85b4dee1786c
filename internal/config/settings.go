//
//
package config

import (
	"fmt"
	"time"
)

// Stats modes.
const (
	ModeRate  = "rate"
	ModeTally = "tally"
)

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// LogTimeLayout is the timestamp layout of the persisted event log.
const LogTimeLayout = "2006-01-02 15:04:05"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Estimator EstimatorConfig `yaml:"estimator"`
	Stats     StatsConfig     `yaml:"stats"`
	Hub       HubConfig       `yaml:"hub"`
	Ingress   IngressConfig   `yaml:"ingress"`
	Logging   LoggingConfig   `yaml:"logging"`
	Audit     AuditConfig     `yaml:"audit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// StoreConfig selects and configures the event log backend.
type StoreConfig struct {
	Backend    string `yaml:"backend"`
	CSVPath    string `yaml:"csvPath"`
	SQLitePath string `yaml:"sqlitePath"`
	RedisAddr  string `yaml:"redisAddr"`
	RedisKey   string `yaml:"redisKey"`
	RedisDB    int    `yaml:"redisDb"`
	// Timezone of the persisted timestamps ("Local" or an IANA name).
	Timezone string `yaml:"timezone"`
}

// EstimatorConfig holds the intensity estimator constants.
type EstimatorConfig struct {
	// Epoch is the reference instant, in LogTimeLayout and the store timezone.
	Epoch            string  `yaml:"epoch"`
	BandwidthMinutes float64 `yaml:"bandwidthMinutes"`
	Resolution       int     `yaml:"resolution"`
	// WeightByGroupSize estimates visitors per minute instead of groups per minute.
	WeightByGroupSize bool `yaml:"weightByGroupSize"`
}

// StatsConfig selects the snapshot strategy.
type StatsConfig struct {
	Mode        string `yaml:"mode"`
	RecentLimit int    `yaml:"recentLimit"`
}

// HubConfig holds broadcast hub timing.
type HubConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	SendTimeout       time.Duration `yaml:"sendTimeout"`
}

// IngressConfig bounds per-connection submissions.
type IngressConfig struct {
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
	MaxMessageKB  int64   `yaml:"maxMessageKb"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// AuditConfig configures the ingestion audit trail.
type AuditConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// LoadBaseline returns the baseline configuration.
func LoadBaseline() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Store: StoreConfig{
			Backend:    BackendCSV,
			CSVPath:    "data/visitors.csv",
			SQLitePath: "data/visitors.db",
			RedisAddr:  "localhost:6379",
			RedisKey:   "vfc:events",
			Timezone:   "Local",
		},
		Estimator: EstimatorConfig{
			Epoch:            "2025-01-01 00:00:00",
			BandwidthMinutes: 20,
			Resolution:       1000,
		},
		Stats: StatsConfig{
			Mode:        ModeRate,
			RecentLimit: 10,
		},
		Hub: HubConfig{
			HeartbeatInterval: 15 * time.Second,
			SendTimeout:       5 * time.Second,
		},
		Ingress: IngressConfig{
			RatePerSecond: 20,
			Burst:         40,
			MaxMessageKB:  4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Audit: AuditConfig{
			Dir:        "logs",
			MaxSizeMB:  20,
			MaxBackups: 10,
		},
	}
}

// Location resolves the store timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Store.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Store.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Store.Timezone, err)
	}
	return loc, nil
}

// Epoch parses the estimator epoch in the store timezone.
func (c *Config) Epoch() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	epoch, err := time.ParseInLocation(LogTimeLayout, c.Estimator.Epoch, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid estimator epoch %q: %w", c.Estimator.Epoch, err)
	}
	return epoch, nil
}

// Bandwidth returns the estimator bandwidth as a duration.
func (c *Config) Bandwidth() time.Duration {
	return time.Duration(c.Estimator.BandwidthMinutes * float64(time.Minute))
}
