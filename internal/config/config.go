package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application
// configuration. Keys map from YAML via mapstructure tags and can be
// overridden through environment variables (SERVER_PORT, DATABASE_NAME, ...).
type Config struct {
	// Server configuration for the HTTP API and embed artifact generation
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Base URL used for embed URLs
		// ScriptURL points at the published widget bundle referenced by
		// generated embed snippets.
		ScriptURL string `mapstructure:"script_url"`
	} `mapstructure:"server"`

	// Database configuration. Driver selects the storage backend:
	// "sqlite" for the relational store, "memory" for the map-backed one.
	Database struct {
		Driver string `mapstructure:"driver"`
		Name   string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Analytics configuration for asynchronous event ingestion
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`  // Size of the event channel buffer
		WorkerCount int `mapstructure:"worker_count"` // Number of worker goroutines
	} `mapstructure:"analytics"`

	// Monitor configuration for embed domain reachability checks
	Monitor struct {
		Enabled         bool `mapstructure:"enabled"`
		IntervalMinutes int  `mapstructure:"interval_minutes"` // Interval between sweeps
		LookbackHours   int  `mapstructure:"lookback_hours"`   // How far back to collect domains
	} `mapstructure:"monitor"`
}

// LoadConfig loads the application configuration using Viper. It supports
// environment variable overrides and YAML configuration files, and falls
// back to defaults when no file is present.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "https://dobprotocol.com")
	viper.SetDefault("server.script_url", "https://cdn.dobprotocol.com/link.js")
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.name", "doblink.db")
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval_minutes", 5)
	viper.SetDefault("monitor.lookback_hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Driver=%s, Analytics Buffer=%d, Monitor Interval=%dmin",
		cfg.Server.Port, cfg.Database.Driver, cfg.Analytics.BufferSize, cfg.Monitor.IntervalMinutes)

	return &cfg, nil
}
