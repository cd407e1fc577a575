package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	// No config file exists next to the test binary, so every value
	// comes from the registered defaults.
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d; want 8080", cfg.Server.Port)
	}
	if cfg.Server.BaseURL == "" {
		t.Error("base URL default is empty")
	}
	if cfg.Server.ScriptURL == "" {
		t.Error("script URL default is empty")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database driver = %q; want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Name != "doblink.db" {
		t.Errorf("database name = %q; want doblink.db", cfg.Database.Name)
	}
	if cfg.Analytics.BufferSize != 1000 {
		t.Errorf("buffer size = %d; want 1000", cfg.Analytics.BufferSize)
	}
	if cfg.Analytics.WorkerCount != 5 {
		t.Errorf("worker count = %d; want 5", cfg.Analytics.WorkerCount)
	}
	if !cfg.Monitor.Enabled {
		t.Error("monitor should be enabled by default")
	}
	if cfg.Monitor.IntervalMinutes != 5 {
		t.Errorf("monitor interval = %d; want 5", cfg.Monitor.IntervalMinutes)
	}
	if cfg.Monitor.LookbackHours != 24 {
		t.Errorf("monitor lookback = %d; want 24", cfg.Monitor.LookbackHours)
	}
}
