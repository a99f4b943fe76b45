package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Host:            "127.0.0.1",
		Port:            "8080",
		SourceURL:       "https://example.com/rss.xml",
		FetchTimeout:    30,
		UserAgent:       "Test Agent",
		RulesFile:       "./rules.yml",
		DefaultPriority: 100,
		APIAccessKey:    "test-key",
		Timezone:        "UTC",
		Debug:           true,
		Version:         "test-version",
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected host '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.SourceURL != "https://example.com/rss.xml" {
		t.Errorf("Expected source URL 'https://example.com/rss.xml', got '%s'", cfg.SourceURL)
	}
	if cfg.FetchTimeout != 30 {
		t.Errorf("Expected fetch timeout 30, got %d", cfg.FetchTimeout)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.RulesFile != "./rules.yml" {
		t.Errorf("Expected rules file './rules.yml', got '%s'", cfg.RulesFile)
	}
	if cfg.DefaultPriority != 100 {
		t.Errorf("Expected default priority 100, got %d", cfg.DefaultPriority)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be true")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected no error for UTC, got: %v", err)
	}

	if err := applyTimezone("America/New_York"); err != nil {
		t.Errorf("Expected no error for America/New_York, got: %v", err)
	}

	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}

	// Empty timezone is a no-op
	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected no error for empty timezone, got: %v", err)
	}
}
