package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8089" {
		t.Errorf("Expected Port to be 8089, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("Expected cache TTL to be 15m, got %v", cfg.Cache.TTL)
	}

	if cfg.Scan.Workers != 5 {
		t.Errorf("Expected scan workers to be 5, got %d", cfg.Scan.Workers)
	}

	if cfg.Scan.PassThreshold != 6 {
		t.Errorf("Expected pass threshold to be 6, got %d", cfg.Scan.PassThreshold)
	}

	if len(cfg.SourceChain) != 2 || cfg.SourceChain[0] != "alpha_vantage" {
		t.Errorf("Expected default source chain alpha_vantage,yahoo, got %v", cfg.SourceChain)
	}

	if len(cfg.Scan.DefaultSymbols) != 14 {
		t.Errorf("Expected 14 default symbols, got %d", len(cfg.Scan.DefaultSymbols))
	}

	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Expected server write timeout to be 30s, got %v", cfg.Server.WriteTimeout)
	}

	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Expected server read timeout to be 15s, got %v", cfg.Server.ReadTimeout)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("SOURCE_CHAIN", "eodhd,yahoo")
	os.Setenv("SCAN_WORKERS", "3")
	os.Setenv("LOG_LEVEL", "info")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("SOURCE_CHAIN")
		os.Unsetenv("SCAN_WORKERS")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if len(cfg.SourceChain) != 2 || cfg.SourceChain[0] != "eodhd" {
		t.Errorf("Expected source chain eodhd,yahoo, got %v", cfg.SourceChain)
	}

	if cfg.Scan.Workers != 3 {
		t.Errorf("Expected scan workers to be 3, got %d", cfg.Scan.Workers)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel to be info, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateUnknownProvider(t *testing.T) {
	os.Setenv("SOURCE_CHAIN", "alpha_vantage,bloomberg")
	defer os.Unsetenv("SOURCE_CHAIN")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unknown provider in SOURCE_CHAIN, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsList(t *testing.T) {
	os.Setenv("TEST_LIST", "AAPL, MSFT ,GOOGL,")
	defer os.Unsetenv("TEST_LIST")

	values := getEnvAsList("TEST_LIST", "")
	if len(values) != 3 {
		t.Fatalf("Expected 3 values, got %d: %v", len(values), values)
	}

	if values[1] != "MSFT" {
		t.Errorf("Expected second value to be MSFT, got %s", values[1])
	}
}
