package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv isolates a test from RSELECT_* variables in the caller's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"RSELECT_DEBUG", "RSELECT_LOG_LEVEL", "RSELECT_MESSAGE"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Prompt.Message != "Select an option" {
		t.Errorf("Expected default message, got %q", cfg.Prompt.Message)
	}
	if cfg.Prompt.SearchText != "Searching" {
		t.Errorf("Expected default search_text, got %q", cfg.Prompt.SearchText)
	}
	if cfg.TickInterval() != 500*time.Millisecond {
		t.Errorf("Expected 500ms tick interval, got %v", cfg.TickInterval())
	}
	if cfg.Timeout() != 0 {
		t.Errorf("Expected no timeout by default, got %v", cfg.Timeout())
	}
	if cfg.Delay() != 0 {
		t.Errorf("Expected no delay by default, got %v", cfg.Delay())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected log level info, got %q", cfg.Log.Level)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid: %v", err)
	}
}

func TestConfigGet(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key      string
		expected string
	}{
		{"prompt.message", "Select an option"},
		{"prompt.search_text", "Searching"},
		{"prompt.tick_interval_ms", "500"},
		{"source.timeout_ms", "0"},
		{"source.delay_ms", "0"},
		{"source.grpc_method", "/rselect.v1.ChoiceService/ListChoices"},
		{"log.level", "info"},
		{"log.file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Errorf("Get(%q) error: %v", tt.key, err)
				return
			}
			if got != tt.expected {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"prompt.message", "Pick a region", "Pick a region"},
		{"prompt.search_text", "Loading", "Loading"},
		{"prompt.search_text", "", ""},
		{"prompt.tick_interval_ms", "250", "250"},
		{"source.timeout_ms", "3000", "3000"},
		{"source.timeout_ms", "0", "0"},
		{"source.delay_ms", "1500", "1500"},
		{"source.grpc_method", "/acme.Regions/List", "/acme.Regions/List"},
		{"log.level", "debug", "debug"},
		{"log.level", "error", "error"},
		{"log.file", "/tmp/rselect.log", "/tmp/rselect.log"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error: %v", tt.key, tt.value, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error: %v", tt.key, err)
			}
			if got != tt.expected {
				t.Errorf("after Set, Get(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestConfigGetInvalidKey(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key     string
		wantErr string
	}{
		{"message", "key must be in format 'section.key'"},
		{"prompt.message.extra", "key must be in format 'section.key'"},
		{"daemon.log_level", "unknown section: daemon"},
		{"prompt.color", "unknown field: prompt.color"},
		{"source.url", "unknown field: source.url"},
		{"log.format", "unknown field: log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := cfg.Get(tt.key)
			if err == nil {
				t.Fatalf("Get(%q) expected error", tt.key)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Get(%q) error = %q, want %q", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestConfigSetInvalidValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr string
	}{
		{"prompt.message", "  ", "must not be empty"},
		{"prompt.tick_interval_ms", "fast", "invalid value for tick_interval_ms"},
		{"prompt.tick_interval_ms", "0", "must be positive"},
		{"source.timeout_ms", "-1", "must be non-negative"},
		{"source.delay_ms", "1s", "invalid value for delay_ms"},
		{"source.grpc_method", "ListChoices", "invalid grpc_method"},
		{"log.level", "trace", "invalid level"},
		{"nope.key", "x", "unknown section"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if err == nil {
				t.Fatalf("Set(%q, %q) expected error", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Set(%q, %q) error = %q, want %q", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "default_is_valid",
			modify:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "empty_message",
			modify:  func(c *Config) { c.Prompt.Message = "" },
			wantErr: "prompt.message must not be empty",
		},
		{
			name:    "zero_tick_interval",
			modify:  func(c *Config) { c.Prompt.TickIntervalMs = 0 },
			wantErr: "prompt.tick_interval_ms must be > 0",
		},
		{
			name:    "negative_timeout",
			modify:  func(c *Config) { c.Source.TimeoutMs = -5 },
			wantErr: "source.timeout_ms must be >= 0",
		},
		{
			name:    "negative_delay",
			modify:  func(c *Config) { c.Source.DelayMs = -1 },
			wantErr: "source.delay_ms must be >= 0",
		},
		{
			name:    "bad_grpc_method",
			modify:  func(c *Config) { c.Source.GRPCMethod = "/only-service" },
			wantErr: "source.grpc_method must look like",
		},
		{
			name:    "empty_grpc_method_allowed",
			modify:  func(c *Config) { c.Source.GRPCMethod = "" },
			wantErr: "",
		},
		{
			name:    "invalid_log_level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level must be debug, info, warn, or error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile_NonExistent(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadFromFile should return defaults for nonexistent file: %v", err)
	}
	if cfg.Prompt.Message != "Select an option" {
		t.Errorf("Expected default message, got %q", cfg.Prompt.Message)
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	invalidYAML := `
prompt:
  message: [not valid yaml
  this is broken
`
	if err := os.WriteFile(configFile, []byte(invalidYAML), 0o644); err != nil {
		t.Fatalf("Failed to write invalid YAML: %v", err)
	}

	if _, err := LoadFromFile(configFile); err == nil {
		t.Error("LoadFromFile should have returned an error for invalid YAML")
	}
}

func TestLoadFromFile_PartialConfig(t *testing.T) {
	clearEnv(t)
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	partialYAML := `
prompt:
  message: Pick a branch
source:
  timeout_ms: 2500
`
	if err := os.WriteFile(configFile, []byte(partialYAML), 0o644); err != nil {
		t.Fatalf("Failed to write partial YAML: %v", err)
	}

	cfg, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Prompt.Message != "Pick a branch" {
		t.Errorf("Expected message from file, got %q", cfg.Prompt.Message)
	}
	if cfg.Timeout() != 2500*time.Millisecond {
		t.Errorf("Expected 2.5s timeout, got %v", cfg.Timeout())
	}

	// Unspecified values keep their defaults
	if cfg.Prompt.SearchText != "Searching" {
		t.Errorf("Expected default search_text, got %q", cfg.Prompt.SearchText)
	}
	if cfg.Prompt.TickIntervalMs != 500 {
		t.Errorf("Expected default tick_interval_ms, got %d", cfg.Prompt.TickIntervalMs)
	}
}

func TestLoadFromFile_InvalidValues(t *testing.T) {
	clearEnv(t)
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(configFile, []byte("source:\n  delay_ms: -10\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadFromFile(configFile)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Expected invalid config error, got %v", err)
	}
}

func TestLoadFromFile_EmptyFile(t *testing.T) {
	clearEnv(t)
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(configFile, []byte(""), 0o644); err != nil {
		t.Fatalf("Failed to write empty file: %v", err)
	}

	cfg, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed for empty file: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoadFromFile_ReadError(t *testing.T) {
	subDir := filepath.Join(t.TempDir(), "subdir")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	if _, err := LoadFromFile(subDir); err == nil {
		t.Error("LoadFromFile should have returned an error when reading a directory")
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	configFile := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Prompt.Message = "Deploy to"
	cfg.Source.DelayMs = 1200
	cfg.Log.Level = "warn"
	cfg.Log.File = "/var/tmp/rselect.log"

	if err := cfg.SaveToFile(configFile); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", *loaded, *cfg)
	}
}

func TestLoadFileOnly_IgnoresEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RSELECT_DEBUG", "1")
	t.Setenv("RSELECT_MESSAGE", "from env")
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("prompt:\n  message: Deploy to\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFileOnly(configFile)
	if err != nil {
		t.Fatalf("LoadFileOnly failed: %v", err)
	}
	if cfg.Prompt.Message != "Deploy to" {
		t.Errorf("Prompt.Message = %q, want %q", cfg.Prompt.Message, "Deploy to")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	withEnv, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if withEnv.Prompt.Message != "from env" || withEnv.Log.Level != "debug" {
		t.Errorf("LoadFromFile did not apply overrides: %+v", withEnv)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Run("debug", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RSELECT_DEBUG", "1")
		cfg := DefaultConfig()
		cfg.ApplyEnvOverrides()
		if cfg.Log.Level != "debug" {
			t.Errorf("RSELECT_DEBUG=1 should set debug level, got %q", cfg.Log.Level)
		}
	})

	t.Run("log_level_wins_over_debug", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RSELECT_DEBUG", "true")
		t.Setenv("RSELECT_LOG_LEVEL", "error")
		cfg := DefaultConfig()
		cfg.ApplyEnvOverrides()
		if cfg.Log.Level != "error" {
			t.Errorf("Expected error level, got %q", cfg.Log.Level)
		}
	})

	t.Run("invalid_log_level_ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RSELECT_LOG_LEVEL", "chatty")
		cfg := DefaultConfig()
		cfg.ApplyEnvOverrides()
		if cfg.Log.Level != "info" {
			t.Errorf("Invalid level should be ignored, got %q", cfg.Log.Level)
		}
	})

	t.Run("message", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RSELECT_MESSAGE", "Which cluster?")
		cfg := DefaultConfig()
		cfg.ApplyEnvOverrides()
		if cfg.Prompt.Message != "Which cluster?" {
			t.Errorf("Expected message override, got %q", cfg.Prompt.Message)
		}
	})
}

func TestListKeysAllGettable(t *testing.T) {
	cfg := DefaultConfig()

	for _, key := range ListKeys() {
		t.Run(key, func(t *testing.T) {
			if _, err := cfg.Get(key); err != nil {
				t.Errorf("Get(%q) failed for key from ListKeys: %v", key, err)
			}
		})
	}
}

func TestListKeysAllSettable(t *testing.T) {
	testValues := map[string]string{
		"prompt.message":          "Pick one",
		"prompt.search_text":      "Fetching",
		"prompt.tick_interval_ms": "100",
		"source.timeout_ms":       "1000",
		"source.delay_ms":         "0",
		"source.grpc_method":      "/svc.V1/List",
		"log.level":               "debug",
		"log.file":                "/tmp/x.log",
	}

	for _, key := range ListKeys() {
		t.Run(key, func(t *testing.T) {
			value, ok := testValues[key]
			if !ok {
				t.Fatalf("No test value defined for key: %s", key)
			}
			if err := DefaultConfig().Set(key, value); err != nil {
				t.Errorf("Set(%q, %q) failed for key from ListKeys: %v", key, value, err)
			}
		})
	}
}
