package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the rselect configuration.
type Config struct {
	Prompt PromptConfig `yaml:"prompt"`
	Source SourceConfig `yaml:"source"`
	Log    LogConfig    `yaml:"log"`
}

// PromptConfig holds prompt appearance settings.
type PromptConfig struct {
	Message        string `yaml:"message"`          // Question shown on the first line
	SearchText     string `yaml:"search_text"`      // Text shown while loading
	TickIntervalMs int    `yaml:"tick_interval_ms"` // Loading animation frame delay
}

// SourceConfig holds settings applied to every remote source.
type SourceConfig struct {
	TimeoutMs  int    `yaml:"timeout_ms"`  // Fetch timeout (0 = none)
	DelayMs    int    `yaml:"delay_ms"`    // Artificial delay before fetching
	GRPCMethod string `yaml:"grpc_method"` // Full method name for --grpc
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (overrides default)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Prompt: PromptConfig{
			Message:        "Select an option",
			SearchText:     "Searching",
			TickIntervalMs: 500,
		},
		Source: SourceConfig{
			GRPCMethod: "/rselect.v1.ChoiceService/ListChoices",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// TickInterval returns the loading frame delay.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Prompt.TickIntervalMs) * time.Millisecond
}

// Timeout returns the fetch timeout, 0 when disabled.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Source.TimeoutMs) * time.Millisecond
}

// Delay returns the artificial fetch delay.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Source.DelayMs) * time.Millisecond
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := LoadFileOnly(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFileOnly loads the file without environment overrides. Use it when
// the result is written back, so overrides never end up on disk.
func LoadFileOnly(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get retrieves a configuration value by dot-separated key.
// For example: "prompt.message" or "source.timeout_ms"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "prompt":
		return c.getPromptField(field)
	case "source":
		return c.getSourceField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "prompt":
		return c.setPromptField(field, value)
	case "source":
		return c.setSourceField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getPromptField(field string) (string, error) {
	switch field {
	case "message":
		return c.Prompt.Message, nil
	case "search_text":
		return c.Prompt.SearchText, nil
	case "tick_interval_ms":
		return strconv.Itoa(c.Prompt.TickIntervalMs), nil
	default:
		return "", fmt.Errorf("unknown field: prompt.%s", field)
	}
}

func (c *Config) setPromptField(field, value string) error {
	switch field {
	case "message":
		if strings.TrimSpace(value) == "" {
			return errors.New("invalid message: must not be empty")
		}
		c.Prompt.Message = value
	case "search_text":
		c.Prompt.SearchText = value
	case "tick_interval_ms":
		v, err := parseMillis("tick_interval_ms", value)
		if err != nil {
			return err
		}
		if v == 0 {
			return errors.New("invalid tick_interval_ms: must be positive")
		}
		c.Prompt.TickIntervalMs = v
	default:
		return fmt.Errorf("unknown field: prompt.%s", field)
	}
	return nil
}

func (c *Config) getSourceField(field string) (string, error) {
	switch field {
	case "timeout_ms":
		return strconv.Itoa(c.Source.TimeoutMs), nil
	case "delay_ms":
		return strconv.Itoa(c.Source.DelayMs), nil
	case "grpc_method":
		return c.Source.GRPCMethod, nil
	default:
		return "", fmt.Errorf("unknown field: source.%s", field)
	}
}

func (c *Config) setSourceField(field, value string) error {
	switch field {
	case "timeout_ms":
		v, err := parseMillis("timeout_ms", value)
		if err != nil {
			return err
		}
		c.Source.TimeoutMs = v
	case "delay_ms":
		v, err := parseMillis("delay_ms", value)
		if err != nil {
			return err
		}
		c.Source.DelayMs = v
	case "grpc_method":
		if !isValidGRPCMethod(value) {
			return fmt.Errorf("invalid grpc_method: %s (must look like /package.Service/Method)", value)
		}
		c.Source.GRPCMethod = value
	default:
		return fmt.Errorf("unknown field: source.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func parseMillis(name, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s: must be non-negative", name)
	}
	return v, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Prompt.Message) == "" {
		return errors.New("prompt.message must not be empty")
	}

	if c.Prompt.TickIntervalMs <= 0 {
		return errors.New("prompt.tick_interval_ms must be > 0")
	}

	if c.Source.TimeoutMs < 0 {
		return errors.New("source.timeout_ms must be >= 0")
	}

	if c.Source.DelayMs < 0 {
		return errors.New("source.delay_ms must be >= 0")
	}

	if c.Source.GRPCMethod != "" && !isValidGRPCMethod(c.Source.GRPCMethod) {
		return fmt.Errorf("source.grpc_method must look like /package.Service/Method (got: %s)", c.Source.GRPCMethod)
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidGRPCMethod(method string) bool {
	parts := strings.Split(method, "/")
	return len(parts) == 3 && parts[0] == "" && parts[1] != "" && parts[2] != ""
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RSELECT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("RSELECT_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("RSELECT_MESSAGE"); strings.TrimSpace(v) != "" {
		c.Prompt.Message = v
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"prompt.message",
		"prompt.search_text",
		"prompt.tick_interval_ms",
		"source.timeout_ms",
		"source.delay_ms",
		"source.grpc_method",
		"log.level",
		"log.file",
	}
}
