package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Browser     BrowserConfig  `toml:"browser"`
	Claude      ClaudeConfig   `toml:"claude"`
	Gemini      GeminiConfig   `toml:"gemini"`
	LLM         LLMConfig      `toml:"llm"`
	Filing      FilingConfig   `toml:"filing"`
	Janitor     JanitorConfig  `toml:"janitor"`
	Notify      NotifyConfig   `toml:"notify"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig     `toml:"badger"`
	Blobs  FilesystemConfig `toml:"blobs"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FilesystemConfig holds directories for job artifacts (screenshots, acuse documents)
type FilesystemConfig struct {
	Screenshots string `toml:"screenshots"`
	Documents   string `toml:"documents"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// BrowserConfig controls the per-job Chrome session. Timings are
// duration strings, parsed once at session construction.
type BrowserConfig struct {
	Headless       bool   `toml:"headless"`        // Run Chrome headless (default: true)
	NoSandbox      bool   `toml:"no_sandbox"`      // Disable Chrome sandbox (container environments)
	UserAgent      string `toml:"user_agent"`      // User agent string for all sessions
	ActionTimeout  string `toml:"action_timeout"`  // Per-action timeout as duration string (default: "30s")
	SessionTimeout string `toml:"session_timeout"` // Hard ceiling for a whole session (default: "5m")
	MinHumanDelay  string `toml:"min_human_delay"` // Lower bound of randomized pre-action delay (default: "500ms")
	MaxHumanDelay  string `toml:"max_human_delay"` // Upper bound of randomized pre-action delay (default: "1500ms")
	WindowWidth    int    `toml:"window_width"`
	WindowHeight   int    `toml:"window_height"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for vision/classification (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between model calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for vision/classification (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between model calls (default: "4s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the vision/classification provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini" (default: "claude")
}

// FilingConfig controls filing agent behavior
type FilingConfig struct {
	DismissalDeadlineDays  int     `toml:"dismissal_deadline_days"`   // Filing window for dismissal terminations (default: 60)
	RescissionDeadlineDays int     `toml:"rescission_deadline_days"`  // Filing window for worker-initiated rescission (default: 30)
	DeadlineWarningDays    int     `toml:"deadline_warning_days"`     // Warn when this close to the window boundary (default: 15)
	MaxConcurrentJobs      int     `toml:"max_concurrent_jobs"`       // Reject submissions above this many active jobs (default: 5)
	ConfidenceShortCircuit float64 `toml:"confidence_short_circuit"`  // Rule-match confidence that skips the model (default: 0.85)
}

// JanitorConfig controls the stale-job sweeper
type JanitorConfig struct {
	Enabled        bool   `toml:"enabled"`         // Enable stale job sweeping (default: true)
	Schedule       string `toml:"schedule"`        // Cron schedule (default: every minute)
	StaleThreshold string `toml:"stale_threshold"` // Heartbeat age that marks a running job stale (default: "10m")
}

// NotifyConfig holds SMTP settings for the terminal-success notification sink
type NotifyConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	To       string `toml:"to"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should be exposed in concilia.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Blobs: FilesystemConfig{
				Screenshots: "./data/screenshots",
				Documents:   "./data/documents",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Browser: BrowserConfig{
			Headless:       true,
			NoSandbox:      false,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ActionTimeout:  "30s",
			SessionTimeout: "5m",
			MinHumanDelay:  "500ms",
			MaxHumanDelay:  "1500ms",
			WindowWidth:    1920,
			WindowHeight:   1080,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s",
			Temperature: 0,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Filing: FilingConfig{
			DismissalDeadlineDays:  60,
			RescissionDeadlineDays: 30,
			DeadlineWarningDays:    15,
			MaxConcurrentJobs:      5,
			ConfidenceShortCircuit: 0.85,
		},
		Janitor: JanitorConfig{
			Enabled:        true,
			Schedule:       "0 * * * * *", // every minute (cron with seconds)
			StaleThreshold: "10m",
		},
		Notify: NotifyConfig{
			Enabled: false,
			Port:    587,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier files, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONCILIA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CONCILIA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CONCILIA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("CONCILIA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("CONCILIA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if headless := os.Getenv("CONCILIA_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if noSandbox := os.Getenv("CONCILIA_BROWSER_NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = ns
		}
	}
	if timeout := os.Getenv("CONCILIA_BROWSER_ACTION_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Browser.ActionTimeout = timeout
		}
	}
	if timeout := os.Getenv("CONCILIA_BROWSER_SESSION_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Browser.SessionTimeout = timeout
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("CONCILIA_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("CONCILIA_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("CONCILIA_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if provider := os.Getenv("CONCILIA_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true when the environment is configured as production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
