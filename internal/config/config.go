// Package config holds all specforge configuration.
// Configuration is loaded from <workspace>/.forge/config.yaml with
// environment variable overrides (FORGE_*) applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all specforge configuration.
type Config struct {
	// Workspace is the project root everything else is relative to.
	// Not serialized; set by the loader.
	Workspace string `yaml:"-"`

	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Synthesis    SynthesisConfig    `yaml:"synthesis"`
	Execution    ExecutionConfig    `yaml:"execution"`
	Corpus       CorpusConfig       `yaml:"corpus"`
	Bias         BiasConfig         `yaml:"bias"`
	Git          GitConfig          `yaml:"git"`
	Webhook      WebhookConfig      `yaml:"webhook"`
	Reporting    ReportingConfig    `yaml:"reporting"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// OrchestratorConfig configures the watch loop.
type OrchestratorConfig struct {
	SpecDir      string        `yaml:"spec_dir"`      // Directory of *.md specs
	PollInterval time.Duration `yaml:"poll_interval"` // Delay between scans
	Concurrency  int           `yaml:"concurrency"`   // Worker pool size for distinct specs
	Detector     string        `yaml:"detector"`      // "poll" or "notify"
}

// SynthesisConfig configures the template synthesizer.
type SynthesisConfig struct {
	RunsDir         string `yaml:"runs_dir"`         // Root for run-<ts> directories
	DefaultLanguage string `yaml:"default_language"` // "python" or "go"
}

// ExecutionConfig configures the test executor.
type ExecutionConfig struct {
	Timeout      time.Duration `yaml:"timeout"`       // Per-run test timeout
	PythonBinary string        `yaml:"python_binary"` // Interpreter for python tests
}

// CorpusConfig configures the corpus store.
type CorpusConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// BiasConfig configures the bias adapter.
type BiasConfig struct {
	Path     string  `yaml:"path"`      // JSON weights file
	Alpha    float64 `yaml:"alpha"`     // EMA smoothing factor
	Epsilon  float64 `yaml:"epsilon"`   // Weight floor
	DriftCap float64 `yaml:"drift_cap"` // Max per-update movement
}

// GitConfig configures auto-commit/push notifications.
type GitConfig struct {
	AutoPush bool   `yaml:"auto_push"`
	Branch   string `yaml:"branch"`
	Remote   string `yaml:"remote"`
}

// WebhookConfig configures webhook notifications.
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReportingConfig configures the read-only reporting API.
type ReportingConfig struct {
	Addr         string `yaml:"addr"`
	HistoryLimit int    `yaml:"history_limit"`
	Enabled      bool   `yaml:"enabled"` // Serve the API from the watch daemon
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode bool `yaml:"debug_mode"`
}

// Default returns the configuration defaults for a workspace.
func Default(workspace string) *Config {
	return &Config{
		Workspace: workspace,
		Orchestrator: OrchestratorConfig{
			SpecDir:      filepath.Join(workspace, "specs"),
			PollInterval: 300 * time.Second,
			Concurrency:  1,
			Detector:     "poll",
		},
		Synthesis: SynthesisConfig{
			RunsDir:         filepath.Join(workspace, "runs"),
			DefaultLanguage: "python",
		},
		Execution: ExecutionConfig{
			Timeout:      30 * time.Second,
			PythonBinary: "python3",
		},
		Corpus: CorpusConfig{
			DatabasePath: filepath.Join(workspace, ".forge", "corpus.db"),
		},
		Bias: BiasConfig{
			Path:     filepath.Join(workspace, ".forge", "bias.json"),
			Alpha:    0.2,
			Epsilon:  0.05,
			DriftCap: 0.15,
		},
		Git: GitConfig{
			AutoPush: false,
			Branch:   "main",
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
		Reporting: ReportingConfig{
			Addr:         ":8642",
			HistoryLimit: 50,
		},
		Logging: LoggingConfig{},
	}
}

// Load reads config.yaml from the workspace, applies env overrides, and
// validates the result. A missing config file yields the defaults.
func Load(workspace string) (*Config, error) {
	cfg := Default(workspace)

	path := filepath.Join(workspace, ".forge", "config.yaml")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.Workspace = workspace
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies FORGE_* environment variables on top of the
// loaded config. Env vars win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FORGE_SPEC_DIR"); v != "" {
		c.Orchestrator.SpecDir = v
	}
	if v := os.Getenv("FORGE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Orchestrator.PollInterval = d
		}
	}
	if v := os.Getenv("FORGE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Orchestrator.Concurrency = n
		}
	}
	if v := os.Getenv("FORGE_DEFAULT_LANGUAGE"); v != "" {
		c.Synthesis.DefaultLanguage = v
	}
	if v := os.Getenv("FORGE_EXEC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Execution.Timeout = d
		}
	}
	if v := os.Getenv("FORGE_GIT_AUTO"); v != "" {
		c.Git.AutoPush = v == "1" || v == "true"
	}
	if v := os.Getenv("FORGE_GIT_BRANCH"); v != "" {
		c.Git.Branch = v
	}
	if v := os.Getenv("FORGE_GIT_REMOTE"); v != "" {
		c.Git.Remote = v
	}
	if v := os.Getenv("FORGE_WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("FORGE_REPORT_ADDR"); v != "" {
		c.Reporting.Addr = v
	}
	if v := os.Getenv("FORGE_DEBUG"); v != "" {
		c.Logging.DebugMode = v == "1" || v == "true"
	}
}

// Validate checks for configuration values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Orchestrator.PollInterval <= 0 {
		return fmt.Errorf("orchestrator.poll_interval must be positive, got %s", c.Orchestrator.PollInterval)
	}
	if c.Orchestrator.Concurrency < 1 {
		return fmt.Errorf("orchestrator.concurrency must be >= 1, got %d", c.Orchestrator.Concurrency)
	}
	if c.Execution.Timeout <= 0 {
		return fmt.Errorf("execution.timeout must be positive, got %s", c.Execution.Timeout)
	}
	if c.Bias.Alpha <= 0 || c.Bias.Alpha > 1 {
		return fmt.Errorf("bias.alpha must be in (0, 1], got %g", c.Bias.Alpha)
	}
	if c.Bias.Epsilon <= 0 || c.Bias.Epsilon >= 1 {
		return fmt.Errorf("bias.epsilon must be in (0, 1), got %g", c.Bias.Epsilon)
	}
	if c.Git.AutoPush && c.Git.Remote == "" {
		return fmt.Errorf("git.auto_push requires git.remote")
	}
	switch c.Orchestrator.Detector {
	case "poll", "notify":
	default:
		return fmt.Errorf("orchestrator.detector must be \"poll\" or \"notify\", got %q", c.Orchestrator.Detector)
	}
	return nil
}

// Save writes the config back to the workspace. Used by `forge init`.
func (c *Config) Save() error {
	dir := filepath.Join(c.Workspace, ".forge")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}
