// Package config holds all runtime configuration for an investigation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Fixed ceilings. These bound cost and latency on the intelligence service
// and keep the fingerprinting phase from crawling an entire estate; they are
// deliberately not configurable per investigation.
const (
	MaxIntelResults       = 25
	MaxFingerprintTargets = 10
	MaxDetailLookups      = 5
)

// Config holds all configuration options for an investigation run.
type Config struct {
	// API credentials
	DeepSeekAPIKey string `yaml:"deepseek_api_key"`
	ShodanAPIKey   string `yaml:"shodan_api_key"`

	// Sandbox settings
	DockerImage   string        `yaml:"docker_image"`
	DockerTimeout time.Duration `yaml:"docker_timeout"`

	// Report generation settings
	LLMModel       string  `yaml:"llm_model"`
	LLMTemperature float64 `yaml:"llm_temperature"`
	LLMBaseURL     string  `yaml:"llm_base_url"`

	// Intelligence service endpoint (override for testing)
	IntelBaseURL string `yaml:"intel_base_url"`

	// Checkpointing
	Checkpoint    bool   `yaml:"checkpoint"`
	CheckpointDir string `yaml:"checkpoint_dir"`

	// Output
	OutputDir string `yaml:"output_dir"`

	// Debug timing logs
	Debug bool `yaml:"debug"`
}

// Default returns a configuration with default values.
func Default() *Config {
	home, err := os.UserHomeDir()
	baseDir := filepath.Join(home, ".osint-agent")
	if err != nil {
		baseDir = ".osint-agent"
	}

	return &Config{
		DockerImage:    "osint-tools:latest",
		DockerTimeout:  300 * time.Second,
		LLMModel:       "deepseek-chat",
		LLMTemperature: 0.3,
		LLMBaseURL:     "https://api.deepseek.com",
		IntelBaseURL:   "https://api.shodan.io",
		CheckpointDir:  baseDir,
		OutputDir:      ".",
	}
}

// Load builds the effective configuration: defaults, then the optional
// config file, then environment variables. A .env file in the working
// directory is folded into the environment first.
func Load() *Config {
	godotenv.Load()

	cfg := Default()
	cfg.loadFile(filepath.Join(cfg.CheckpointDir, "config.yaml"))
	cfg.loadEnv()
	return cfg
}

// loadFile merges settings from a YAML file if one exists. A malformed file
// is warned about and ignored rather than fatal; env vars still apply on top.
func (c *Config) loadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		color.Yellow("[!] Ignoring malformed config file %s: %v", path, err)
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		c.DeepSeekAPIKey = v
	}
	if v := os.Getenv("SHODAN_API_KEY"); v != "" {
		c.ShodanAPIKey = v
	}
	if v := os.Getenv("OSINT_DOCKER_IMAGE"); v != "" {
		c.DockerImage = v
	}
	if v := os.Getenv("DOCKER_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.DockerTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLMModel = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.LLMTemperature = t
		}
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLMBaseURL = v
	}
}

// Validate checks that credentials required before the first phase are set.
// The Shodan key is allowed to be missing: intelligence lookups fail soft.
func (c *Config) Validate() error {
	if c.DeepSeekAPIKey == "" {
		return fmt.Errorf("DEEPSEEK_API_KEY environment variable not set")
	}
	return nil
}
