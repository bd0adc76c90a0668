package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Gemini  GeminiConfig  `yaml:"gemini"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Output  OutputConfig  `yaml:"output"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Logging LoggingConfig `yaml:"logging"`
}

type GeminiConfig struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`
	Debug  bool   `yaml:"debug"`
}

type CrawlConfig struct {
	FeedsPath        string `yaml:"feeds_path"`
	WindowHours      int    `yaml:"window_hours"`
	ItemDelaySeconds int    `yaml:"item_delay_seconds"`
}

type OutputConfig struct {
	YouTubeDir string `yaml:"youtube_dir"`
	PodcastDir string `yaml:"podcast_dir"`
}

type LedgerConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Crawl: CrawlConfig{
			FeedsPath:        "./feeds.yaml",
			WindowHours:      24,
			ItemDelaySeconds: 3,
		},
		Output: OutputConfig{
			YouTubeDir: "./library/youtube",
			PodcastDir: "./library/podcast",
		},
		Ledger: LedgerConfig{
			Path: "./briefcast.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file and merges it over defaults, then applies
// environment overrides. If the file does not exist, defaults are used
// without error.
func Load(path string) (Config, error) {
	loadEnv()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No config file found, using defaults", "path", path)
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// loadEnv reads .env.local if present, falling back to .env. Variables
// already set in the environment always win.
func loadEnv() {
	if _, err := os.Stat(".env.local"); err == nil {
		_ = godotenv.Load(".env.local")
		return
	}
	_ = godotenv.Load()
}

// applyEnv overlays environment variables on the loaded config. The API
// key is env-only so it never ends up in a config file.
func (c *Config) applyEnv() {
	c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")

	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if os.Getenv("GEMINI_DEBUG") == "1" {
		c.Gemini.Debug = true
	}
	if v := os.Getenv("OUTPUT_DIR_YT"); v != "" {
		c.Output.YouTubeDir = v
	}
	if v := os.Getenv("OUTPUT_DIR_POD"); v != "" {
		c.Output.PodcastDir = v
	}
	if v := os.Getenv("WINDOW_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			c.Crawl.WindowHours = hours
		}
	}
}
