package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissing indicates required service configuration is absent. Nothing in a
// batch can run without it, so callers treat it as fatal.
var ErrMissing = errors.New("required configuration missing")

type Config struct {
	Database  DatabaseConfig
	AI        AIConfig
	Scrape    ScrapeConfig
	Fetch     FetchConfig
	Scheduler SchedulerConfig
	HTTP      HTTPConfig
	Cleanup   CleanupConfig
	LogLevel  string
	Sites     map[string]*SiteConfig
}

type DatabaseConfig struct {
	URL        string // Postgres connection string
	SQLitePath string // used when URL is empty (single-node / dev)
}

// AIConfig points at an OpenAI-compatible chat-completions endpoint.
type AIConfig struct {
	Endpoint    string
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float64
}

// ScrapeConfig points at the remote scrape service that turns a URL into
// cleaned markdown. When the key is empty the browser fetcher is used instead.
type ScrapeConfig struct {
	Endpoint string
	APIKey   string
}

type FetchConfig struct {
	Mode          string // "service", "direct" or "browser"; empty picks per available credentials
	MaxConcurrent int
	BatchDelay    time.Duration
}

type SchedulerConfig struct {
	Tiers    []int // scan frequencies in minutes, one cron entry per tier
	Interval time.Duration
}

type HTTPConfig struct {
	Addr string
}

type CleanupConfig struct {
	MaxOfferAge time.Duration
	Interval    time.Duration
}

// SiteConfig describes how to build a search URL for one marketplace site.
// The set of supported sites is whatever YAML files exist under config/sites.
type SiteConfig struct {
	ID               string            `yaml:"id"`
	Name             string            `yaml:"name"`
	BaseURL          string            `yaml:"base_url"`
	QueryParam       string            `yaml:"query_param"`
	PriceMaxParam    string            `yaml:"price_max_param"`
	PriceMaxTemplate string            `yaml:"price_max_template"` // e.g. "p_36:0-%d"
	PriceMaxScale    int               `yaml:"price_max_scale"`    // e.g. 100 when the site wants cents
	ConditionParam   string            `yaml:"condition_param"`
	ConditionCodes   map[string]string `yaml:"condition_codes"`
	FixedParams      map[string]string `yaml:"fixed_params"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			URL:        os.Getenv("DATABASE_URL"),
			SQLitePath: getEnv("SQLITE_PATH", "radar.db"),
		},
		AI: AIConfig{
			Endpoint:    getEnv("AI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			APIKey:      os.Getenv("AI_API_KEY"),
			ModelName:   getEnv("AI_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvInt("AI_MAX_TOKENS", 4096),
			Temperature: 0.1,
		},
		Scrape: ScrapeConfig{
			Endpoint: getEnv("SCRAPE_ENDPOINT", "https://api.firecrawl.dev/v1/scrape"),
			APIKey:   os.Getenv("SCRAPE_API_KEY"),
		},
		Fetch: FetchConfig{
			Mode:          getEnv("FETCH_MODE", ""),
			MaxConcurrent: getEnvInt("FETCH_MAX_CONCURRENT", 3),
			BatchDelay:    time.Duration(getEnvInt("FETCH_BATCH_DELAY_MS", 1000)) * time.Millisecond,
		},
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8787"),
		},
		Cleanup: CleanupConfig{
			MaxOfferAge: time.Duration(getEnvInt("CLEANUP_MAX_AGE_DAYS", 30)) * 24 * time.Hour,
			Interval:    time.Duration(getEnvInt("CLEANUP_INTERVAL_MIN", 360)) * time.Minute,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Sites:    make(map[string]*SiteConfig),
	}

	cfg.Scheduler.Tiers = parseTiers(getEnv("SCAN_TIERS", "3,30"))
	if interval := os.Getenv("SCAN_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration the whole batch depends on. A missing AI
// credential makes every monitor run meaningless, so it fails loudly here
// instead of per monitor.
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("%w: AI_API_KEY", ErrMissing)
	}
	if c.AI.Endpoint == "" {
		return fmt.Errorf("%w: AI_ENDPOINT", ErrMissing)
	}
	if len(c.Sites) == 0 {
		return fmt.Errorf("%w: no site configs under config/sites", ErrMissing)
	}
	switch c.Fetch.Mode {
	case "", "service", "direct", "browser":
	default:
		return fmt.Errorf("unknown FETCH_MODE %q", c.Fetch.Mode)
	}
	return nil
}

func (c *Config) loadSiteConfigs() error {
	configDir := getEnv("SITES_DIR", "config/sites")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

func parseTiers(s string) []int {
	var tiers []int
	for _, part := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > 0 {
			tiers = append(tiers, n)
		}
	}
	return tiers
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
