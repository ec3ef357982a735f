package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server        Server        `yaml:"server"`
	Storage       Storage       `yaml:"storage"`
	Search        Search        `yaml:"search"`
	Summarization Summarization `yaml:"summarization"`
	History       History       `yaml:"history"`
	Logging       Logging       `yaml:"logging"`
	Output        Output        `yaml:"output"`
}

type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Preview         Preview       `yaml:"preview"`
}

type Preview struct {
	Enabled      bool          `yaml:"enabled"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBytes     int64         `yaml:"max_bytes"`
	AllowPrivate bool          `yaml:"allow_private"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URLEnv string `yaml:"url_env"`
}

type Search struct {
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
	Google        GoogleSearch  `yaml:"google"`
	News          NewsSearch    `yaml:"news"`
}

type GoogleSearch struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	EngineIDEnv string `yaml:"engine_id_env"`
}

type NewsSearch struct {
	Enabled   bool   `yaml:"enabled"`
	Backend   string `yaml:"backend"`
	FeedURL   string `yaml:"feed_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type Summarization struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Providers   []Provider    `yaml:"providers"`
}

// Provider is one entry of the ordered summarization provider list.
type Provider struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

type History struct {
	Enabled bool          `yaml:"enabled"`
	UserID  string        `yaml:"user_id"`
	Timeout time.Duration `yaml:"timeout"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Provider types.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// News backends.
const (
	NewsBackendFeed    = "feed"
	NewsBackendNewsAPI = "newsapi"
)

// ConfigDir returns the XDG config directory for researchlens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "researchlens")
}

// DataDir returns the XDG data directory for researchlens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "researchlens")
}

// LoadEnv loads KEY=value pairs from the given .env files (default ./.env)
// without overriding variables already set. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/researchlens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'researchlens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Host:            "127.0.0.1",
			Port:            8080,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 15 * time.Second,
			Preview: Preview{
				Enabled:  true,
				Timeout:  10 * time.Second,
				MaxBytes: 2 << 20,
			},
		},
		Storage: Storage{
			Driver: DriverSQLite,
			URLEnv: "DATABASE_URL",
		},
		Search: Search{
			LookupTimeout: 10 * time.Second,
			Google: GoogleSearch{
				APIKeyEnv:   "GOOGLE_SEARCH_API_KEY",
				EngineIDEnv: "GOOGLE_SEARCH_ENGINE_ID",
			},
			News: NewsSearch{
				Backend:   NewsBackendFeed,
				FeedURL:   "https://news.google.com/rss/search?q={query}&hl=en-US&gl=US&ceid=US:en",
				APIKeyEnv: "NEWSAPI_KEY",
			},
		},
		Summarization: Summarization{
			Timeout:     30 * time.Second,
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		History: History{
			Enabled: true,
			UserID:  "anonymous",
			Timeout: 10 * time.Second,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	cfg.Search.News.Backend = strings.ToLower(cfg.Search.News.Backend)
	for i := range cfg.Summarization.Providers {
		cfg.Summarization.Providers[i].Type = strings.ToLower(cfg.Summarization.Providers[i].Type)
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail at request time.
// Summarization providers must have their credentials present in the
// environment.
func (c *Config) Validate() error {
	return c.validate(os.Getenv)
}

func (c *Config) validate(getenv func(string) string) error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite, DriverNone:
	case DriverPostgres:
		if c.Storage.URLEnv == "" || getenv(c.Storage.URLEnv) == "" {
			errs = append(errs, fmt.Errorf("storage: postgres requires %s to be set", nonEmpty(c.Storage.URLEnv, "url_env")))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown driver %q", c.Storage.Driver))
	}

	if len(c.Summarization.Providers) == 0 {
		errs = append(errs, errors.New("summarization: at least one provider is required"))
	}
	for i, p := range c.Summarization.Providers {
		switch p.Type {
		case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
			if p.APIKeyEnv == "" {
				errs = append(errs, fmt.Errorf("summarization.providers[%d]: %s requires api_key_env", i, p.Type))
			} else if getenv(p.APIKeyEnv) == "" {
				errs = append(errs, fmt.Errorf("summarization.providers[%d]: %s is not set", i, p.APIKeyEnv))
			}
		case ProviderOllama:
		default:
			errs = append(errs, fmt.Errorf("summarization.providers[%d]: unknown type %q", i, p.Type))
		}
		if p.Model == "" {
			errs = append(errs, fmt.Errorf("summarization.providers[%d]: model is required", i))
		}
	}

	if c.Search.News.Enabled {
		switch c.Search.News.Backend {
		case NewsBackendFeed:
			if !strings.Contains(c.Search.News.FeedURL, "{query}") {
				errs = append(errs, errors.New("search.news: feed_url must contain {query}"))
			}
		case NewsBackendNewsAPI:
		default:
			errs = append(errs, fmt.Errorf("search.news: unknown backend %q", c.Search.News.Backend))
		}
	}

	for name, d := range map[string]time.Duration{
		"search.lookup_timeout": c.Search.LookupTimeout,
		"summarization.timeout": c.Summarization.Timeout,
		"history.timeout":       c.History.Timeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if temp := c.Summarization.Temperature; temp < 0 || temp > 2 {
		errs = append(errs, fmt.Errorf("summarization: temperature %v out of range [0, 2]", temp))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: invalid port %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the SQLite file path.
func (c *Config) DatabasePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.GetDataDir(), "researchlens.db")
}

// DatabaseURL returns the PostgreSQL connection string from the environment.
func (c *Config) DatabaseURL() string {
	return os.Getenv(c.Storage.URLEnv)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
