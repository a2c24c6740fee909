// Package config holds the target application and harness settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Dicklesworthstone/expense-e2e/internal/util"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultBaseURL is the deployed Spendly instance under test.
const DefaultBaseURL = "https://expense-tracker-app-smoky-seven.vercel.app"

// Routes are the application paths the scenarios visit.
type Routes struct {
	Login    string `toml:"login"`
	Groups   string `toml:"groups"`
	Register string `toml:"register"`
	NewGroup string `toml:"new_group"`
}

// Credentials is the pre-registered account used by login scenarios.
type Credentials struct {
	Email    string `toml:"email" env:"TEST_EMAIL"`
	Password string `toml:"password" env:"TEST_PASSWORD"`
}

// Browser controls the headless browser.
type Browser struct {
	Headless      bool          `toml:"headless" env:"E2E_HEADLESS"`
	WindowWidth   int           `toml:"window_width"`
	WindowHeight  int           `toml:"window_height"`
	Timeout       time.Duration `toml:"timeout" env:"E2E_TIMEOUT"`
	ExpectTimeout time.Duration `toml:"expect_timeout" env:"E2E_EXPECT_TIMEOUT"`
}

// Config is the effective harness configuration.
type Config struct {
	BaseURL     string      `toml:"base_url" env:"APP_URL"`
	EvidenceDir string      `toml:"evidence_dir" env:"EVIDENCE_DIR"`
	FixtureSeed uint64      `toml:"fixture_seed" env:"FIXTURE_SEED"`
	LogLevel    string      `toml:"log_level" env:"E2E_LOG_LEVEL"`
	Routes      Routes      `toml:"routes"`
	Credentials Credentials `toml:"credentials"`
	Browser     Browser     `toml:"browser"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		EvidenceDir: "test-evidence",
		LogLevel:    "info",
		Routes: Routes{
			Login:    "/login",
			Groups:   "/groups",
			Register: "/register",
			NewGroup: "/groups/new",
		},
		Credentials: Credentials{
			Email:    "fedegastos@gmail.com",
			Password: "supersegura123",
		},
		Browser: Browser{
			Headless:      true,
			WindowWidth:   1280,
			WindowHeight:  720,
			Timeout:       30 * time.Second,
			ExpectTimeout: 5 * time.Second,
		},
	}
}

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ConfigPath is an optional TOML file. An explicit path must exist.
	ConfigPath string
	// EnvFile is a dotenv file; missing files are ignored. Defaults to ".env".
	EnvFile string
	// SkipEnv disables dotenv and environment overrides.
	SkipEnv bool
}

// Load returns the effective configuration after applying precedence:
// defaults < TOML file < .env file < environment.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.ConfigPath != "" {
		if err := mergeFile(&cfg, util.ExpandPath(opts.ConfigPath)); err != nil {
			return Config{}, err
		}
	}

	if !opts.SkipEnv {
		envFile := opts.EnvFile
		if envFile == "" {
			envFile = ".env"
		}
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
		if err := env.Parse(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse env: %w", err)
		}
	}

	cfg.EvidenceDir = util.ExpandPath(cfg.EvidenceDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: base_url: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: base_url must be http or https, got %q", ErrInvalidConfig, c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: base_url has no host", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.EvidenceDir) == "" {
		return fmt.Errorf("%w: evidence_dir is required", ErrInvalidConfig)
	}
	if c.Browser.Timeout < 0 || c.Browser.ExpectTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.Browser.WindowWidth < 0 || c.Browser.WindowHeight < 0 {
		return fmt.Errorf("%w: window size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// URL joins the base URL and a route.
func (c Config) URL(route string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if route == "" {
		return base
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return base + route
}
