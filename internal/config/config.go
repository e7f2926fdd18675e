// Package config loads pcjc-awards settings.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// YAML file, and environment variables named by the `env` struct tags. Before
// environment overrides are applied, .env files are loaded:
//
//  1. ENV_FILE (if set, only this file is loaded)
//  2. .env.local
//  3. .env
//
// Example config.yml:
//
//	domain: http://paccentraljc.org/
//	data_dir: ~/pcjc
//	requests_per_second: 0.5
//	workers: 2
//	layout_file: layouts/2025.yml
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a crawl
type Config struct {
	Domain            string        `yaml:"domain" env:"PCJC_DOMAIN"`
	DataDir           string        `yaml:"data_dir" env:"PCJC_DATA_DIR"`
	UserAgents        []string      `yaml:"user_agents" env:"PCJC_USER_AGENTS"`
	Timeout           time.Duration `yaml:"timeout" env:"PCJC_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"PCJC_REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" env:"PCJC_BURST"`
	MaxRetries        int           `yaml:"max_retries" env:"PCJC_MAX_RETRIES"`
	Workers           int           `yaml:"workers" env:"PCJC_WORKERS"`
	RespectRobots     bool          `yaml:"respect_robots" env:"PCJC_RESPECT_ROBOTS"`
	LayoutFile        string        `yaml:"layout_file" env:"PCJC_LAYOUT_FILE"`
	LogLevel          string        `yaml:"log_level" env:"PCJC_LOG_LEVEL"`
}

// DefaultDomain is the site root; references are appended to it verbatim
const DefaultDomain = "http://paccentraljc.org/"

// Browser user agents. The site answers 406 to requests without one.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2228.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2227.1 Safari/537.36",
	"Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2227.0 Safari/537.36",
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		Domain:            DefaultDomain,
		DataDir:           "~/.local/share/pcjc-awards",
		UserAgents:        append([]string(nil), defaultUserAgents...),
		Timeout:           30 * time.Second,
		RequestsPerSecond: 0.5,
		Burst:             1,
		MaxRetries:        3,
		Workers:           2,
		RespectRobots:     true,
		LogLevel:          "info",
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("loading environment files: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	envErr := applyEnvOverrides(cfg)
	if err := errors.Join(envErr, cfg.Validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings can drive a crawl
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Domain)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("domain: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("domain %q: scheme must be http or https", c.Domain))
	case !strings.HasSuffix(c.Domain, "/"):
		errs = append(errs, fmt.Errorf("domain %q must end with a slash", c.Domain))
	}

	if len(c.UserAgents) == 0 {
		errs = append(errs, errors.New("user_agents: at least one user agent is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond))
	}
	if c.Burst < 1 {
		errs = append(errs, fmt.Errorf("burst must be at least 1, got %d", c.Burst))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// loadEnvFiles loads .env files; missing files are not an error
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

// applyEnvOverrides sets fields from the variables named in their `env` tags
func applyEnvOverrides(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	var errs []error
	for i := range v.NumField() {
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		if err := setFieldFromString(v.Field(i), val); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, val, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

func setFieldFromString(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(val)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		field.SetBool(parseBool(val))

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(val, "|")
			for i, p := range parts {
				parts[i] = strings.TrimSpace(p)
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// parseBool returns true for "true", "1" and "yes" (case-insensitive)
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
