// Package config loads the chainrunner configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/httpclient"
	"github.com/status-im/proxy-chain/ratelimit"
)

type Config struct {
	Chain     ChainConfig             `yaml:"chain" json:"chain"`
	HTTP      httpclient.RetryOptions `yaml:"http" json:"http"`
	RateLimit ratelimit.Config        `yaml:"rate_limit" json:"rate_limit"`
	Cache     cache.Config            `yaml:"cache" json:"cache"`
	Metrics   MetricsConfig           `yaml:"metrics" json:"metrics"`
	Auth      AuthConfig              `yaml:"auth" json:"auth"`
	Steps     []StepConfig            `yaml:"steps" json:"steps"`
}

// ChainConfig holds the chain policy
type ChainConfig struct {
	IgnoreErrors bool          `yaml:"ignore_errors" json:"ignore_errors"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"` // cancels the chain when exceeded, 0 waits forever
}

// MetricsConfig configures the admin HTTP server
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Namespace  string `yaml:"namespace" json:"namespace"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	Path       string `yaml:"path" json:"path"`
}

// AuthConfig configures bearer tokens for signed steps
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" json:"jwt_secret"`
	Issuer    string        `yaml:"issuer" json:"issuer"`
	Subject   string        `yaml:"subject" json:"subject"`
	TokenTTL  time.Duration `yaml:"token_ttl" json:"token_ttl"`
}

// StepConfig describes one request of the chain
type StepConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Method      string            `yaml:"method" json:"method"`
	URL         string            `yaml:"url" json:"url"`
	Headers     map[string]string `yaml:"headers" json:"headers"`
	Body        string            `yaml:"body" json:"body"`
	ContentType string            `yaml:"content_type" json:"content_type"`
	Cache       bool              `yaml:"cache" json:"cache"` // serve GET responses from the response cache
	Sign        bool              `yaml:"sign" json:"sign"`   // attach a bearer token
}

type Option func(*Config)

func New(opts ...Option) *Config {
	cfg := &Config{
		HTTP: httpclient.DefaultRetryOptions(),
		Metrics: MetricsConfig{
			Enabled:    true,
			Namespace:  "proxy",
			ListenAddr: ":9090",
			Path:       "/metrics",
		},
		Auth: AuthConfig{
			Issuer:   "proxy-chain",
			Subject:  "chainrunner",
			TokenTTL: 5 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.ApplyDefaults()
	return cfg
}

func WithIgnoreErrors(ignore bool) Option {
	return func(c *Config) {
		c.Chain.IgnoreErrors = ignore
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Chain.Timeout = timeout
	}
}

func WithRetryOptions(opts httpclient.RetryOptions) Option {
	return func(c *Config) {
		c.HTTP = opts
	}
}

func WithJWTSecret(secret string) Option {
	return func(c *Config) {
		c.Auth.JWTSecret = secret
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.Cache.TTL = ttl
	}
}

func WithMetricsListenAddr(addr string) Option {
	return func(c *Config) {
		c.Metrics.ListenAddr = addr
	}
}

func WithSteps(steps ...StepConfig) Option {
	return func(c *Config) {
		c.Steps = append(c.Steps, steps...)
	}
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	c.HTTP.ApplyDefaults()
	c.Cache.ApplyDefaults()

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "proxy"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 5 * time.Minute
	}

	for i := range c.Steps {
		if c.Steps[i].Method == "" {
			c.Steps[i].Method = http.MethodGet
		}
		c.Steps[i].Method = strings.ToUpper(c.Steps[i].Method)
		if c.Steps[i].Name == "" {
			c.Steps[i].Name = fmt.Sprintf("step-%d", i)
		}
	}
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := New()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.ApplyDefaults()

	return config, nil
}

// Load loads configuration from the CONFIG_FILE environment variable
// or from the default path "chain.yaml", then applies environment overrides
func Load() (*Config, error) {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "chain.yaml"
	}

	cfg, err := LoadFromFile(configFile)
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
// This provides a way to configure without a config file
func LoadFromEnv() (*Config, error) {
	cfg := New()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CHAIN_IGNORE_ERRORS"); v != "" {
		ignore, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHAIN_IGNORE_ERRORS: %w", err)
		}
		cfg.Chain.IgnoreErrors = ignore
	}

	if v := os.Getenv("CHAIN_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CHAIN_TIMEOUT: %w", err)
		}
		cfg.Chain.Timeout = timeout
	}

	if v := os.Getenv("CHAIN_STEPS"); v != "" {
		// comma separated GET urls
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.Steps = append(cfg.Steps, StepConfig{URL: u})
			}
		}
	}

	if v := os.Getenv("HTTP_MAX_RETRIES"); v != "" {
		if retries, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.MaxRetries = retries
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = ttl
		}
	}

	if v := os.Getenv("KEYDB_URL"); v != "" {
		cfg.Cache.L2.URL = v
		cfg.Cache.L2.Enabled = true
	}

	if v := os.Getenv("METRICS_LISTEN_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}

	cfg.ApplyDefaults()
	return nil
}

func (c *Config) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http max retries must be positive")
	}

	if c.Chain.Timeout < 0 {
		return fmt.Errorf("chain timeout must be non-negative")
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must be non-negative")
	}

	signed := false
	for i, step := range c.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
		signed = signed || step.Sign
	}

	if signed && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required for signed steps")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics listen address is required when metrics are enabled")
	}

	return nil
}

func (s StepConfig) validate() error {
	switch s.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions:
	default:
		return fmt.Errorf("unsupported method %q", s.Method)
	}

	if s.URL == "" {
		return fmt.Errorf("url is required")
	}

	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url host is required")
	}

	return nil
}
