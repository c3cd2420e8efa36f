// Package config loads the tracker connection settings.
//
// Values are layered: defaults, an optional YAML file, the environment and
// finally explicit overrides supplied by the command line. The resulting
// Config is treated as read-only once Load returns.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tonyzorin/youtrack-mcp/internal/conv"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1.0
	DefaultTimeout    = 30 * time.Second

	envURL         = "YOUTRACK_URL"
	envToken       = "YOUTRACK_API_TOKEN"
	envVerifySSL   = "VERIFY_SSL"
	envCloud       = "YOUTRACK_CLOUD"
	envWorkspace   = "YOUTRACK_WORKSPACE"
	envMaxRetries  = "YOUTRACK_MAX_RETRIES"
	envRetryDelay  = "YOUTRACK_RETRY_DELAY"
	envTimeout     = "YOUTRACK_TIMEOUT"
	envServerName  = "MCP_SERVER_NAME"
	envDescription = "MCP_SERVER_DESCRIPTION"
)

var (
	ErrMissingToken = errors.New("tracker API token is required (set YOUTRACK_API_TOKEN or --api-token)")
	ErrMissingURL   = errors.New("tracker URL is required (set YOUTRACK_URL or --youtrack-url)")
)

// Config holds tracker connection settings.
type Config struct {
	URL        string        `yaml:"url" json:"url"`
	Token      string        `yaml:"token" json:"-"`
	VerifySSL  bool          `yaml:"verifySSL" json:"verifySSL"`
	MaxRetries int           `yaml:"maxRetries" json:"maxRetries"`
	RetryDelay float64       `yaml:"retryDelay" json:"retryDelay"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`

	Cloud     bool   `yaml:"cloud,omitempty" json:"cloud,omitempty"`
	Workspace string `yaml:"workspace,omitempty" json:"workspace,omitempty"`

	ServerName        string `yaml:"serverName,omitempty" json:"serverName,omitempty"`
	ServerDescription string `yaml:"serverDescription,omitempty" json:"serverDescription,omitempty"`
}

// Overrides carries command line values; nil fields keep the loaded value.
type Overrides struct {
	URL        *string
	Token      *string
	VerifySSL  *bool
	MaxRetries *int
	RetryDelay *float64
	Timeout    *time.Duration
}

// Default returns a config with default tunables.
func Default() *Config {
	return &Config{
		VerifySSL:  true,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Timeout:    DefaultTimeout,
		ServerName: "youtrack-mcp",
	}
}

// Load builds a config from an optional file, the environment and overrides.
func Load(ctx context.Context, location string, overrides *Overrides) (*Config, error) {
	cfg := Default()
	if location != "" {
		if err := cfg.loadFile(ctx, location); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.apply(overrides)
	cfg.Init()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(ctx context.Context, location string) error {
	URL := location
	if !strings.Contains(URL, "://") {
		abs, err := filepath.Abs(URL)
		if err != nil {
			return err
		}
		URL = "file://" + abs
	}
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to load config %v: %w", location, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %v: %w", location, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(envURL); ok && v != "" {
		c.URL = v
	}
	if v, ok := lookup(envToken); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup(envVerifySSL); ok && v != "" {
		flag, valid := conv.AsBool(v)
		if !valid {
			return fmt.Errorf("invalid %v value: %q", envVerifySSL, v)
		}
		c.VerifySSL = flag
	}
	if v, ok := lookup(envCloud); ok && v != "" {
		c.Cloud, _ = conv.AsBool(v)
	}
	if v, ok := lookup(envWorkspace); ok && v != "" {
		c.Workspace = v
	}
	if v, ok := lookup(envMaxRetries); ok && v != "" {
		n, valid := conv.AsInt(v)
		if !valid || n < 0 {
			return fmt.Errorf("invalid %v value: %q", envMaxRetries, v)
		}
		c.MaxRetries = n
	}
	if v, ok := lookup(envRetryDelay); ok && v != "" {
		f, valid := conv.AsFloat(v)
		if !valid || f < 0 {
			return fmt.Errorf("invalid %v value: %q", envRetryDelay, v)
		}
		c.RetryDelay = f
	}
	if v, ok := lookup(envTimeout); ok && v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %v value: %w", envTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := lookup(envServerName); ok && v != "" {
		c.ServerName = v
	}
	if v, ok := lookup(envDescription); ok && v != "" {
		c.ServerDescription = v
	}
	return nil
}

// parseTimeout accepts Go durations ("45s") and plain seconds ("45").
func parseTimeout(v string) (time.Duration, error) {
	if seconds, ok := conv.AsFloat(v); ok {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func (c *Config) apply(overrides *Overrides) {
	if overrides == nil {
		return
	}
	if overrides.URL != nil && *overrides.URL != "" {
		c.URL = *overrides.URL
	}
	if overrides.Token != nil && *overrides.Token != "" {
		c.Token = *overrides.Token
	}
	if overrides.VerifySSL != nil {
		c.VerifySSL = *overrides.VerifySSL
	}
	if overrides.MaxRetries != nil {
		c.MaxRetries = *overrides.MaxRetries
	}
	if overrides.RetryDelay != nil {
		c.RetryDelay = *overrides.RetryDelay
	}
	if overrides.Timeout != nil {
		c.Timeout = *overrides.Timeout
	}
}

// Init normalizes the URL and token and fills unset tunables.
func (c *Config) Init() {
	if c.URL == "" && c.Cloud && c.Workspace != "" {
		c.URL = "https://" + c.Workspace + ".youtrack.cloud"
	}
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Token = NormalizeToken(strings.TrimSpace(c.Token))
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.URL == "" {
		return ErrMissingURL
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("invalid tracker URL %q: expected http or https scheme", c.URL)
	}
	return nil
}

// RetryBaseDelay returns the base retry delay as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// APIURL returns the tracker REST root, always ending with "/api/".
func (c *Config) APIURL() string {
	base := strings.TrimRight(c.URL, "/")
	if strings.HasSuffix(base, "/api") {
		return base + "/"
	}
	return base + "/api/"
}

// InstanceURL returns the tracker URL without the REST suffix.
func (c *Config) InstanceURL() string {
	return strings.TrimSuffix(strings.TrimRight(c.URL, "/"), "/api")
}
