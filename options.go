package mcp

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tonyzorin/youtrack-mcp/config"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

// Options defines the command line of the bridge.
type Options struct {
	Host           string   `long:"host" description:"HTTP listen host" default:"127.0.0.1"`
	Port           int      `long:"port" description:"HTTP listen port" default:"8000"`
	Transport      string   `short:"t" long:"transport" description:"mcp transport" choice:"stdio" choice:"http" default:"stdio"`
	LogLevel       string   `long:"log-level" description:"log level" choice:"DEBUG" choice:"INFO" choice:"WARNING" choice:"ERROR" choice:"CRITICAL" default:"INFO"`
	Config         string   `short:"c" long:"config" description:"YAML config file location"`
	URL            string   `long:"youtrack-url" description:"tracker URL"`
	Token          string   `long:"api-token" description:"tracker API token"`
	VerifySSL      bool     `long:"verify-ssl" description:"verify TLS certificates"`
	NoVerifySSL    bool     `long:"no-verify-ssl" description:"skip TLS certificate verification"`
	MaxRetries     *int     `long:"max-retries" description:"retries for transient tracker failures"`
	RetryDelay     *float64 `long:"retry-delay" description:"base retry delay in seconds"`
	Timeout        *float64 `long:"timeout" description:"tracker request timeout in seconds"`
	CallTimeout    float64  `long:"call-timeout" description:"tool call deadline in seconds" default:"30"`
	HTTPAuthSecret string   `long:"http-auth-secret" description:"HS256 secret required from HTTP clients" env:"MCP_HTTP_AUTH_SECRET"`
	Trace          bool     `long:"trace" description:"export tool and tracker spans to stderr"`
	Version        bool     `short:"v" long:"version" description:"print version and exit"`
}

// Addr returns the HTTP listen address.
func (o *Options) Addr() string {
	return fmt.Sprintf("%v:%v", o.Host, o.Port)
}

// Level maps the log level name onto slog.
func (o *Options) Level() slog.Level {
	switch strings.ToUpper(o.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "CRITICAL":
		return LevelCritical
	}
	return slog.LevelInfo
}

// Overrides returns the config values set on the command line.
func (o *Options) Overrides() *config.Overrides {
	ret := &config.Overrides{
		MaxRetries: o.MaxRetries,
		RetryDelay: o.RetryDelay,
	}
	if o.URL != "" {
		ret.URL = &o.URL
	}
	if o.Token != "" {
		ret.Token = &o.Token
	}
	switch {
	case o.NoVerifySSL:
		verify := false
		ret.VerifySSL = &verify
	case o.VerifySSL:
		verify := true
		ret.VerifySSL = &verify
	}
	if o.Timeout != nil {
		timeout := time.Duration(*o.Timeout * float64(time.Second))
		ret.Timeout = &timeout
	}
	return ret
}

// Validate reports conflicting flags.
func (o *Options) Validate() error {
	if o.VerifySSL && o.NoVerifySSL {
		return fmt.Errorf("--verify-ssl and --no-verify-ssl are mutually exclusive")
	}
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port: %v", o.Port)
	}
	if o.CallTimeout <= 0 {
		return fmt.Errorf("invalid call timeout: %v", o.CallTimeout)
	}
	return nil
}

// CallDeadline returns the tool call deadline.
func (o *Options) CallDeadline() time.Duration {
	return time.Duration(o.CallTimeout * float64(time.Second))
}
