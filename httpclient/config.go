package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/restkit/auth"
	"github.com/kbukum/restkit/logger"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP client.
type Config struct {
	// BaseURL is the base URL prepended to all request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the default request timeout. Defaults to 30s.
	// Only used when the client constructs its own transport.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Tokens holds bearer credentials and coordinates refresh.
	// Nil disables authentication.
	Tokens *auth.Store `yaml:"-" mapstructure:"-"`

	// Transport performs network I/O. Nil uses an *http.Client-backed
	// transport with Timeout applied.
	Transport Transport `yaml:"-" mapstructure:"-"`

	// Codec serializes bodies. Nil uses JSONCodec.
	Codec Codec `yaml:"-" mapstructure:"-"`

	// Logger receives debug logging for each call. Nil disables logging.
	Logger *logger.Logger `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Codec == nil {
		c.Codec = JSONCodec{}
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return nil
}
