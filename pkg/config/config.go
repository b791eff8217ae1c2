// Package config provides defaults, file loading, and environment
// overrides for apq.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/antoniovl/apq/pkg/mailq"
	"github.com/antoniovl/apq/pkg/maillog"
)

// Environment variable names. A .env file loaded at startup may supply
// any of these.
const (
	EnvMailqCommand = "APQ_MAILQ_COMMAND"
	EnvMailLogPath  = "APQ_MAILLOG_PATH"
	EnvOutput       = "APQ_OUTPUT"
)

// Config is the root configuration, loaded from an optional YAML file
// and overridden by environment variables.
type Config struct {
	// MailqCommand is the queue-listing command and its arguments.
	MailqCommand []string `yaml:"mailq_command"`

	// MailLogPath is the syslog mail log scanned by the enrichment
	// path.
	MailLogPath string `yaml:"mail_log"`

	// Output is the default output format when no format flag is
	// given: json, yaml, count, or postfix3.
	Output string `yaml:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MailqCommand: mailq.DefaultCommand,
		MailLogPath:  maillog.DefaultPath,
		Output:       "json",
	}
}

// Load builds the effective configuration. An empty path skips the
// file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	if cmd := os.Getenv(EnvMailqCommand); cmd != "" {
		c.MailqCommand = strings.Fields(cmd)
	}
	if path := os.Getenv(EnvMailLogPath); path != "" {
		c.MailLogPath = path
	}
	if out := os.Getenv(EnvOutput); out != "" {
		c.Output = out
	}
}

func (c *Config) validate() error {
	if len(c.MailqCommand) == 0 {
		return fmt.Errorf("mailq_command: a listing command is required")
	}
	if c.MailLogPath == "" {
		return fmt.Errorf("mail_log: a log path is required")
	}
	switch c.Output {
	case "json", "yaml", "count", "postfix3":
	default:
		return fmt.Errorf("output: invalid format %q (use json, yaml, count, or postfix3)", c.Output)
	}
	return nil
}
