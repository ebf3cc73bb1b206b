// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	_ "codeberg.org/agora/agora/core/audit" // setup better logging format
	"codeberg.org/agora/agora/core/idgen"
)

// Global exposes the server configuration.
var Global ServerConfig

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host       string `env:"AGORA_HOST,overwrite" yaml:"host"`
		Port       string `env:"AGORA_PORT,overwrite" yaml:"port"`
		UnixSocket string `env:"AGORA_UNIXSOCKET" yaml:"unixSocket"`
		// Owner, group and octal permissions applied to the socket file.
		UnixSocketUser  string `env:"AGORA_UNIXSOCKET_USER" yaml:"unixSocketUser"`
		UnixSocketGroup string `env:"AGORA_UNIXSOCKET_GROUP" yaml:"unixSocketGroup"`
		UnixSocketMode  string `env:"AGORA_UNIXSOCKET_MODE,overwrite" yaml:"unixSocketMode"`
	} `yaml:"basic"`

	Markup struct {
		// Request bodies above this size are refused before rendering.
		MaxInputBytes int64 `env:"AGORA_MAX_INPUT_BYTES,overwrite" yaml:"maxInputBytes"`
		// Default rune limit for snippets when the client does not ask for one.
		SnippetLength int `env:"AGORA_SNIPPET_LENGTH,overwrite" yaml:"snippetLength"`
		// Run rendered HTML through an allowlist policy before it is served.
		Sanitize         bool `env:"AGORA_SANITIZE,overwrite" yaml:"sanitize"`
		BatchLimit       int  `env:"AGORA_BATCH_LIMIT,overwrite" yaml:"batchLimit"`
		BatchConcurrency int  `env:"AGORA_BATCH_CONCURRENCY,overwrite" yaml:"batchConcurrency"`
	} `yaml:"markup"`

	Cache struct {
		Enabled  bool `env:"AGORA_CACHE,overwrite" yaml:"enabled"`
		Size     int  `env:"AGORA_CACHE_SIZE,overwrite" yaml:"cacheSize"`
		Compress bool `env:"AGORA_CACHE_COMPRESS,overwrite" yaml:"compress"`
	} `yaml:"cache"`

	Instance struct {
		StartingTime string `yaml:"-"`
		InstanceID   string `yaml:"-"`
	} `yaml:"-"`

	Development struct {
		InDevelopment bool `env:"AGORA_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"AGORA_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"AGORA_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"AGORA_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled    bool          `env:"AGORA_LIMITER,overwrite" yaml:"enabled"`
		Rate       float64       `env:"AGORA_LIMITER_RATE,overwrite" yaml:"rate"`
		Burst      int           `env:"AGORA_LIMITER_BURST,overwrite" yaml:"burst"`
		IdleTTL    time.Duration `env:"AGORA_LIMITER_IDLE_TTL,overwrite" yaml:"idleTTL"`
		PassIPs    []string      `env:"AGORA_LIMITER_PASS_IPS,overwrite" yaml:"passList"`
		IPv4Prefix int           `env:"AGORA_LIMITER_IPV4_PREFIX,overwrite" yaml:"ipv4Prefix"`
		IPv6Prefix int           `env:"AGORA_LIMITER_IPV6_PREFIX,overwrite" yaml:"ipv6Prefix"`
	} `yaml:"limiter"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *ServerConfig) LoadConfig() error {
	return cfg.load(parseCommandLineArgs())
}

// load runs the loading pipeline. flagPath is the value of the -config
// flag and flagSet reports whether the user passed it explicitly.
func (cfg *ServerConfig) load(flagPath string, flagSet bool) error {
	configFilePath := resolveConfigPath(flagPath, flagSet)

	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.InstanceID = idgen.Make()
	cfg.Instance.StartingTime = time.Now().UTC().Format("2006-01-02 15:04")

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}

// resolveConfigPath determines the config file path with the following precedence:
//  1. Command-line flag (-config)
//  2. Environment variable (AGORA_CONFIGFILE)
//  3. ./config.yaml, falling back to ./config.yml if only that exists
func resolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}

	if envVar := os.Getenv("AGORA_CONFIGFILE"); envVar != "" {
		return envVar
	}

	if _, err := os.Stat(flagPath); os.IsNotExist(err) {
		ymlPath := "./config.yml"
		if _, statErr := os.Stat(ymlPath); statErr == nil {
			return ymlPath
		}
	}

	return flagPath
}

// configFlagSet reports whether -config was given on the command line.
func configFlagSet() bool {
	set := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			set = true
		}
	})

	return set
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
