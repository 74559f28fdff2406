// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultEndpoint is the chat completions endpoint queried for every subject.
	DefaultEndpoint = "https://api.perplexity.ai/chat/completions"

	// DefaultModel is sent as the model identifier. It is only a default:
	// providers rename models often, so BOATKIT_MODEL or --model overrides it.
	DefaultModel = "mistral-7b-instruct"

	// SubjectPlaceholder is replaced by the boat type in the query template.
	SubjectPlaceholder = "{BOAT_TYPE}"

	// DefaultQueryTemplate is used when QUERY_TEMPLATE is not configured.
	DefaultQueryTemplate = "Provide detailed information about the boat type: " + SubjectPlaceholder +
		". Include details about its typical size, use cases, features, and history."
)

var (
	// ErrMissingAPIKey is returned by Validate when no API key is configured.
	ErrMissingAPIKey = errors.New("API key not found")

	// ErrMissingArgument marks a required command-line argument that was not given.
	ErrMissingArgument = errors.New("missing required argument")
)

// Config holds the application configuration.
type Config struct {
	APIKey        string `mapstructure:"api_key"`
	QueryTemplate string `mapstructure:"query_template"`
	Model         string `mapstructure:"model"`
	Endpoint      string `mapstructure:"endpoint"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
}

// Options controls where Load looks for configuration files.
// Empty fields fall back to ~/.boatkit and ./.env.
type Options struct {
	Dir    string
	DotEnv string
}

// envKeys maps config keys to the environment variables (and .env entries) that set them.
var envKeys = map[string]string{
	"api_key":        "PERPLEXITY_API_KEY",
	"query_template": "QUERY_TEMPLATE",
	"model":          "BOATKIT_MODEL",
	"endpoint":       "BOATKIT_ENDPOINT",
	"log_level":      "BOATKIT_LOG_LEVEL",
	"log_format":     "BOATKIT_LOG_FORMAT",
}

// Load reads ~/.boatkit/config.yaml and ./.env, then applies environment
// variable overrides. Missing files are not an error.
func Load(opts Options) (*Config, error) {
	if opts.Dir == "" {
		opts.Dir = Dir()
	}
	if opts.DotEnv == "" {
		opts.DotEnv = ".env"
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(opts.Dir)

	// Defaults
	v.SetDefault("query_template", DefaultQueryTemplate)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	// .env entries sit between the config file and the real environment
	if err := mergeDotEnv(v, opts.DotEnv); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	return &cfg, nil
}

func mergeDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}

	values := make(map[string]any)
	for key, name := range envKeys {
		if val := env.GetString(strings.ToLower(name)); val != "" {
			values[key] = val
		}
	}
	if len(values) == 0 {
		return nil
	}
	return v.MergeConfigMap(values)
}

// Validate checks that everything needed to call the completions API is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w — set PERPLEXITY_API_KEY in the environment or in a .env file (PERPLEXITY_API_KEY=your_api_key_here)", ErrMissingAPIKey)
	}
	return nil
}

// MissingArgument builds an ErrMissingArgument for the named flag.
func MissingArgument(flag, hint string) error {
	if hint == "" {
		return fmt.Errorf("%w: --%s", ErrMissingArgument, flag)
	}
	return fmt.Errorf("%w: --%s %s", ErrMissingArgument, flag, hint)
}

// Dir returns the per-user configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".boatkit"
	}
	return filepath.Join(home, ".boatkit")
}
