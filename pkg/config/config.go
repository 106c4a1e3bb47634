// Package config loads configuration for the filter converter.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"gmailfilter2csv/pkg/csvout"
)

const (
	// EnvVar names the config file when --config is not given.
	EnvVar    = "GMAILFILTER2CSV_CONFIG"
	envPrefix = "GMAILFILTER2CSV"
)

// Token store backends for the Gmail API source.
const (
	TokenStoreKeyring = "keyring"
	TokenStoreFile    = "file"
)

// Config contains all runtime options.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Convert ConvertConfig `mapstructure:"convert"`
	Gmail   GmailConfig   `mapstructure:"gmail"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ConvertConfig holds input, output and output format settings.
type ConvertConfig struct {
	Input       string            `mapstructure:"input"`
	Output      string            `mapstructure:"output"`
	QuoteFields bool              `mapstructure:"quote_fields"`
	NullValue   string            `mapstructure:"null_value"`
	LineEnding  csvout.LineEnding `mapstructure:"line_ending"`
}

// GmailConfig holds settings for reading filters through the Gmail API.
type GmailConfig struct {
	User            string        `mapstructure:"user"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	TokenStore      string        `mapstructure:"token_store"`
	TokenFile       string        `mapstructure:"token_file"`
	KeyringDir      string        `mapstructure:"keyring_dir"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// ValidateLogLevel ensures the user-provided log level matches the supported set.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
	}
	return nil
}

// New returns a viper instance with defaults and environment overrides applied.
// Command line flags are bound to it by the caller before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the optional TOML file at path (or $GMAILFILTER2CSV_CONFIG) into v
// and produces a validated Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvVar))
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "stderr")
	v.SetDefault("convert.input", "data/mailFilters.xml")
	v.SetDefault("convert.output", "data/filters.csv")
	v.SetDefault("convert.quote_fields", false)
	v.SetDefault("convert.null_value", "")
	v.SetDefault("convert.line_ending", string(csvout.LF))
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.credentials_file", "credentials.json")
	v.SetDefault("gmail.token_store", TokenStoreKeyring)
	v.SetDefault("gmail.token_file", "token.json")
	v.SetDefault("gmail.keyring_dir", "~/.config/gmailfilter2csv/keyring")
	v.SetDefault("gmail.timeout", "30s")
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToLineEndingHookFunc(),
	)
}

func stringToLineEndingHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(csvout.LineEnding("")) {
			return data, nil
		}
		ending, err := csvout.ParseLineEnding(data.(string))
		if err != nil {
			return nil, err
		}
		return ending, nil
	}
}

func validateConfig(cfg *Config) error {
	if err := ValidateLogLevel(cfg.Logging.Level); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Convert.Input) == "" {
		return errors.New("convert.input is required")
	}
	if strings.TrimSpace(cfg.Convert.Output) == "" {
		return errors.New("convert.output is required")
	}

	switch cfg.Gmail.TokenStore {
	case TokenStoreKeyring, TokenStoreFile:
	default:
		return fmt.Errorf("invalid gmail.token_store: %s (must be one of: keyring, file)", cfg.Gmail.TokenStore)
	}
	if cfg.Gmail.User == "" {
		return errors.New("gmail.user is required")
	}
	if cfg.Gmail.Timeout < 0 {
		return errors.New("gmail.timeout must be >= 0")
	}

	return nil
}
