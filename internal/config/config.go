// Package config manages configuration for the entourage CLI.
// It uses Viper for unified configuration management from the config file and
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/entourage/entourage/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the tenant-level settings campaigns run against. Command-line
// flags override these values per invocation.
type Config struct {
	// TenantID is the Entra ID tenant, as a GUID or a tenant domain.
	TenantID string `mapstructure:"tenant_id" yaml:"tenant_id"`
	// SubscriptionID is the default subscription for resource containers.
	SubscriptionID string `mapstructure:"subscription_id" yaml:"subscription_id" validate:"omitempty,uuid"`
	// Domain is the default sign-in domain for created accounts. When empty
	// the tenant's default verified domain is resolved at run time.
	Domain string `mapstructure:"domain" yaml:"domain" validate:"omitempty,fqdn"`
	// Location is the default region for resource containers.
	Location string `mapstructure:"location" yaml:"location"`
	// LogLevel controls slog verbosity (DEBUG, INFO, WARN, ERROR).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

var validate = validator.New()

// Load loads the configuration using Viper.
// Reads ~/.entourage/config.yaml when present; ENTOURAGE_* environment
// variables take precedence over config file values. A missing config file is
// not an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := loadConfigFile(v); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ENTOURAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to the user's home directory.
// Overwrites the existing config file if it exists.
func Save(config *Config) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)

	if err = os.MkdirAll(configDir, constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	v := viper.New()
	v.Set("tenant_id", config.TenantID)
	v.Set("subscription_id", config.SubscriptionID)
	v.Set("domain", config.Domain)
	v.Set("location", config.Location)
	v.Set("log_level", config.LogLevel)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	if err = os.Chmod(configFilePath, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}

	return filepath.Join(constants.ConfigDirPath(currentUser.HomeDir), constants.ConfigFileName), nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func setDefaults(v *viper.Viper) {
	// location deliberately has no default: an empty location triggers
	// interactive region selection at provisioning time
	v.SetDefault("log_level", "INFO")
}

func loadConfigFile(v *viper.Viper) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	v.SetConfigFile(constants.ConfigFilePath(currentUser.HomeDir))
	v.SetConfigType("yaml")

	return v.ReadInConfig()
}

func bindEnvVars(v *viper.Viper) {
	envVars := []string{
		"TENANT_ID",
		"SUBSCRIPTION_ID",
		"DOMAIN",
		"LOCATION",
		"LOG_LEVEL",
	}

	for _, envVar := range envVars {
		configKey := strings.ToLower(envVar)
		_ = v.BindEnv(configKey, "ENTOURAGE_"+envVar)
	}
}
