// Package constants defines global constants used throughout entourage.
// It includes version information, paths, and provisioning defaults.
package constants

import "time"

var version = "0.0.0-development" // Updated by CI/CD pipeline at build time

// GetVersion returns the current version of entourage.
func GetVersion() *string {
	return &version
}

// ProjectName is the name of the CLI tool and application
const ProjectName = "entourage"

// ConfigDirName is the name of the configuration directory in the user's home directory
const ConfigDirName = ".entourage"

// ConfigFileName is the name of the global configuration file
const ConfigFileName = "config.yaml"

// ConfigDirPath returns the full path to the global configuration directory.
func ConfigDirPath(homeDir string) string {
	return homeDir + "/" + ConfigDirName
}

// ConfigFilePath returns the full path to the global configuration file
func ConfigFilePath(homeDir string) string {
	return ConfigDirPath(homeDir) + "/" + ConfigFileName
}

// File permissions for the configuration directory and file. The config file
// can hold a tenant and subscription id, so it is restricted to the owner.
const (
	ConfigDirPermissions  = 0o700
	ConfigFilePermissions = 0o600
)

// Environment represents the execution environment (e.g., CLI, automation).
type Environment string

// Environment types for logger configuration
const (
	Development Environment = "development"
	Production  Environment = "production"
	CLI         Environment = "cli"
)

// MaxUserCount is the upper bound on accounts in a single campaign.
const MaxUserCount = 1000

// DefaultUserCount is the number of accounts created when no count is given.
const DefaultUserCount = 10

// DefaultPaceInterval is the minimum spacing between consecutive mutating
// calls to the directory or resource services. Batches are intentionally
// sequential; this interval keeps a full 1000-account run under the external
// services' throttling thresholds.
const DefaultPaceInterval = 500 * time.Millisecond

// DefaultRegion is used for resource containers when region enumeration is
// unavailable and the caller did not pick one.
const DefaultRegion = "eastus"

// GeneratedPasswordLength is the length of generated account passwords.
const GeneratedPasswordLength = 16

// ContainerRoleName is the access role granted on each per-account resource
// container.
const ContainerRoleName = "Contributor"
