package config

import (
	"os"
	"strconv"
	"time"

	"github.com/canonical/cloud-init-sub001/internal/domain/constants"
	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
)

// Config is a struct that holds the network core configuration
type Config struct {
	Paths   PathsConfig
	DHCP    DHCPConfig
	Network NetworkConfig
	Log     LogConfig
}

// PathsConfig holds the OS paths the core reads and writes.
// They are explicit fields so tests can point them at temporary directories.
type PathsConfig struct {
	SysfsNetDir       string
	ProcDir           string
	RunDir            string
	LeaseArchiveDir   string
	NetworkConfigPath string
}

// DHCPConfig is a struct that holds DHCP client orchestration configuration
type DHCPConfig struct {
	Backend               string
	ClientPath            string
	ClientSearchPaths     []string
	DiscoveryTimeout      time.Duration
	ArtifactPollInterval  time.Duration
	ArtifactWaitTimeout   time.Duration
	DaemonizePollInterval time.Duration
	DaemonizeWaitTimeout  time.Duration
}

// NetworkConfig is a struct that holds link/route manipulation configuration
type NetworkConfig struct {
	CommandTimeout      time.Duration
	SettleTimeout       time.Duration
	ConnectivityURL     string
	ConnectivityTimeout time.Duration
}

// LogConfig is a struct that holds logging configuration
type LogConfig struct {
	Level string
}

// DHCP backend identifiers
const (
	BackendDhclient = "dhclient"
	BackendNative   = "native"
)

// ConfigLoader is an interface for loading configuration
type ConfigLoader interface {
	Load() (*Config, error)
}

// EnvironmentConfigLoader is an implementation that loads configuration from environment variables
type EnvironmentConfigLoader struct{}

// NewEnvironmentConfigLoader creates a new EnvironmentConfigLoader
func NewEnvironmentConfigLoader() ConfigLoader {
	return &EnvironmentConfigLoader{}
}

// Load loads configuration from environment variables
func (l *EnvironmentConfigLoader) Load() (*Config, error) {
	config := &Config{
		Paths: PathsConfig{
			SysfsNetDir:       getEnvOrDefault("SYSFS_NET_DIR", constants.SysClassNet),
			ProcDir:           getEnvOrDefault("PROC_DIR", constants.ProcDir),
			RunDir:            getEnvOrDefault("RUN_DIR", constants.DefaultRunDir),
			LeaseArchiveDir:   getEnvOrDefault("LEASE_ARCHIVE_DIR", constants.DefaultLeaseArchiveDir),
			NetworkConfigPath: getEnvOrDefault("NETWORK_CONFIG_PATH", constants.DefaultNetworkConfigPath),
		},
		DHCP: DHCPConfig{
			Backend:               getEnvOrDefault("DHCP_BACKEND", constants.DefaultDHCPBackend),
			ClientPath:            getEnvOrDefault("DHCLIENT_PATH", ""),
			ClientSearchPaths:     []string{"/sbin", "/usr/sbin", "/bin", "/usr/bin"},
			DiscoveryTimeout:      getEnvDurationOrDefault("DHCP_TIMEOUT", 30*time.Second),
			ArtifactPollInterval:  getEnvDurationOrDefault("ARTIFACT_POLL_INTERVAL", 10*time.Millisecond),
			ArtifactWaitTimeout:   getEnvDurationOrDefault("ARTIFACT_WAIT_TIMEOUT", 5*time.Second),
			DaemonizePollInterval: getEnvDurationOrDefault("DAEMONIZE_POLL_INTERVAL", 10*time.Millisecond),
			DaemonizeWaitTimeout:  getEnvDurationOrDefault("DAEMONIZE_WAIT_TIMEOUT", 10*time.Second),
		},
		Network: NetworkConfig{
			CommandTimeout:      getEnvDurationOrDefault("COMMAND_TIMEOUT", constants.DefaultCommandTimeout*time.Second),
			SettleTimeout:       getEnvDurationOrDefault("SETTLE_TIMEOUT", constants.DefaultSettleTimeout*time.Second),
			ConnectivityURL:     getEnvOrDefault("CONNECTIVITY_URL", ""),
			ConnectivityTimeout: getEnvDurationOrDefault("CONNECTIVITY_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", constants.DefaultLogLevel),
		},
	}

	// Validate configuration
	if err := l.validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validate validates the configuration
func (l *EnvironmentConfigLoader) validate(config *Config) error {
	// Validate path configuration
	if config.Paths.SysfsNetDir == "" {
		return errors.NewValidationError("sysfs network directory not configured", nil)
	}
	if config.Paths.ProcDir == "" {
		return errors.NewValidationError("proc directory not configured", nil)
	}
	if config.Paths.RunDir == "" {
		return errors.NewValidationError("run directory not configured", nil)
	}

	// Validate DHCP configuration
	if config.DHCP.Backend != BackendDhclient && config.DHCP.Backend != BackendNative {
		return errors.NewValidationError("unknown DHCP backend: "+config.DHCP.Backend, nil)
	}
	if config.DHCP.DiscoveryTimeout <= 0 {
		return errors.NewValidationError("invalid DHCP discovery timeout", nil)
	}
	if config.DHCP.ArtifactPollInterval <= 0 || config.DHCP.DaemonizePollInterval <= 0 {
		return errors.NewValidationError("invalid polling interval", nil)
	}
	if config.DHCP.ArtifactWaitTimeout < config.DHCP.ArtifactPollInterval {
		return errors.NewValidationError("artifact wait timeout shorter than its polling interval", nil)
	}
	if config.DHCP.DaemonizeWaitTimeout < config.DHCP.DaemonizePollInterval {
		return errors.NewValidationError("daemonize wait timeout shorter than its polling interval", nil)
	}

	// Validate network configuration
	if config.Network.CommandTimeout <= 0 {
		return errors.NewValidationError("invalid command timeout", nil)
	}
	if config.Network.SettleTimeout <= 0 {
		return errors.NewValidationError("invalid settle timeout", nil)
	}

	return nil
}

// Environment variable helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
