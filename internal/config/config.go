// Package config loads debtune settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Target is a managed configuration file with its logical name.
type Target struct {
	Name string
	Path string
}

// Targets maps the three logical targets to filesystem paths.
type Targets struct {
	Grub          string `mapstructure:"grub" yaml:"grub"`
	Swappiness    string `mapstructure:"swappiness" yaml:"swappiness"`
	WifiPowerSave string `mapstructure:"wifi_powersave" yaml:"wifi_powersave"`
}

// All returns the targets in their fixed order: grub, swappiness, Wi-Fi.
func (t Targets) All() []Target {
	return []Target{
		{Name: TargetGrub, Path: t.Grub},
		{Name: TargetSwappiness, Path: t.Swappiness},
		{Name: TargetWifiPowerSave, Path: t.WifiPowerSave},
	}
}

// OptimizeConfig names the packages, module and services the optimize
// sequence touches.
type OptimizeConfig struct {
	PreloadPackage      string   `mapstructure:"preload_package" yaml:"preload_package"`
	CPUFreqPackage      string   `mapstructure:"cpufreq_package" yaml:"cpufreq_package"`
	CPUGovernor         string   `mapstructure:"cpu_governor" yaml:"cpu_governor"`
	WifiFirmwarePackage string   `mapstructure:"wifi_firmware_package" yaml:"wifi_firmware_package"`
	WifiModule          string   `mapstructure:"wifi_module" yaml:"wifi_module"`
	NetworkService      string   `mapstructure:"network_service" yaml:"network_service"`
	FirmwarePackages    []string `mapstructure:"firmware_packages" yaml:"firmware_packages"`
	GPUPackages         []string `mapstructure:"gpu_packages" yaml:"gpu_packages"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
}

// Config represents the application configuration.
type Config struct {
	BackupDir     string         `mapstructure:"backup_dir" yaml:"backup_dir"`
	DBPath        string         `mapstructure:"db_path" yaml:"db_path"`
	Shell         string         `mapstructure:"shell" yaml:"shell"`
	AtomicWrites  bool           `mapstructure:"atomic_writes" yaml:"atomic_writes"`
	RequireBackup bool           `mapstructure:"require_backup" yaml:"require_backup"`
	Targets       Targets        `mapstructure:"targets" yaml:"targets"`
	Optimize      OptimizeConfig `mapstructure:"optimize" yaml:"optimize"`
	Logging       LoggingConfig  `mapstructure:"logging" yaml:"logging"`

	// File is the config file that was read, empty when defaults were used.
	File string `mapstructure:"-" yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BackupDir: DefaultBackupDir,
		DBPath:    DefaultDBPath(),
		Shell:     DefaultShell,
		Targets: Targets{
			Grub:          DefaultGrubPath,
			Swappiness:    DefaultSwappinessPath,
			WifiPowerSave: DefaultWifiPowerSavePath,
		},
		Optimize: OptimizeConfig{
			PreloadPackage:      DefaultPreloadPackage,
			CPUFreqPackage:      DefaultCPUFreqPackage,
			CPUGovernor:         DefaultCPUGovernor,
			WifiFirmwarePackage: DefaultWifiFirmwarePackage,
			WifiModule:          DefaultWifiModule,
			NetworkService:      DefaultNetworkService,
			FirmwarePackages:    append([]string(nil), DefaultFirmwarePackages...),
			GPUPackages:         append([]string(nil), DefaultGPUPackages...),
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}

// StateDir returns the per-user state directory holding the ledger and the
// watch daemon's PID and log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// DefaultDBPath returns the ledger location under the XDG state directory.
func DefaultDBPath() string {
	return filepath.Join(StateDir(), "history.db")
}

// Dir returns the per-user config directory, respecting XDG_CONFIG_HOME.
func Dir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appName)
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// Load reads configuration. When file is empty the search order is
// /etc/debtune/config.yaml then $XDG_CONFIG_HOME/debtune/config.yaml; a
// missing file is not an error. Environment variables use the DEBTUNE_
// prefix (e.g. DEBTUNE_BACKUP_DIR, DEBTUNE_TARGETS_GRUB).
func Load(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(SystemConfigDir)
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix("DEBTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backup_dir", d.BackupDir)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("shell", d.Shell)
	v.SetDefault("atomic_writes", d.AtomicWrites)
	v.SetDefault("require_backup", d.RequireBackup)

	v.SetDefault("targets.grub", d.Targets.Grub)
	v.SetDefault("targets.swappiness", d.Targets.Swappiness)
	v.SetDefault("targets.wifi_powersave", d.Targets.WifiPowerSave)

	v.SetDefault("optimize.preload_package", d.Optimize.PreloadPackage)
	v.SetDefault("optimize.cpufreq_package", d.Optimize.CPUFreqPackage)
	v.SetDefault("optimize.cpu_governor", d.Optimize.CPUGovernor)
	v.SetDefault("optimize.wifi_firmware_package", d.Optimize.WifiFirmwarePackage)
	v.SetDefault("optimize.wifi_module", d.Optimize.WifiModule)
	v.SetDefault("optimize.network_service", d.Optimize.NetworkService)
	v.SetDefault("optimize.firmware_packages", d.Optimize.FirmwarePackages)
	v.SetDefault("optimize.gpu_packages", d.Optimize.GPUPackages)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.path", d.Logging.Path)
}

// Validate checks that every path debtune writes to is absolute.
func (c *Config) Validate() error {
	if c.BackupDir == "" {
		return errors.New("backup_dir must not be empty")
	}
	for _, t := range c.Targets.All() {
		if t.Path == "" {
			return fmt.Errorf("targets.%s must not be empty", t.Name)
		}
		if !filepath.IsAbs(t.Path) {
			return fmt.Errorf("targets.%s must be an absolute path, got %q", t.Name, t.Path)
		}
	}
	return nil
}

// YAML renders the configuration as a config.yaml document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path unless a file
// already exists there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Default().YAML()
	if err != nil {
		return false, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
