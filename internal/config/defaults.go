package config

// Default configuration values for debtune.
const (
	// DefaultBackupDir holds every backup file, flat, never cleaned up.
	DefaultBackupDir = "/opt/debian_optim_backup"

	DefaultGrubPath          = "/etc/default/grub"
	DefaultSwappinessPath    = "/etc/sysctl.d/99-swappiness.conf"
	DefaultWifiPowerSavePath = "/etc/NetworkManager/conf.d/default-wifi-powersave-on.conf"

	DefaultShell = "/bin/sh"

	DefaultPreloadPackage      = "preload"
	DefaultCPUFreqPackage      = "cpufrequtils"
	DefaultCPUGovernor         = "performance"
	DefaultWifiFirmwarePackage = "firmware-iwlwifi"
	DefaultWifiModule          = "iwlwifi"
	DefaultNetworkService      = "NetworkManager"

	DefaultLogLevel = "info"

	// SystemConfigDir is searched before the per-user XDG config directory.
	SystemConfigDir = "/etc/debtune"

	appName = "debtune"
)

// Logical target names, in the order every bulk operation visits them.
const (
	TargetGrub          = "grub"
	TargetSwappiness    = "swappiness"
	TargetWifiPowerSave = "wifi_powersave"
)

// DefaultFirmwarePackages are installed by the last optimize step.
var DefaultFirmwarePackages = []string{
	"firmware-linux-nonfree",
	"firmware-misc-nonfree",
}

// DefaultGPUPackages are installed after the firmware packages.
var DefaultGPUPackages = []string{
	"xserver-xorg-video-intel",
}
