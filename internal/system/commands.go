// Package system knows the Debian command lines debtune shells out to.
package system

import (
	"fmt"
	"strings"
)

// AptUpdateUpgrade refreshes the package index and upgrades everything.
func AptUpdateUpgrade() string {
	return "apt update && apt upgrade -y"
}

// AptInstall installs packages non-interactively.
func AptInstall(packages ...string) string {
	return fmt.Sprintf("apt install %s -y", strings.Join(packages, " "))
}

// AptUpdateInstall refreshes the package index before installing.
func AptUpdateInstall(packages ...string) string {
	return "apt update && " + AptInstall(packages...)
}

// ReloadModule unloads and reloads a kernel module.
func ReloadModule(module string) string {
	return fmt.Sprintf("modprobe -r %s && modprobe %s", module, module)
}

// SetCPUGovernor applies governor to all related CPUs.
func SetCPUGovernor(governor string) string {
	return fmt.Sprintf("cpufreq-set -r -g %s", governor)
}

// RestartService restarts a systemd unit.
func RestartService(service string) string {
	return fmt.Sprintf("systemctl restart %s", service)
}

// UpdateGrub regenerates the GRUB configuration.
func UpdateGrub() string {
	return "update-grub"
}

// ReloadSysctl reloads kernel parameters.
//
// Plain "sysctl -p" reads /etc/sysctl.conf only; drop-ins under
// /etc/sysctl.d are picked up on the next boot.
func ReloadSysctl() string {
	return "sysctl -p"
}

// Reboot restarts the machine.
func Reboot() string {
	return "reboot"
}
