package system

import (
	"os"
	"os/exec"
)

// Tool is an external binary the optimize sequence depends on.
type Tool struct {
	Name    string
	Purpose string
}

// RequiredTools lists every binary the optimize sequence invokes.
var RequiredTools = []Tool{
	{Name: "apt", Purpose: "package installs and upgrades"},
	{Name: "modprobe", Purpose: "Wi-Fi driver reload"},
	{Name: "systemctl", Purpose: "network service restart"},
	{Name: "sysctl", Purpose: "swappiness activation"},
	{Name: "update-grub", Purpose: "GRUB regeneration"},
	{Name: "reboot", Purpose: "optional reboot"},
	{Name: "cpufreq-set", Purpose: "CPU governor (installed by optimize)"},
}

// ToolStatus is the result of probing one tool.
type ToolStatus struct {
	Tool
	Path  string
	Found bool
}

// LookPath is swapped in tests.
var LookPath = exec.LookPath

// ProbeTools reports which required tools are on PATH.
func ProbeTools(tools []Tool) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(tools))
	for _, tool := range tools {
		path, err := LookPath(tool.Name)
		statuses = append(statuses, ToolStatus{
			Tool:  tool,
			Path:  path,
			Found: err == nil,
		})
	}
	return statuses
}

// IsRoot reports whether the process runs with effective uid 0.
func IsRoot() bool {
	return os.Geteuid() == 0
}
