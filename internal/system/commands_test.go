package system

import (
	"errors"
	"testing"
)

func TestCommandStrings(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"update upgrade", AptUpdateUpgrade(), "apt update && apt upgrade -y"},
		{"install one", AptInstall("preload"), "apt install preload -y"},
		{"install many", AptInstall("firmware-linux-nonfree", "firmware-misc-nonfree"),
			"apt install firmware-linux-nonfree firmware-misc-nonfree -y"},
		{"update install", AptUpdateInstall("firmware-linux-nonfree"),
			"apt update && apt install firmware-linux-nonfree -y"},
		{"module reload", ReloadModule("iwlwifi"), "modprobe -r iwlwifi && modprobe iwlwifi"},
		{"governor", SetCPUGovernor("performance"), "cpufreq-set -r -g performance"},
		{"restart", RestartService("NetworkManager"), "systemctl restart NetworkManager"},
		{"grub", UpdateGrub(), "update-grub"},
		{"sysctl", ReloadSysctl(), "sysctl -p"},
		{"reboot", Reboot(), "reboot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestProbeTools(t *testing.T) {
	orig := LookPath
	defer func() { LookPath = orig }()

	LookPath = func(name string) (string, error) {
		if name == "apt" {
			return "/usr/bin/apt", nil
		}
		return "", errors.New("not found")
	}

	statuses := ProbeTools([]Tool{{Name: "apt"}, {Name: "update-grub"}})
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Found || statuses[0].Path != "/usr/bin/apt" {
		t.Errorf("apt status = %+v, want found at /usr/bin/apt", statuses[0])
	}
	if statuses[1].Found {
		t.Errorf("update-grub should not be found: %+v", statuses[1])
	}
}
