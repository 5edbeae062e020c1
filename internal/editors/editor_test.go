package editors

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/debtune/internal/backup"
)

// recordingRunner records every command and answers with fixed results.
type recordingRunner struct {
	commands []string
	fail     map[string]bool
}

func (r *recordingRunner) Run(command string) bool {
	r.commands = append(r.commands, command)
	return !r.fail[command]
}

type fixture struct {
	editor    *Editor
	runner    *recordingRunner
	backupDir string
	dir       string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	root := t.TempDir()
	backupDir := filepath.Join(root, "backups")
	r := &recordingRunner{fail: map[string]bool{}}
	return &fixture{
		editor:    New(backup.New(nil, backupDir, nil), r, nil, opts),
		runner:    r,
		backupDir: backupDir,
		dir:       filepath.Join(root, "etc"),
	}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func (f *fixture) backups(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		t.Fatalf("read backup dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestConfigureGrub_EndToEnd(t *testing.T) {
	f := newFixture(t, Options{})
	original := "GRUB_CMDLINE_LINUX_DEFAULT=\"quiet splash\"\n"
	path := f.write(t, "grub", original)

	res := f.editor.ConfigureGrub(path)
	if res.Err != nil {
		t.Fatalf("ConfigureGrub error: %v", res.Err)
	}
	if !res.Written || !res.Activated {
		t.Errorf("Written=%v Activated=%v, want both true", res.Written, res.Activated)
	}

	if got := read(t, path); got != "GRUB_CMDLINE_LINUX_DEFAULT=\"default\"\n" {
		t.Errorf("grub content = %q", got)
	}

	names := f.backups(t)
	if len(names) != 1 || !strings.HasPrefix(names[0], "grub.") || !strings.HasSuffix(names[0], ".bak") {
		t.Fatalf("backups = %v, want one grub.*.bak", names)
	}
	if got := read(t, filepath.Join(f.backupDir, names[0])); got != original {
		t.Errorf("backup content = %q, want pre-edit content", got)
	}

	if len(f.runner.commands) != 1 || f.runner.commands[0] != "update-grub" {
		t.Errorf("commands = %v, want [update-grub]", f.runner.commands)
	}
}

func TestConfigureGrub_ReplacesEveryOccurrence(t *testing.T) {
	f := newFixture(t, Options{})
	content := "# quiet splash\nGRUB_DEFAULT=0\nGRUB_CMDLINE_LINUX_DEFAULT=\"quiet splash resume=UUID=abc\"\nX=\"quiet splash\"\n"
	path := f.write(t, "grub", content)

	f.editor.ConfigureGrub(path)

	want := strings.ReplaceAll(content, "quiet splash", "default")
	if got := read(t, path); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestConfigureGrub_NoMatchLeavesContent(t *testing.T) {
	f := newFixture(t, Options{})
	content := "GRUB_TIMEOUT=5\nGRUB_CMDLINE_LINUX_DEFAULT=\"quiet\"\n"
	path := f.write(t, "grub", content)

	res := f.editor.ConfigureGrub(path)
	if res.Err != nil {
		t.Fatalf("error: %v", res.Err)
	}
	if got := read(t, path); got != content {
		t.Errorf("content changed: %q", got)
	}
}

func TestConfigureGrub_MissingFile(t *testing.T) {
	f := newFixture(t, Options{})
	path := filepath.Join(f.dir, "grub")

	res := f.editor.ConfigureGrub(path)
	if res.Err == nil {
		t.Fatal("expected an error for a missing GRUB file")
	}
	if res.Written || res.Activated {
		t.Errorf("Written=%v Activated=%v, want both false", res.Written, res.Activated)
	}
	if res.Backup.Outcome != backup.NotFound {
		t.Errorf("backup outcome = %v, want not-found", res.Backup.Outcome)
	}
	if len(f.runner.commands) != 0 {
		t.Errorf("update-grub must not run, got %v", f.runner.commands)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("GRUB file must not be created")
	}
}

func TestConfigureGrub_ActivationFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.runner.fail["update-grub"] = true
	path := f.write(t, "grub", "quiet splash")

	res := f.editor.ConfigureGrub(path)
	if !res.Written {
		t.Error("file should still be written")
	}
	if res.Activated {
		t.Error("Activated should be false when update-grub fails")
	}
}

func TestConfigureSwappiness(t *testing.T) {
	f := newFixture(t, Options{})
	path := f.write(t, "sysctl.d/99-swappiness.conf", "vm.swappiness=60\nvm.other=1\n")

	res := f.editor.ConfigureSwappiness(path)
	if res.Err != nil {
		t.Fatalf("error: %v", res.Err)
	}
	if got := read(t, path); got != "vm.swappiness=10\n" {
		t.Errorf("content = %q, want exactly vm.swappiness=10\\n", got)
	}
	if res.Backup.Outcome != backup.OK {
		t.Errorf("backup outcome = %v, want ok", res.Backup.Outcome)
	}
	if len(f.runner.commands) != 1 || f.runner.commands[0] != "sysctl -p" {
		t.Errorf("commands = %v, want [sysctl -p]", f.runner.commands)
	}
}

func TestConfigureSwappiness_CreatesFile(t *testing.T) {
	f := newFixture(t, Options{})
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(f.dir, "99-swappiness.conf")

	res := f.editor.ConfigureSwappiness(path)
	if res.Err != nil {
		t.Fatalf("error: %v", res.Err)
	}
	if res.Backup.Outcome != backup.NotFound {
		t.Errorf("backup outcome = %v, want not-found", res.Backup.Outcome)
	}
	if len(f.backups(t)) != 0 {
		t.Error("no backup should be written for a missing file")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %o, want 644", info.Mode().Perm())
	}
}

func TestConfigureSwappiness_MissingParentDir(t *testing.T) {
	f := newFixture(t, Options{})
	path := filepath.Join(f.dir, "no-such-dir", "99-swappiness.conf")

	res := f.editor.ConfigureSwappiness(path)
	if res.Err == nil {
		t.Fatal("expected write error")
	}
	if len(f.runner.commands) != 0 {
		t.Errorf("sysctl must not run after a failed write, got %v", f.runner.commands)
	}
}

func TestDisableWifiPowerSave(t *testing.T) {
	f := newFixture(t, Options{})
	path := f.write(t, "conf.d/default-wifi-powersave-on.conf", "[connection]\nwifi.powersave = 3\n")

	res := f.editor.DisableWifiPowerSave(path)
	if res.Err != nil {
		t.Fatalf("error: %v", res.Err)
	}
	if got := read(t, path); got != "[connection]\nwifi.powersave = 2\n" {
		t.Errorf("content = %q", got)
	}
	if res.Activated {
		t.Error("Wi-Fi editor runs no activation command")
	}
	if len(f.runner.commands) != 0 {
		t.Errorf("commands = %v, want none", f.runner.commands)
	}
}

func TestAtomicWrites(t *testing.T) {
	f := newFixture(t, Options{AtomicWrites: true})
	path := f.write(t, "99-swappiness.conf", "vm.swappiness=60\n")
	if err := os.Chmod(path, 0600); err != nil {
		t.Fatal(err)
	}

	res := f.editor.ConfigureSwappiness(path)
	if res.Err != nil {
		t.Fatalf("error: %v", res.Err)
	}
	if got := read(t, path); got != SwappinessContent {
		t.Errorf("content = %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 600 preserved", info.Mode().Perm())
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

// breakBackupDir puts a regular file where the backup directory should be so
// every backup fails.
func breakBackupDir(t *testing.T, f *fixture) {
	t.Helper()
	if err := os.WriteFile(f.backupDir, []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRequireBackup_AbortsOnFailedBackup(t *testing.T) {
	f := newFixture(t, Options{RequireBackup: true})
	breakBackupDir(t, f)
	path := f.write(t, "grub", "quiet splash")

	res := f.editor.ConfigureGrub(path)
	if !errors.Is(res.Err, ErrBackupRequired) {
		t.Fatalf("Err = %v, want ErrBackupRequired", res.Err)
	}
	if res.Written {
		t.Error("file must not be written")
	}
	if got := read(t, path); got != "quiet splash" {
		t.Errorf("content changed: %q", got)
	}
	if len(f.runner.commands) != 0 {
		t.Errorf("commands = %v, want none", f.runner.commands)
	}
}

func TestRequireBackup_MissingTargetStillWrites(t *testing.T) {
	f := newFixture(t, Options{RequireBackup: true})
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(f.dir, "default-wifi-powersave-on.conf")

	res := f.editor.DisableWifiPowerSave(path)
	if res.Err != nil {
		t.Fatalf("error: %v", res.Err)
	}
	if !res.Written {
		t.Error("missing target has nothing to back up and should be written")
	}
}

func TestFailedBackupProceedsByDefault(t *testing.T) {
	f := newFixture(t, Options{})
	breakBackupDir(t, f)
	path := f.write(t, "grub", "quiet splash")

	res := f.editor.ConfigureGrub(path)
	if res.Backup.Outcome != backup.Failed {
		t.Fatalf("backup outcome = %v, want failed", res.Backup.Outcome)
	}
	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}
	if got := read(t, path); got != "default" {
		t.Errorf("content = %q, want default", got)
	}
}
