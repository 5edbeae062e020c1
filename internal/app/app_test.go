package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/debtune/internal/system"
)

// testEnv is a sandbox with its own config file, targets, backup directory
// and ledger. The shell is "true", so every command the optimize sequence
// issues succeeds without doing anything.
type testEnv struct {
	root       string
	configPath string
	backupDir  string
	dbPath     string
	grub       string
	swappiness string
	wifi       string
}

const testGrub = "GRUB_DEFAULT=0\nGRUB_CMDLINE_LINUX_DEFAULT=\"quiet splash\"\n"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	root := t.TempDir()
	env := &testEnv{
		root:       root,
		configPath: filepath.Join(root, "config.yaml"),
		backupDir:  filepath.Join(root, "backups"),
		dbPath:     filepath.Join(root, "state", "history.db"),
		grub:       filepath.Join(root, "etc", "default", "grub"),
		swappiness: filepath.Join(root, "etc", "sysctl.d", "99-swappiness.conf"),
		wifi:       filepath.Join(root, "etc", "NetworkManager", "conf.d", "default-wifi-powersave-on.conf"),
	}

	for _, p := range []string{env.grub, env.swappiness, env.wifi} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(env.grub, []byte(testGrub), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := fmt.Sprintf(`backup_dir: %s
db_path: %s
shell: "true"
targets:
  grub: %s
  swappiness: %s
  wifi_powersave: %s
`, env.backupDir, env.dbPath, env.grub, env.swappiness, env.wifi)
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	return env
}

// run executes debtune with args and stdin and returns everything written
// to stdout.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	RootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)

	err := RootCmd.Execute()
	return out.String(), err
}

// resetFlags restores flag variables, which cobra leaves set between
// executions of the same command tree.
func resetFlags() {
	configFile = ""
	logLevel = ""
	restoreFlagList = false
	historyFlagRuns = false
	historyFlagRun = ""
	configInitPath = ""
	watchDaemon = false
	watchDaemonChild = false
	watchPIDFile = ""
	watchLogFile = ""
	watchStop = false
	watchBackupOnChange = false
}

func backupFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "debtune" {
		t.Errorf("expected Use to be 'debtune', got '%s'", RootCmd.Use)
	}
	if RootCmd.Short == "" || RootCmd.Long == "" {
		t.Error("expected Short and Long descriptions to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range RootCmd.Commands() {
		found[cmd.Name()] = true
	}

	for _, expected := range []string{"backup", "restore", "optimize", "history", "watch", "doctor", "config", "version"} {
		if !found[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestMenu_InvalidChoice(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "x\n")
	if err != nil {
		t.Fatalf("invalid choice should not fail: %v", err)
	}
	if !strings.Contains(out, MenuPrompt) {
		t.Errorf("expected menu prompt, got:\n%s", out)
	}
	if !strings.Contains(out, "Invalid choice.") {
		t.Errorf("expected 'Invalid choice.', got:\n%s", out)
	}
	if files := backupFiles(t, env.backupDir); len(files) != 0 {
		t.Errorf("invalid choice created backups: %v", files)
	}
}

func TestMenu_EmptyInputIsInvalid(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Invalid choice.") {
		t.Errorf("expected 'Invalid choice.', got:\n%s", out)
	}
}

func TestMenu_Backup(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "B\n")
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	for _, want := range []string{"Backing up current settings...", "Backup complete.", "No backup needed: " + env.swappiness} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	files := backupFiles(t, env.backupDir)
	if len(files) != 1 || !strings.HasPrefix(files[0], "grub.") || !strings.HasSuffix(files[0], ".bak") {
		t.Errorf("expected one grub backup, got %v", files)
	}
}

func TestMenu_RestoreWithoutBackups(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "r\n")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out, "No backup found for "+env.grub+".") {
		t.Errorf("expected no-backup message, got:\n%s", out)
	}
	if !strings.Contains(out, "Restore complete.") {
		t.Errorf("expected 'Restore complete.', got:\n%s", out)
	}
}

func TestMenu_OptimizeDeclineReboot(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "o\nn\n")
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}

	grub, err := os.ReadFile(env.grub)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(grub), `GRUB_CMDLINE_LINUX_DEFAULT="default"`) {
		t.Errorf("GRUB not edited:\n%s", grub)
	}

	swap, err := os.ReadFile(env.swappiness)
	if err != nil {
		t.Fatal(err)
	}
	if string(swap) != "vm.swappiness=10\n" {
		t.Errorf("swappiness = %q", swap)
	}

	wifi, err := os.ReadFile(env.wifi)
	if err != nil {
		t.Fatal(err)
	}
	if string(wifi) != "[connection]\nwifi.powersave = 2\n" {
		t.Errorf("wifi = %q", wifi)
	}

	if !strings.Contains(out, "Reboot skipped.") {
		t.Errorf("expected reboot to be skipped, got:\n%s", out)
	}
	if !strings.Contains(out, "0 failed") {
		t.Errorf("expected no failed steps, got:\n%s", out)
	}
}

func TestMenu_BackupThenRestore(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "b\n"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.grub, []byte("changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "r\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Restored "+env.grub) {
		t.Errorf("expected restore message, got:\n%s", out)
	}

	data, err := os.ReadFile(env.grub)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != testGrub {
		t.Errorf("grub not restored, got %q", data)
	}
}

func TestRestoreList(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "", "backup"); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "", "restore", "--list")
	if err != nil {
		t.Fatalf("restore --list failed: %v", err)
	}
	if !strings.Contains(out, "(latest)") {
		t.Errorf("expected latest marker, got:\n%s", out)
	}
	if !strings.Contains(out, "No backups found for "+env.wifi) {
		t.Errorf("expected empty wifi listing, got:\n%s", out)
	}

	// Listing must not restore anything.
	if err := os.WriteFile(env.grub, []byte("changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run(t, "", "restore", "--list"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(env.grub)
	if string(data) != "changed\n" {
		t.Error("restore --list modified a target")
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No history recorded yet.") {
		t.Errorf("expected empty history, got:\n%s", out)
	}

	if _, err := env.run(t, "", "backup"); err != nil {
		t.Fatal(err)
	}

	out, err = env.run(t, "", "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Backups") || !strings.Contains(out, "grub") {
		t.Errorf("expected grub backup in history, got:\n%s", out)
	}

	out, err = env.run(t, "", "history", "--runs")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "backup") {
		t.Errorf("expected backup run, got:\n%s", out)
	}
}

func TestHistoryRunNotFound(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "", "backup"); err != nil {
		t.Fatal(err)
	}

	_, err := env.run(t, "", "history", "--run", "zzzzzzzz")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "debtune "+Version {
		t.Errorf("version output = %q", out)
	}
}

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "# loaded from "+env.configPath) {
		t.Errorf("expected source comment, got:\n%s", out)
	}
	if !strings.Contains(out, "backup_dir: "+env.backupDir) {
		t.Errorf("expected backup_dir, got:\n%s", out)
	}
}

func TestConfigInit(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.root, "new", "config.yaml")

	out, err := env.run(t, "", "config", "init", "--path", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out, err = env.run(t, "", "config", "init", "--path", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("expected existing file to be kept, got:\n%s", out)
	}
}

func TestDoctor(t *testing.T) {
	env := newTestEnv(t)

	orig := system.LookPath
	system.LookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	t.Cleanup(func() { system.LookPath = orig })

	out, err := env.run(t, "", "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out)
	}
	for _, want := range []string{"apt found", "grub present", "History ledger accessible"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "swappiness not present yet") {
		t.Errorf("expected missing swappiness drop-in to pass, got:\n%s", out)
	}
}

func TestDoctor_MissingCriticalTool(t *testing.T) {
	env := newTestEnv(t)

	orig := system.LookPath
	system.LookPath = func(name string) (string, error) {
		if name == "apt" {
			return "", os.ErrNotExist
		}
		return "/usr/bin/" + name, nil
	}
	t.Cleanup(func() { system.LookPath = orig })

	out, err := env.run(t, "", "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail without apt")
	}
	if !strings.Contains(out, "apt not found") {
		t.Errorf("expected apt failure, got:\n%s", out)
	}
}
