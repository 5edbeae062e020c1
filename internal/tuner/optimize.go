package tuner

import (
	"time"

	"github.com/blackwell-systems/debtune/internal/editors"
	"github.com/blackwell-systems/debtune/internal/store"
	"github.com/blackwell-systems/debtune/internal/system"
)

// Optimize step names, in execution order.
const (
	StepSystemUpdate   = "system-update"
	StepPreload        = "preload"
	StepCPUGovernor    = "cpu-governor"
	StepWifiDriver     = "wifi-driver"
	StepWifiPowerSave  = "wifi-powersave"
	StepNetworkRestart = "network-restart"
	StepSwappiness     = "swappiness"
	StepGrub           = "grub"
	StepFirmware       = "firmware"
)

// Step is the outcome of one optimize step.
type Step struct {
	Name   string
	Status string // store.StepOK, store.StepFailed or store.StepSkipped
	Detail string
}

// Report summarises an optimize run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []Step
	Rebooted   bool
}

// Failed returns the steps that did not succeed.
func (r *Report) Failed() []Step {
	var failed []Step
	for _, s := range r.Steps {
		if s.Status == store.StepFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// Optimize runs every tuning step in a fixed order, then asks whether to
// reboot. Steps are best effort: a failure is recorded and the sequence
// continues.
func (t *Tuner) Optimize(confirm Confirmer) *Report {
	report := &Report{RunID: t.newID(), StartedAt: t.now()}
	t.startRun(report, ActionOptimize)

	opt := t.cfg.Optimize
	targets := t.cfg.Targets

	t.logger.Info("Updating the system...")
	t.record(report, t.commandStep(StepSystemUpdate, system.AptUpdateUpgrade()))

	t.logger.Info("Installing Preload...")
	t.record(report, t.commandStep(StepPreload, system.AptInstall(opt.PreloadPackage)))

	t.logger.Info("Configuring CPU governor...")
	t.record(report, t.cpuGovernorStep())

	t.logger.Info("Ensuring correct Wi-Fi driver is used...")
	t.record(report, t.commandStep(StepWifiDriver,
		system.AptInstall(opt.WifiFirmwarePackage),
		system.ReloadModule(opt.WifiModule),
	))

	t.logger.Info("Disabling Wi-Fi power management...")
	t.record(report, editStep(StepWifiPowerSave, t.editor.DisableWifiPowerSave(targets.WifiPowerSave)))

	t.logger.Infof("Restarting %s...", opt.NetworkService)
	t.record(report, t.commandStep(StepNetworkRestart, system.RestartService(opt.NetworkService)))

	t.record(report, editStep(StepSwappiness, t.editor.ConfigureSwappiness(targets.Swappiness)))

	t.record(report, editStep(StepGrub, t.editor.ConfigureGrub(targets.Grub)))

	t.record(report, t.firmwareStep())

	report.Rebooted = confirm.Confirm(RebootPrompt)
	report.FinishedAt = t.now()
	// Finish the run before rebooting; the process may not outlive the
	// reboot command.
	t.finishRun(report)

	if report.Rebooted {
		t.runner.Run(system.Reboot())
	} else {
		t.logger.Info("Reboot skipped. Please reboot manually to apply changes.")
	}

	return report
}

// commandStep runs every command, even after a failure, and fails the step
// if any of them failed.
func (t *Tuner) commandStep(name string, commands ...string) Step {
	step := Step{Name: name, Status: store.StepOK}
	for _, cmd := range commands {
		if !t.runner.Run(cmd) {
			step.Status = store.StepFailed
			step.Detail = appendDetail(step.Detail, cmd)
		}
	}
	return step
}

func (t *Tuner) cpuGovernorStep() Step {
	opt := t.cfg.Optimize
	install := system.AptInstall(opt.CPUFreqPackage)

	if !t.runner.Run(install) {
		t.logger.Warn("Skipping CPU governor configuration due to failed installation.")
		return Step{Name: StepCPUGovernor, Status: store.StepSkipped, Detail: install}
	}

	return t.commandStep(StepCPUGovernor, system.SetCPUGovernor(opt.CPUGovernor))
}

func (t *Tuner) firmwareStep() Step {
	opt := t.cfg.Optimize
	step := Step{Name: StepFirmware, Status: store.StepOK}

	if len(opt.FirmwarePackages) > 0 {
		t.logger.Info("Checking for and installing the latest firmware...")
		cmd := system.AptUpdateInstall(opt.FirmwarePackages...)
		if !t.runner.Run(cmd) {
			step.Status = store.StepFailed
			step.Detail = appendDetail(step.Detail, cmd)
		}
	}

	if len(opt.GPUPackages) > 0 {
		t.logger.Info("Checking for and installing the latest GPU drivers...")
		cmd := system.AptInstall(opt.GPUPackages...)
		if !t.runner.Run(cmd) {
			step.Status = store.StepFailed
			step.Detail = appendDetail(step.Detail, cmd)
		}
	}

	return step
}

// editStep maps an editor result onto a step. An edit whose activation
// command failed counts as failed.
func editStep(name string, res editors.Result) Step {
	step := Step{Name: name, Status: store.StepOK}
	switch {
	case res.Err != nil:
		step.Status = store.StepFailed
		step.Detail = res.Err.Error()
	case !res.Written:
		step.Status = store.StepFailed
	case name != StepWifiPowerSave && !res.Activated:
		step.Status = store.StepFailed
		step.Detail = "activation command failed"
	}
	return step
}

func appendDetail(detail, cmd string) string {
	if detail == "" {
		return cmd
	}
	return detail + "; " + cmd
}

func (t *Tuner) record(report *Report, step Step) {
	report.Steps = append(report.Steps, step)

	if step.Status == store.StepFailed {
		t.logger.Debug("step failed", "step", step.Name, "detail", step.Detail)
	}

	if t.store == nil {
		return
	}
	if err := t.store.InsertRunStep(&store.RunStep{
		RunID:  report.RunID,
		Seq:    len(report.Steps),
		Name:   step.Name,
		Status: step.Status,
		Detail: step.Detail,
	}); err != nil {
		t.logger.Warn("failed to record step in history", "step", step.Name, "error", err)
	}
}

func (t *Tuner) startRun(report *Report, action string) {
	if t.store == nil {
		return
	}
	if err := t.store.InsertRun(&store.Run{
		ID:        report.RunID,
		Action:    action,
		StartedAt: report.StartedAt,
	}); err != nil {
		t.logger.Warn("failed to record run in history", "error", err)
	}
}

func (t *Tuner) finishRun(report *Report) {
	if t.store == nil {
		return
	}
	if err := t.store.FinishRun(report.RunID, report.FinishedAt, report.Rebooted); err != nil {
		t.logger.Warn("failed to finish run in history", "error", err)
	}
}
