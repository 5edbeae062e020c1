// Package output renders debtune's history, backup lists and run reports for
// the terminal.
//
// Tables are plain fixed-width text. Status words are coloured with lipgloss
// styles when stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/debtune/internal/backup"
	"github.com/blackwell-systems/debtune/internal/store"
	"github.com/blackwell-systems/debtune/internal/tuner"
)

// IsColorEnabled returns true if colour should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Colorize renders text with style if colour is enabled, otherwise returns
// the plain text.
func Colorize(style lipgloss.Style, text string) string {
	if IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// padded left-aligns text in width columns before colouring it, so ANSI
// sequences do not upset the column layout.
func padded(style lipgloss.Style, text string, width int) string {
	return Colorize(style, fmt.Sprintf("%-*s", width, text))
}

func header(format string, args ...any) string {
	return Colorize(HeaderStyle, fmt.Sprintf(format, args...)) + "\n"
}

func rule(width int) string {
	return strings.Repeat("─", width) + "\n"
}

// RenderRecordTable renders the backups available for one target, newest
// first, as returned by backup.Manager.List.
func RenderRecordTable(target string, records []backup.Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("No backups found for %s.\n", target)
	}

	var sb strings.Builder

	sb.WriteString(Colorize(TitleStyle, target) + "\n")
	sb.WriteString(header("  %-19s %-16s %s", "Taken", "Age", "File"))
	sb.WriteString("  " + rule(76))

	for i, rec := range records {
		taken := "unknown"
		if !rec.Timestamp.IsZero() {
			taken = rec.Timestamp.Format("2006-01-02 15:04:05")
		}
		line := fmt.Sprintf("  %-19s %-16s %s", taken, formatRelativeTime(rec.Timestamp), rec.Stored)
		if i == 0 {
			line += Colorize(SuccessStyle, " (latest)")
		}
		sb.WriteString(line + "\n")
	}

	return sb.String()
}

// RenderBackupTable renders ledger backup rows.
func RenderBackupTable(backups []*store.Backup) string {
	if len(backups) == 0 {
		return "No backups recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(header("%-5s %-16s %-9s %-40s %s", "ID", "Created", "Size", "File", "Backup"))
	sb.WriteString(rule(100))

	for _, b := range backups {
		sb.WriteString(fmt.Sprintf("%-5d %-16s %-9s %-40s %s\n",
			b.ID,
			formatRelativeTime(b.CreatedAt),
			formatSize(b.SizeBytes),
			truncate(b.OriginalPath, 40),
			b.StoredPath))
	}

	return sb.String()
}

// RenderRestoreTable renders ledger restore rows.
func RenderRestoreTable(restores []*store.Restore) string {
	if len(restores) == 0 {
		return "No restores recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(header("%-5s %-16s %-40s %s", "ID", "Restored", "File", "From"))
	sb.WriteString(rule(100))

	for _, r := range restores {
		sb.WriteString(fmt.Sprintf("%-5d %-16s %-40s %s\n",
			r.ID,
			formatRelativeTime(r.RestoredAt),
			truncate(r.OriginalPath, 40),
			r.SourcePath))
	}

	return sb.String()
}

// RenderRunTable renders ledger runs, newest first as stored.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(header("%-10s %-9s %-16s %-10s %s", "Run", "Action", "Started", "Duration", "Rebooted"))
	sb.WriteString(rule(60))

	for _, run := range runs {
		duration := Colorize(WarningStyle, "unfinished")
		if !run.FinishedAt.IsZero() {
			duration = formatDuration(run.FinishedAt.Sub(run.StartedAt))
		}
		rebooted := "no"
		if run.Rebooted {
			rebooted = "yes"
		}

		sb.WriteString(fmt.Sprintf("%-10s %-9s %-16s %-10s %s\n",
			ShortID(run.ID),
			run.Action,
			formatRelativeTime(run.StartedAt),
			duration,
			rebooted))
	}

	return sb.String()
}

// RenderStepTable renders the steps of one run in execution order.
func RenderStepTable(steps []*store.RunStep) string {
	if len(steps) == 0 {
		return "No steps recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(header("%-3s %-16s %-8s %s", "#", "Step", "Status", "Detail"))
	sb.WriteString(rule(80))

	for _, step := range steps {
		sb.WriteString(fmt.Sprintf("%-3d %-16s %s %s\n",
			step.Seq,
			step.Name,
			padded(statusStyle(step.Status), step.Status, 8),
			step.Detail))
	}

	return sb.String()
}

// RenderReport renders a one-line summary of an optimize run followed by
// any failed steps.
func RenderReport(r *tuner.Report) string {
	var ok, failed, skipped int
	for _, s := range r.Steps {
		switch s.Status {
		case store.StepOK:
			ok++
		case store.StepFailed:
			failed++
		case store.StepSkipped:
			skipped++
		}
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run %s: %s, %s, %s\n",
		ShortID(r.RunID),
		Colorize(SuccessStyle, fmt.Sprintf("%d ok", ok)),
		Colorize(ErrorStyle, fmt.Sprintf("%d failed", failed)),
		Colorize(MutedStyle, fmt.Sprintf("%d skipped", skipped))))

	for _, s := range r.Failed() {
		sb.WriteString(fmt.Sprintf("  %s %s: %s\n", Colorize(ErrorStyle, "✗"), s.Name, s.Detail))
	}

	return sb.String()
}

// RenderResults renders one line per backup or restore result.
func RenderResults(results []backup.Result) string {
	var sb strings.Builder
	for _, res := range results {
		mark := Colorize(SuccessStyle, "✓")
		switch res.Outcome {
		case backup.NotFound:
			mark = Colorize(MutedStyle, "-")
		case backup.Failed:
			mark = Colorize(ErrorStyle, "✗")
		}

		line := fmt.Sprintf("  %s %s", mark, res.Record.Original)
		if res.Outcome == backup.OK && res.Record.Stored != "" {
			line += Colorize(MutedStyle, " → "+res.Record.Stored)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// ShortID returns the first eight characters of a run id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case store.StepOK:
		return SuccessStyle
	case store.StepFailed:
		return ErrorStyle
	default:
		return MutedStyle
	}
}

// formatSize converts bytes to a human-readable size.
func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	return d.Round(time.Second).String()
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
