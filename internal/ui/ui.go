package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harshul/phpack/internal/analyzer"
	"github.com/harshul/phpack/internal/doctor"
)

var (
	subtle     = lipgloss.AdaptiveColor{Light: "#666", Dark: "#999"}
	highlight  = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"}
	success    = lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#00FF00"}
	warning    = lipgloss.AdaptiveColor{Light: "#AAAA00", Dark: "#FFFF00"}
	errorColor = lipgloss.AdaptiveColor{Light: "#AA0000", Dark: "#FF0000"}
	info       = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#00AAFF"}

	successStyle = lipgloss.NewStyle().Foreground(success)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(info)
	labelStyle   = lipgloss.NewStyle().Foreground(subtle).Width(14)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	dimStyle     = lipgloss.NewStyle().Foreground(subtle)
)

// Out is where the status helpers write.
var Out io.Writer = os.Stdout

func Success(msg string) {
	fmt.Fprintln(Out, successStyle.Render("✅ "+msg))
}

func Info(msg string) {
	fmt.Fprintln(Out, infoStyle.Render("ℹ️  "+msg))
}

func Warn(msg string) {
	fmt.Fprintln(Out, warnStyle.Render("⚠️  "+msg))
}

func Error(msg string) {
	fmt.Fprintln(Out, errorStyle.Render("❌ "+msg))
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

// RenderProject formats an imported project record.
func RenderProject(rec analyzer.ProjectRecord) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🐘 "+rec.Name) + "\n")
	field(&b, "id", rec.ID)
	field(&b, "path", rec.Path)
	field(&b, "framework", string(rec.Framework))
	field(&b, "entry file", rec.EntryFile)
	field(&b, "created", rec.CreatedAt.Format("2006-01-02 15:04:05Z07:00"))
	return b.String()
}

// RenderProjects formats a compact listing of stored records.
func RenderProjects(recs []analyzer.ProjectRecord) string {
	if len(recs) == 0 {
		return dimStyle.Render("no projects imported") + "\n"
	}
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "%s  %-12s %s %s\n",
			r.ID, string(r.Framework), titleStyle.Render(r.Name), dimStyle.Render(r.Path))
	}
	return b.String()
}

func mark(ok bool) string {
	if ok {
		return successStyle.Render("✓")
	}
	return errorStyle.Render("✗")
}

// RenderDiagnosis formats a doctor report.
func RenderDiagnosis(d doctor.Diagnosis) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🩺 phpack doctor") + "\n")

	php := d.Runtime.Version
	if php == "" {
		php = "not found"
	}
	field(&b, "php", mark(d.Runtime.Installed)+" "+php)
	if d.Runtime.Path != "" {
		field(&b, "", dimStyle.Render(d.Runtime.Path))
	}

	composer := d.Dependencies.ManagerVersion
	if composer == "" {
		composer = "not found"
	}
	field(&b, "composer", mark(d.Dependencies.ManagerInstalled)+" "+composer)

	if d.ProjectPath != "" {
		field(&b, "project", d.ProjectPath)
		if d.Framework != "" {
			field(&b, "framework", string(d.Framework))
			field(&b, "entry file", d.EntryFile)
		}
		if d.Dependencies.ConfigFile != "" {
			field(&b, "vendor", mark(d.Dependencies.Installed)+" "+fmt.Sprintf("%d packages required", len(d.Dependencies.Packages)))
		}
		if d.Env.HasExample {
			field(&b, ".env", mark(len(d.Env.Missing) == 0)+" "+fmt.Sprintf("%d keys defined", len(d.Env.Defined)))
		}
	}

	b.WriteString("\n")
	if d.Healthy {
		b.WriteString(successStyle.Render("✅ everything looks good") + "\n")
		return b.String()
	}
	for _, issue := range d.Issues {
		b.WriteString(warnStyle.Render("• "+issue) + "\n")
	}
	if d.Dependencies.FixCommand != "" {
		b.WriteString(dimStyle.Render("fix: "+d.Dependencies.FixCommand) + "\n")
	}
	return b.String()
}
