package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/harshul/phpack/internal/devserver"
)

// ServerTable renders running servers with a live resource sample per pid.
func ServerTable(handles []devserver.Handle) string {
	return renderServers(handles, GetProcessStats)
}

func renderServers(handles []devserver.Handle, sample func(pid int) ProcessStats) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(subtle)).
		Headers("PORT", "PID", "URL", "ROOT", "CPU", "MEM").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, h := range handles {
		stats := sample(h.PID)
		cpu, mem := "-", "-"
		if stats.Alive {
			cpu = fmt.Sprintf("%.1f%%", stats.CPUPercent)
			mem = FormatBytes(stats.RSS)
		}
		t.Row(strconv.Itoa(int(h.Port)), strconv.Itoa(h.PID), h.URL, h.ProjectPath, cpu, mem)
	}
	return t.Render()
}
