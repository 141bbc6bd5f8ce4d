package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/archon/alfredd/internal/services"
	"github.com/archon/alfredd/pkg/client"
)

var (
	colorGreen  = lipgloss.Color("10")
	colorRed    = lipgloss.Color("9")
	colorYellow = lipgloss.Color("11")
	colorGray   = lipgloss.Color("8")
	colorCyan   = lipgloss.Color("14")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorGray)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// serviceRow is the display form of a status entry, independent of whether
// it came from the API or the in-process aggregator.
type serviceRow struct {
	Name    string
	Running bool
	Port    string
	Health  string
	Details string
}

func rowFromClient(s client.ServiceStatus) serviceRow {
	r := serviceRow{Name: s.Name, Running: s.Running, Health: s.Health, Port: "-"}
	if s.Port != nil {
		r.Port = strconv.Itoa(*s.Port)
	}
	if s.Details != nil {
		r.Details = *s.Details
	}
	return r
}

func fromReport(report services.StatusReport) []serviceRow {
	rows := make([]serviceRow, 0, len(report))
	for _, s := range report {
		r := serviceRow{Name: s.Name, Running: s.Running, Health: string(s.Health), Port: "-"}
		if s.Port != nil {
			r.Port = strconv.Itoa(*s.Port)
		}
		if s.Details != nil {
			r.Details = *s.Details
		}
		rows = append(rows, r)
	}
	return rows
}

func healthStyle(h string) lipgloss.Style {
	switch services.Health(h) {
	case services.HealthHealthy, services.HealthAvailable:
		return okStyle
	case services.HealthStarting:
		return warnStyle
	case services.HealthError:
		return errorStyle
	default:
		return mutedStyle
	}
}

// renderServices lays rows out as an aligned table.
func renderServices(rows []serviceRow) string {
	headers := []string{"SERVICE", "RUNNING", "PORT", "HEALTH", "DETAILS"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		running := "no"
		if r.Running {
			running = "yes"
		}
		cells = append(cells, []string{r.Name, running, r.Port, r.Health, r.Details})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var b strings.Builder
	line := func(cols []string, style func(int, string) lipgloss.Style) {
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = style(i, c).Inherit(cellStyle).Width(widths[i] + 2).Render(c)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " "))
		b.WriteByte('\n')
	}
	line(headers, func(int, string) lipgloss.Style { return headerStyle })
	for _, row := range cells {
		line(row, func(i int, c string) lipgloss.Style {
			if i == 3 {
				return healthStyle(c)
			}
			return lipgloss.NewStyle()
		})
	}
	return b.String()
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
