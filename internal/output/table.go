package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/internal/srvcheck"
)

// WriteLookupTable renders resolved (port, protocol) queries.
func WriteLookupTable(w io.Writer, entries []lookup.Entry, noColor bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No ports queried.")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(int(e.Port)),
			string(e.Protocol),
			e.Service,
		})
	}
	renderTable(w, []string{"Port", "Protocol", "Service"}, rows, noColor)
}

// WriteSRVTable renders SRV audit findings.
func WriteSRVTable(w io.Writer, result *srvcheck.Result, noColor bool) {
	if len(result.Findings) == 0 {
		fmt.Fprintf(w, "\nNo SRV records found for %s.\n", result.Domain)
		return
	}

	rows := make([][]string, 0, len(result.Findings))
	for _, f := range result.Findings {
		status := string(f.Status)
		if f.Status == srvcheck.Mismatch {
			status += " (" + f.RegistryService + ")"
		}
		rows = append(rows, []string{
			f.Name,
			f.Target,
			strconv.Itoa(int(f.Port)),
			fmt.Sprintf("%d/%d", f.Priority, f.Weight),
			status,
		})
	}

	fmt.Fprintln(w)
	renderTable(w, []string{"Record", "Target", "Port", "Prio/Weight", "Registry"}, rows, noColor)
}

func renderTable(w io.Writer, headers []string, rows [][]string, noColor bool) {
	if noColor {
		writeSimpleTable(w, headers, rows)
		return
	}

	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	// Calculate column widths.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			if i == len(cells)-1 {
				fmt.Fprint(w, cell)
				continue
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}

	writeRow(headers)
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		writeRow(row)
	}
}
