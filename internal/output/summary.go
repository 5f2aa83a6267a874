package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vulnverified/svcmap/internal/engine"
	"github.com/vulnverified/svcmap/internal/lookup"
)

// Version is set via ldflags at build time.
var Version = "dev"

// WriteHeader prints the svcmap banner.
func WriteHeader(w io.Writer, noColor bool) {
	if noColor {
		fmt.Fprintf(w, "svcmap %s\n\n", Version)
	} else {
		fmt.Fprintf(w, "\033[1msvcmap %s\033[0m\n\n", Version)
	}
}

// WriteSummary prints the post-build summary and a per-protocol table.
func WriteSummary(w io.Writer, result *engine.BuildResult, noColor bool) {
	s := result.Summary

	label := func(name string) string {
		if noColor {
			return name + ":"
		}
		return "\033[1m" + name + ":\033[0m"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", label("Source"), result.Source)
	fmt.Fprintf(w, "%s %s (%s)\n", label("Output"), result.Output, result.Format)
	fmt.Fprintf(w, "%s %d read, %d skipped\n", label("Rows"), s.RowsRead, s.RowsSkipped)
	fmt.Fprintf(w, "%s %d entries, %d overwritten, %d records dropped\n", label("Table"), s.Entries, s.Overwrites, s.RecordsDropped)

	c := result.Coverage
	fmt.Fprintf(w, "%s %d of %d common TCP ports named\n", label("Coverage"), c.Covered, c.Common)
	if len(c.Missing) > 0 {
		missing := make([]string, 0, len(c.Missing))
		for _, p := range c.Missing {
			missing = append(missing, strconv.Itoa(p))
		}
		fmt.Fprintf(w, "  missing: %s\n", strings.Join(missing, ", "))
	}

	if len(result.Builder.Skipped) > 0 {
		fmt.Fprintln(w)
		for _, reason := range []string{lookup.SkipBadPort, lookup.SkipBadRange, lookup.SkipOutOfBounds} {
			if n := result.Builder.Skipped[reason]; n > 0 {
				if noColor {
					fmt.Fprintf(w, "! %d records dropped (%s)\n", n, reason)
				} else {
					fmt.Fprintf(w, "\033[33m!\033[0m %d records dropped (%s)\n", n, reason)
				}
			}
		}
	}

	if len(result.Protocols) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Protocols))
	var nonStandard []string
	for _, p := range result.Protocols {
		name := string(p.Protocol)
		if !p.Standard {
			name += "*"
			nonStandard = append(nonStandard, string(p.Protocol))
		}
		rows = append(rows, []string{name, strconv.Itoa(p.Entries), strconv.Itoa(p.Common)})
	}
	fmt.Fprintln(w)
	renderTable(w, []string{"Protocol", "Entries", "Common"}, rows, noColor)
	if len(nonStandard) > 0 {
		fmt.Fprintf(w, "* non-standard protocol: %s\n", strings.Join(nonStandard, ", "))
	}
}
