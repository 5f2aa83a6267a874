package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/pkg/ports"
)

// StdoutPath makes Run write the table to Config.Stdout.
const StdoutPath = "-"

// Config holds the runtime configuration for a build run.
type Config struct {
	Source string
	Output string
	Format lookup.Format

	// Stdout receives the table when Output is StdoutPath.
	Stdout io.Writer
}

// Stages holds the injectable stage implementations.
type Stages struct {
	Opener  SourceOpener
	Parser  RegistryParser
	Builder TableBuilder
}

// ProgressReporter is called by the engine to report stage progress.
type ProgressReporter interface {
	Stage(num, total int, msg string)
	Detail(msg string)
	Warn(msg string)
}

const totalStages = 3

// Run reads the registry, builds the lookup table and writes it.
// Nothing is written unless the whole table was built.
func Run(ctx context.Context, cfg Config, stages Stages, progress ProgressReporter) (*BuildResult, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.Output == "" {
		return nil, fmt.Errorf("output is required")
	}
	if cfg.Format == "" {
		cfg.Format = lookup.FormatCSV
	}

	result := &BuildResult{
		Source:    cfg.Source,
		Output:    cfg.Output,
		Format:    cfg.Format,
		StartedAt: time.Now(),
	}

	// Stage 1: Read the registry.
	progress.Stage(1, totalStages, fmt.Sprintf("Reading registry %s...", cfg.Source))
	src, err := stages.Opener.Open(cfg.Source)
	if err != nil {
		return nil, err
	}
	records, readStats, err := stages.Parser.Parse(src)
	src.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.Source, err)
	}
	result.Reader = readStats
	progress.Detail(fmt.Sprintf("%d rows, %d records, %d skipped", readStats.Rows, readStats.Emitted, readStats.Skipped()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Build the table.
	progress.Stage(2, totalStages, fmt.Sprintf("Building lookup table from %d records...", len(records)))
	table, buildStats := stages.Builder.Build(records)
	result.Table = table
	result.Builder = buildStats
	progress.Detail(fmt.Sprintf("%d entries, %d overwritten, %d dropped", buildStats.Entries, buildStats.Overwrites, buildStats.SkippedTotal()))

	if table.Len() == 0 {
		progress.Warn("Lookup table is empty")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Write the table.
	progress.Stage(3, totalStages, fmt.Sprintf("Writing %s table to %s...", cfg.Format, cfg.Output))
	if cfg.Output == StdoutPath {
		w := cfg.Stdout
		if w == nil {
			w = os.Stdout
		}
		err = lookup.Write(w, table, cfg.Format)
	} else {
		err = writeAtomic(cfg.Output, func(w io.Writer) error {
			return lookup.Write(w, table, cfg.Format)
		})
	}
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", cfg.Output, err)
	}

	result.Protocols = protocolStats(table)
	result.Coverage = coverage(table)
	result.CompletedAt = time.Now()
	result.DurationSecs = result.CompletedAt.Sub(result.StartedAt).Seconds()
	result.Summary = buildSummary(result)

	return result, nil
}

// writeAtomic writes to a temp file beside path and renames it into place.
// On failure the temp file is removed and path is left untouched.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func protocolStats(table *lookup.Table) []ProtocolStat {
	counts := make(map[lookup.Protocol]int)
	common := make(map[lookup.Protocol]int)
	table.Each(func(e lookup.Entry) bool {
		counts[e.Protocol]++
		if e.Protocol == lookup.TCP && ports.IsCommon(int(e.Port)) {
			common[e.Protocol]++
		}
		return true
	})

	var out []ProtocolStat
	for _, p := range table.Protocols() {
		out = append(out, ProtocolStat{
			Protocol: p,
			Standard: p.Known(),
			Entries:  counts[p],
			Common:   common[p],
		})
	}
	return out
}

func coverage(table *lookup.Table) Coverage {
	c := Coverage{Common: len(ports.Top100)}
	for _, p := range ports.Top100 {
		if _, ok := table.Lookup(uint16(p), lookup.TCP); ok {
			c.Covered++
		} else {
			c.Missing = append(c.Missing, p)
		}
	}
	return c
}

func buildSummary(result *BuildResult) Summary {
	return Summary{
		RowsRead:       result.Reader.Rows,
		RecordsEmitted: result.Reader.Emitted,
		RowsSkipped:    result.Reader.Skipped(),
		RecordsDropped: result.Builder.SkippedTotal(),
		Entries:        result.Builder.Entries,
		Overwrites:     result.Builder.Overwrites,
	}
}
