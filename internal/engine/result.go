// Package engine runs the registry-to-lookup-table pipeline.
package engine

import (
	"io"
	"time"

	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/internal/registry"
)

// BuildResult is the top-level output of a build run.
type BuildResult struct {
	Source       string         `json:"source"`
	Output       string         `json:"output"`
	Format       lookup.Format  `json:"format"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	DurationSecs float64        `json:"duration_secs"`
	Reader       registry.Stats `json:"reader"`
	Builder      lookup.Stats   `json:"builder"`
	Protocols    []ProtocolStat `json:"protocols"`
	Coverage     Coverage       `json:"coverage"`
	Summary      Summary        `json:"summary"`

	// Table is the built table. It is not serialized with the result.
	Table *lookup.Table `json:"-"`
}

// ProtocolStat counts table entries per protocol. Common counts TCP
// entries on a well-known port; Standard is false for protocols outside
// the registry's usual four.
type ProtocolStat struct {
	Protocol lookup.Protocol `json:"protocol"`
	Standard bool            `json:"standard"`
	Entries  int             `json:"entries"`
	Common   int             `json:"common"`
}

// Coverage reports how many well-known TCP ports the table names.
type Coverage struct {
	Common  int   `json:"common"`
	Covered int   `json:"covered"`
	Missing []int `json:"missing,omitempty"`
}

// Summary provides aggregate counts for the run.
type Summary struct {
	RowsRead       int `json:"rows_read"`
	RecordsEmitted int `json:"records_emitted"`
	RowsSkipped    int `json:"rows_skipped"`
	RecordsDropped int `json:"records_dropped"`
	Entries        int `json:"entries"`
	Overwrites     int `json:"overwrites"`
}

// SourceOpener opens a registry source.
type SourceOpener interface {
	Open(path string) (io.ReadCloser, error)
}

// RegistryParser turns a registry stream into records.
type RegistryParser interface {
	Parse(r io.Reader) ([]registry.RawRecord, registry.Stats, error)
}

// TableBuilder folds records into a lookup table.
type TableBuilder interface {
	Build(records []registry.RawRecord) (*lookup.Table, lookup.Stats)
}
