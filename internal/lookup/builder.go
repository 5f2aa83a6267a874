package lookup

import (
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vulnverified/svcmap/internal/registry"
)

// Skip reasons recorded in Stats.Skipped.
const (
	SkipBadPort     = "bad_port"
	SkipBadRange    = "bad_range"
	SkipOutOfBounds = "out_of_bounds"
)

// Stats describes a build.
type Stats struct {
	Records    int            `json:"records"`
	Entries    int            `json:"entries"`
	Expanded   int            `json:"expanded"`
	Overwrites int            `json:"overwrites"`
	Skipped    map[string]int `json:"skipped,omitempty"`
}

// SkippedTotal returns the number of records dropped for any reason.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for dropped records and overwrites.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// Builder folds registry records into a Table. Later records overwrite
// earlier ones for the same key.
type Builder struct {
	table *Table
	stats Stats
	log   logrus.FieldLogger
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...Option) *Builder {
	log := logrus.New()
	log.SetOutput(io.Discard)

	b := &Builder{
		table: NewTable(),
		stats: Stats{Skipped: make(map[string]int)},
		log:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add folds one record into the table. Records with unusable port fields
// are dropped and counted.
func (b *Builder) Add(rec registry.RawRecord) {
	b.stats.Records++
	proto := ParseProtocol(rec.Protocol)

	start, end, reason := parsePortField(rec.PortField)
	if reason != "" {
		b.stats.Skipped[reason]++
		b.log.WithFields(logrus.Fields{
			"line":   rec.Line,
			"port":   rec.PortField,
			"reason": reason,
		}).Debug("dropping record")
		return
	}

	if end > start {
		b.stats.Expanded += end - start + 1
	}
	for p := start; p <= end; p++ {
		k := Key{Port: uint16(p), Protocol: proto}
		prev, _ := b.table.Lookup(k.Port, k.Protocol)
		if b.table.Set(k, rec.Service) {
			b.stats.Overwrites++
			b.log.WithFields(logrus.Fields{
				"line":     rec.Line,
				"port":     p,
				"protocol": string(proto),
				"previous": prev,
				"service":  rec.Service,
			}).Debug("overwriting entry")
		}
	}
}

// Table returns the table built so far.
func (b *Builder) Table() *Table {
	return b.table
}

// Stats returns counters for the records added so far.
func (b *Builder) Stats() Stats {
	s := b.stats
	s.Entries = b.table.Len()
	s.Skipped = make(map[string]int, len(b.stats.Skipped))
	for k, v := range b.stats.Skipped {
		s.Skipped[k] = v
	}
	return s
}

// Build folds records, in order, into a new table.
func Build(records []registry.RawRecord, opts ...Option) (*Table, Stats) {
	b := NewBuilder(opts...)
	for _, rec := range records {
		b.Add(rec)
	}
	return b.Table(), b.Stats()
}

// parsePortField parses "N" or "start-end" into an inclusive range.
// A non-empty reason means the field is unusable.
func parsePortField(field string) (start, end int, reason string) {
	field = strings.TrimSpace(field)

	if lo, hi, ok := strings.Cut(field, "-"); ok {
		s, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return 0, 0, SkipBadRange
		}
		e, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return 0, 0, SkipBadRange
		}
		if !validPort(s) || !validPort(e) {
			return 0, 0, SkipOutOfBounds
		}
		if s > e {
			return 0, 0, SkipBadRange
		}
		return s, e, ""
	}

	p, err := strconv.Atoi(field)
	if err != nil {
		return 0, 0, SkipBadPort
	}
	if !validPort(p) {
		return 0, 0, SkipOutOfBounds
	}
	return p, p, ""
}

func validPort(p int) bool {
	return p >= 0 && p <= MaxPort
}
