package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// minFields is service, port and protocol.
const minFields = 3

// Option configures a Reader.
type Option func(*Reader)

// WithoutHeader treats the first row as data. Serialized lookup tables have
// no header row.
func WithoutHeader() Option {
	return func(r *Reader) {
		r.skipHeader = false
	}
}

// WithLogger sets the logger used for per-row diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}

// Reader streams RawRecords from a comma-delimited registry.
// Malformed rows are dropped and counted; only I/O failures are returned.
type Reader struct {
	csv        *csv.Reader
	log        logrus.FieldLogger
	skipHeader bool
	stats      Stats
}

// NewReader returns a Reader that skips the header row of r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rd := &Reader{
		csv:        cr,
		log:        discardLogger(),
		skipHeader: true,
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Next returns the next valid record, or io.EOF once the source is exhausted.
func (r *Reader) Next() (RawRecord, error) {
	for {
		row, err := r.csv.Read()

		if r.skipHeader {
			r.skipHeader = false
			if err == io.EOF {
				return RawRecord{}, io.EOF
			}
			var pe *csv.ParseError
			if err != nil && !errors.As(err, &pe) {
				return RawRecord{}, fmt.Errorf("read registry header: %w", err)
			}

			// encoding/csv drops blank lines. A first record that starts
			// past line 1 means the header row itself was blank, so this
			// record is data.
			var start int
			if pe != nil {
				start = pe.StartLine
			} else {
				start, _ = r.csv.FieldPos(0)
			}
			if start <= 1 {
				continue
			}
			if pe == nil {
				r.log.WithField("line", start).Debug("blank header row")
			}
		}

		if err == io.EOF {
			return RawRecord{}, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return RawRecord{}, fmt.Errorf("read registry: %w", err)
			}
			r.stats.Rows++
			r.stats.Invalid++
			r.log.WithField("line", pe.Line).WithError(err).Debug("skipping unparsable row")
			continue
		}

		r.stats.Rows++
		line, _ := r.csv.FieldPos(0)
		rec, ok := r.normalize(row, line)
		if !ok {
			continue
		}
		r.stats.Emitted++
		return rec, nil
	}
}

// Stats returns the row counters accumulated so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

func (r *Reader) normalize(row []string, line int) (RawRecord, bool) {
	if len(row) < minFields {
		r.stats.Short++
		r.log.WithField("line", line).Debugf("skipping row with %d fields", len(row))
		return RawRecord{}, false
	}

	rec := RawRecord{
		Service:   strings.TrimSpace(row[0]),
		PortField: strings.TrimSpace(row[1]),
		Protocol:  strings.TrimSpace(row[2]),
		Line:      line,
	}
	if rec.Service == "" {
		rec.Service = UnknownService
	}
	if rec.PortField == "" || rec.Protocol == "" {
		r.stats.Empty++
		r.log.WithField("line", line).Debug("skipping row with empty port or protocol")
		return RawRecord{}, false
	}
	return rec, true
}

// Parse reads every valid record from r.
func Parse(r io.Reader, opts ...Option) ([]RawRecord, Stats, error) {
	rd := NewReader(r, opts...)

	var records []RawRecord
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rd.Stats(), err
		}
		records = append(records, rec)
	}
	return records, rd.Stats(), nil
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
