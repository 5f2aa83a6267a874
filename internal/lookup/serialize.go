package lookup

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects a serialization.
type Format string

// Supported output formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatMsgpack:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown format %q (want csv, json or msgpack)", s)
	}
}

// FormatFromPath infers a format from a file extension, ignoring a trailing
// .gz or .zst. Unrecognized extensions mean CSV.
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" || ext == ".zst" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	switch ext {
	case ".json":
		return FormatJSON
	case ".msgpack", ".mp":
		return FormatMsgpack
	default:
		return FormatCSV
	}
}

// Write serializes t to w in the given format.
func Write(w io.Writer, t *Table, f Format) error {
	switch f {
	case FormatCSV, "":
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatMsgpack:
		return WriteMsgpack(w, t)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteCSV writes one protocol,port,service row per entry, in insertion
// order, with no header.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	var err error
	t.Each(func(e Entry) bool {
		err = cw.Write([]string{string(e.Protocol), strconv.Itoa(int(e.Port)), e.Service})
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteJSON writes the entries as a JSON array in insertion order.
func WriteJSON(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.Entries()); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteMsgpack writes the entries as a msgpack array in insertion order.
func WriteMsgpack(w io.Writer, t *Table) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(t.Entries()); err != nil {
		return fmt.Errorf("write msgpack: %w", err)
	}
	return nil
}
