package lookup

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// LoadCSV reads a table written by WriteCSV. Lines without three fields,
// with a non-numeric or out-of-range port, or with an empty service are
// skipped.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	t := NewTable()
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, fmt.Errorf("load table: %w", err)
		}
		if len(row) < 3 {
			continue
		}

		port, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || !validPort(port) {
			continue
		}
		service := strings.TrimRight(row[2], " \t\r\n")
		if service == "" {
			continue
		}
		t.Set(Key{Port: uint16(port), Protocol: ParseProtocol(row[0])}, service)
	}
}

// LoadMsgpack reads a table written by WriteMsgpack.
func LoadMsgpack(r io.Reader) (*Table, error) {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	return fromEntries(entries), nil
}

// LoadJSON reads a table written by WriteJSON.
func LoadJSON(r io.Reader) (*Table, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	return fromEntries(entries), nil
}

// Load reads a table in the given format.
func Load(r io.Reader, f Format) (*Table, error) {
	switch f {
	case FormatCSV, "":
		return LoadCSV(r)
	case FormatJSON:
		return LoadJSON(r)
	case FormatMsgpack:
		return LoadMsgpack(r)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

func fromEntries(entries []Entry) *Table {
	t := NewTable()
	for _, e := range entries {
		if e.Service == "" {
			continue
		}
		t.Set(e.Key(), e.Service)
	}
	return t
}
