// Package registry reads the IANA service-name/port-number registry.
package registry

import "errors"

// UnknownService replaces a blank service name.
const UnknownService = "Unknown"

// ErrSourceUnavailable is returned when the registry source cannot be opened.
var ErrSourceUnavailable = errors.New("registry source unavailable")

// RawRecord is one trimmed registry row that passed structural validation.
// PortField is either a decimal port or a "start-end" range and has not been
// parsed yet.
type RawRecord struct {
	Service   string `json:"service"`
	PortField string `json:"port_field"`
	Protocol  string `json:"protocol"`
	Line      int    `json:"line"`
}

// Stats counts how rows were handled while reading.
type Stats struct {
	Rows    int `json:"rows"`
	Emitted int `json:"emitted"`
	Short   int `json:"short"`
	Empty   int `json:"empty"`
	Invalid int `json:"invalid"`
}

// Skipped returns the number of data rows that were not emitted.
func (s Stats) Skipped() int {
	return s.Short + s.Empty + s.Invalid
}
