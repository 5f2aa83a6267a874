package lookup

// Table maps (port, protocol) keys to service names. Keys iterate in the
// order they were first inserted; overwriting a key does not move it.
// A Table is not safe for concurrent mutation.
type Table struct {
	services map[Key]string
	order    []Key
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{services: make(map[Key]string)}
}

// Set stores service under k and reports whether an existing value was
// replaced.
func (t *Table) Set(k Key, service string) bool {
	_, exists := t.services[k]
	if !exists {
		t.order = append(t.order, k)
	}
	t.services[k] = service
	return exists
}

// Lookup returns the service for a port and protocol.
func (t *Table) Lookup(port uint16, proto Protocol) (string, bool) {
	svc, ok := t.services[Key{Port: port, Protocol: proto}]
	return svc, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.order)
}

// Entries returns all entries in insertion order.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, k := range t.order {
		entries = append(entries, Entry{Protocol: k.Protocol, Port: k.Port, Service: t.services[k]})
	}
	return entries
}

// Each calls fn for every entry in insertion order until fn returns false.
func (t *Table) Each(fn func(Entry) bool) {
	for _, k := range t.order {
		if !fn(Entry{Protocol: k.Protocol, Port: k.Port, Service: t.services[k]}) {
			return
		}
	}
}

// Protocols returns the distinct protocols in first-seen order.
func (t *Table) Protocols() []Protocol {
	seen := make(map[Protocol]bool)
	var out []Protocol
	for _, k := range t.order {
		if !seen[k.Protocol] {
			seen[k.Protocol] = true
			out = append(out, k.Protocol)
		}
	}
	return out
}
