package output

import (
	"encoding/json"
	"io"
)

// WriteJSON writes v as indented JSON to w. It is used for build results,
// lookup answers and SRV audits alike.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
