package alternatives

import (
	"bytes"
	"encoding/json"
)

// Entry pairs an alternative's name with its website or a lookup sentinel
type Entry struct {
	Name string
	URL  string
}

// Resolved is the ordered result of resolving a set of alternatives
type Resolved []Entry

// Lookup returns the URL recorded for name
func (r Resolved) Lookup(name string) (string, bool) {
	for _, e := range r {
		if e.Name == name {
			return e.URL, true
		}
	}

	return "", false
}

// MarshalJSON encodes the entries as a JSON object keyed by name, in suggestion
// order. A repeated name is written once, with its first URL.
func (r Resolved) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	seen := make(map[string]struct{}, len(r))

	for _, e := range r {
		if _, dup := seen[e.Name]; dup {
			continue
		}

		seen[e.Name] = struct{}{}

		if len(seen) > 1 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(e.URL)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
