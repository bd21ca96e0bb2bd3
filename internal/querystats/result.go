// File path: internal/querystats/result.go
package querystats

import (
	"bytes"
	"encoding/json"
)

// ResultSet is an ordered fingerprint-to-entry mapping. Insertion order is
// the aggregation's bucket order, and MarshalJSON preserves it: callers rely
// on "most frequent first" when reading the serialized object.
type ResultSet struct {
	keys   []string
	values map[string]interface{}
}

func NewResultSet() *ResultSet {
	return &ResultSet{values: make(map[string]interface{})}
}

// Add appends an entry. A fingerprint already present keeps its original
// position and is overwritten; aggregation buckets are unique terms, so this
// only matters for hand-built sets in tests.
func (rs *ResultSet) Add(fingerprint string, entry interface{}) {
	if _, exists := rs.values[fingerprint]; !exists {
		rs.keys = append(rs.keys, fingerprint)
	}
	rs.values[fingerprint] = entry
}

func (rs *ResultSet) Len() int {
	return len(rs.keys)
}

// Fingerprints returns the keys in insertion order.
func (rs *ResultSet) Fingerprints() []string {
	out := make([]string, len(rs.keys))
	copy(out, rs.keys)
	return out
}

func (rs *ResultSet) Get(fingerprint string) (interface{}, bool) {
	v, ok := rs.values[fingerprint]
	return v, ok
}

// MarshalJSON emits a JSON object whose keys appear in insertion order.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range rs.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(rs.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
