package magidict

import (
	"bytes"
	"encoding/gob"
)

// snapshotEntry is the wire form of one entry. A snapshot carries the
// flat key→value content only; protection flags and conversion memos are
// deliberately excluded.
type snapshotEntry struct {
	Key   string
	Value any
}

func init() {
	gob.Register(&Dict{})
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// GobEncode implements gob.GobEncoder: the snapshot is the ordered entry
// list. Nested Dicts encode through their own GobEncode. gob cannot
// represent cyclic object graphs, so self-referential Dicts do not
// snapshot; acyclic ones round-trip completely.
func (d *Dict) GobEncode() ([]byte, error) {
	entries := make([]snapshotEntry, len(d.keys))
	for i, k := range d.keys {
		entries[i] = snapshotEntry{Key: k, Value: d.values[i]}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder by replaying ordinary keyed
// assignment: every restored value re-enters the conversion engine, so
// nested plain maps come back as Dicts.
func (d *Dict) GobDecode(data []byte) error {
	var entries []snapshotEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return err
	}
	for _, e := range entries {
		if err := d.Set(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}
