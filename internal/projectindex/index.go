// Package projectindex builds and consumes the cross-file symbol index:
// per-file schemas, function return facts and __all__ exports, keyed by
// absolute path and serialized with msgpack.
package projectindex

import "github.com/vmihailenco/msgpack/v5"

// Version is the only payload version this build reads or writes.
const Version = 1

// Function is an indexed function fact.
type Function struct {
	ReturnsSchema string `msgpack:"returns_schema"`
	ReturnsFrame  string `msgpack:"returns_frame"`
}

// Entry is the harvest of one Python file.
type Entry struct {
	Schemas   map[string][]string `msgpack:"schemas"`
	Functions map[string]Function `msgpack:"functions"`
	Exports   []string            `msgpack:"exports"`
}

// Index is the serialized project index.
type Index struct {
	Version int              `msgpack:"version"`
	Files   map[string]Entry `msgpack:"files"`
}

// Encode serializes the index.
func (ix *Index) Encode() ([]byte, error) {
	return msgpack.Marshal(ix)
}

// Decode deserializes an index payload. An undecodable payload or an
// unknown version yields no index; callers then run without cross-file
// symbols rather than trusting data they cannot interpret.
func Decode(data []byte) (*Index, bool) {
	var ix Index
	if err := msgpack.Unmarshal(data, &ix); err != nil {
		return nil, false
	}
	if ix.Version != Version {
		return nil, false
	}
	return &ix, true
}
