package codec

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/yep_lww/pkg/crdt"
)

// snapshotVersion tags the wire schema so future layouts can coexist
// with already-shipped snapshot files.
const snapshotVersion = 1

var (
	ErrEmptySnapshot       = errors.New("snapshot payload is empty")
	ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")
)

// Entry is one (element, timestamp) pair of a log.
type Entry struct {
	Elem string `msgpack:"e"`
	Ts   int64  `msgpack:"t"`
}

// Snapshot carries the full observable state of one replica's LWW set:
// both logs, fully enumerated, plus the identity of the replica that
// produced it. A transport layer ships these bytes; the receiver
// rebuilds the set and merges.
type Snapshot struct {
	Version   uint8   `msgpack:"v"`
	ReplicaID string  `msgpack:"id"`
	Adds      []Entry `msgpack:"a"`
	Removes   []Entry `msgpack:"r"`
}

// EncodeSnapshot serializes a replica's set state with msgpack.
func EncodeSnapshot(replicaID string, set *crdt.LWWSet[string]) ([]byte, error) {
	snap := Snapshot{
		Version:   snapshotVersion,
		ReplicaID: replicaID,
		Adds:      entryList(set.AddEntries()),
		Removes:   entryList(set.RemoveEntries()),
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses snapshot bytes produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrEmptySnapshot
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, snap.Version)
	}
	return &snap, nil
}

// Set rebuilds the LWW set the snapshot describes.
func (s *Snapshot) Set() *crdt.LWWSet[string] {
	return crdt.NewLWWSetFromEntries(entryMap(s.Adds), entryMap(s.Removes))
}

// MaxTimestamp returns the largest timestamp in either log, or 0 for a
// snapshot with no entries. Receivers feed it to their clock so local
// writes stay ahead of everything already seen.
func (s *Snapshot) MaxTimestamp() int64 {
	var max int64
	for _, e := range s.Adds {
		if e.Ts > max {
			max = e.Ts
		}
	}
	for _, e := range s.Removes {
		if e.Ts > max {
			max = e.Ts
		}
	}
	return max
}

func entryList(entries map[string]int64) []Entry {
	out := make([]Entry, 0, len(entries))
	for elem, ts := range entries {
		out = append(out, Entry{Elem: elem, Ts: ts})
	}
	return out
}

func entryMap(entries []Entry) map[string]int64 {
	out := make(map[string]int64, len(entries))
	for _, e := range entries {
		// Duplicate elements in a malformed snapshot resolve to the
		// latest timestamp, same as replaying adds in any order.
		if old, ok := out[e.Elem]; !ok || old < e.Ts {
			out[e.Elem] = e.Ts
		}
	}
	return out
}
