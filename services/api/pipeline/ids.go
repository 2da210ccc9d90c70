package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// IDAssigner numbers distinct dataset keys. keys arrive deduplicated in
// first-seen order; every returned id must be at least SyntheticIDBase and
// distinct keys must get distinct ids.
type IDAssigner interface {
	Assign(keys []DatasetKey) map[DatasetKey]int
}

// SequentialIDs numbers keys Base, Base+1, ... in the order given. Ids are
// stable within one call only: a new combination shifts every later id.
type SequentialIDs struct {
	Base int
}

func (s SequentialIDs) Assign(keys []DatasetKey) map[DatasetKey]int {
	base := s.Base
	if base < SyntheticIDBase {
		base = SyntheticIDBase
	}
	ids := make(map[DatasetKey]int, len(keys))
	for i, k := range keys {
		ids[k] = base + i
	}
	return ids
}

// HashedIDs derives ids from a SHA-256 digest of the key so the same
// combination keeps its id across calls. Collisions inside one call are
// resolved by probing upwards, which can make a colliding key's id depend on
// the other keys present.
type HashedIDs struct {
	Base int
	Span int
}

const defaultHashSpan = 1 << 20

func (h HashedIDs) Assign(keys []DatasetKey) map[DatasetKey]int {
	base := h.Base
	if base < SyntheticIDBase {
		base = SyntheticIDBase
	}
	span := h.Span
	if span <= 0 {
		span = defaultHashSpan
	}
	if span < len(keys) {
		span = len(keys)
	}

	ids := make(map[DatasetKey]int, len(keys))
	taken := make(map[int]struct{}, len(keys))
	for _, k := range keys {
		slot := int(keyHash(k) % uint64(span))
		for {
			if _, used := taken[slot]; !used {
				break
			}
			slot = (slot + 1) % span
		}
		taken[slot] = struct{}{}
		ids[k] = base + slot
	}
	return ids
}

func keyHash(k DatasetKey) uint64 {
	input := strings.Join([]string{k.Feature, k.MeasurementType, k.CollectionType, k.DataCode, k.DataProvider}, "|")
	sum := sha256.Sum256([]byte(input))
	return binary.BigEndian.Uint64(sum[:8])
}
