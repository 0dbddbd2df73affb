package formats

import "math"

// Deduplication table defaults.
const (
	DefaultOBJBuckets     = 300000 // Hash buckets in the vertex table
	DefaultOBJMaxVertices = 500000 // Output vertex ceiling
)

// objNoUV fills the uv slot of keys parsed from v//n faces.
// It is never a valid pool index, so it only compares equal to itself.
const objNoUV = math.MaxUint32

// chainEnd marks an unfilled bucket or the last entry of a chain.
const chainEnd = -1

// dedupKey identifies one output vertex by its attribute pool indices.
type dedupKey struct {
	vertex uint32
	uv     uint32
	normal uint32
}

type dedupEntry struct {
	key   dedupKey
	index uint32 // compact output index
	next  int32  // next entry in the same bucket, or chainEnd
}

// dedupTable is a fixed-capacity chained hash map from dedupKey to a
// compact output index. Entries live in an arena and link by position.
// The bucket array never grows; chains absorb collisions.
type dedupTable struct {
	buckets     []int32
	entries     []dedupEntry
	maxEntries  int
	collisions  int
	longestWalk int
}

func newDedupTable(buckets, maxEntries int) *dedupTable {
	t := &dedupTable{
		buckets:    make([]int32, buckets),
		maxEntries: maxEntries,
	}
	for i := range t.buckets {
		t.buckets[i] = chainEnd
	}
	return t
}

// hash mixes the key with fixed multipliers: 64*v + 5*n + 32*uv.
func (t *dedupTable) hash(k dedupKey) int {
	h := 64*uint64(k.vertex) + 5*uint64(k.normal) + 32*uint64(k.uv)
	return int(h % uint64(len(t.buckets)))
}

// lookupOrInsert returns the compact index stored for k. On a miss it
// assigns the next sequential index, links it at the chain tail and reports
// inserted=true. It fails once the table already holds maxEntries keys.
func (t *dedupTable) lookupOrInsert(k dedupKey) (index uint32, inserted bool, err error) {
	b := t.hash(k)

	last := int32(chainEnd)
	walk := 0
	for e := t.buckets[b]; e != chainEnd; e = t.entries[e].next {
		if t.entries[e].key == k {
			return t.entries[e].index, false, nil
		}
		last = e
		walk++
	}

	if len(t.entries) >= t.maxEntries {
		return 0, false, ErrOBJCapacityExceeded
	}

	index = uint32(len(t.entries))
	t.entries = append(t.entries, dedupEntry{key: k, index: index, next: chainEnd})
	if last == chainEnd {
		t.buckets[b] = int32(index)
	} else {
		t.entries[last].next = int32(index)
		t.collisions++
	}
	if walk+1 > t.longestWalk {
		t.longestWalk = walk + 1
	}
	return index, true, nil
}

// len returns the number of distinct keys inserted.
func (t *dedupTable) len() int {
	return len(t.entries)
}
