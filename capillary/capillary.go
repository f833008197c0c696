package capillary

import (
	"github.com/ThierrySt-Arnaud/ImageHashSearch/bitkey"
)

// Index is a compressed binary trie mapping fixed-length keys to values.
//
// Values are opaque to the Index: they are stored and returned as is, never
// compared. Several values may share one key.
type Index[V any] struct {
	root   *node[V] // the edge to the top of the trie
	height int      // key length in bits
	size   int
}

// New returns an empty Index for keys of the given length in bits.
// Every key passed to the Index must have exactly that length.
func New[V any](height int) *Index[V] {
	if height <= 0 {
		panic("capillary: key height must be positive")
	}

	return &Index[V]{height: height}
}

// Len returns the number of inserted values, duplicates included.
func (t *Index[V]) Len() int {
	return t.size
}

// Height returns the key length in bits.
func (t *Index[V]) Height() int {
	return t.height
}

func (t *Index[V]) Empty() bool {
	return t.root == nil
}

// Insert stores a value under the given key. Inserting a key that is already
// present appends the value to that key's chain.
func (t *Index[V]) Insert(val V, key bitkey.Key) {
	if t.Empty() {
		// a single edge carrying the whole key
		leaf := newLeaf(val)
		leaf.rapids = key.Slice(0, t.height)
		t.root = leaf
	} else {
		t.irrigate(key, val)
	}

	t.size++
}

// irrigate descends along the key and either appends a duplicate leaf or
// splits the first edge whose rapids diverge from the key.
func (t *Index[V]) irrigate(key bitkey.Key, val V) {
	var (
		height = t.height // bits left to consume
		slot   = &t.root  // edge under examination
	)

	for {
		cur := *slot

		if size := cur.rapids.Len(); size > 0 {
			diff := key.Slice(height-size, height).Xor(cur.rapids)

			if !diff.IsZero() {
				split(slot, key, val, height, diff.BitLen())
				return
			}

			height -= size
		}

		if height == 0 {
			// the key exists - chain a new leaf
			cur.tail().next = newLeaf(val)
			return
		}

		height--
		slot = &cur.child[key.Dir(height)]
	}
}

// split replaces the edge in slot with a new branch at the most significant
// bit where the key differs from the edge rapids.
//
// height is the number of key bits left above the edge and pos is the 1-based
// position of the differing bit inside the rapids. The branch takes the rapids
// above pos, the old child keeps the rapids below it and a new leaf takes all
// the key bits below the split.
func split[V any](slot **node[V], key bitkey.Key, val V, height, pos int) {
	var (
		cur    = *slot
		size   = cur.rapids.Len()
		bit    = height - size + pos - 1 // key bit deciding the branch
		branch = newBranch[V]()
		leaf   = newLeaf(val)
		dir    = key.Dir(bit)
	)

	if pos < size {
		branch.rapids = cur.rapids.Slice(pos, size)
	}

	if bit > 0 {
		leaf.rapids = key.Slice(0, bit)
	}

	branch.child[dir] = leaf
	branch.child[1-dir] = cur

	// an empty slice when the split took the last rapids bit
	cur.rapids = cur.rapids.Slice(0, pos-1)

	*slot = branch
}
