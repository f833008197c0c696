package capillary

import (
	"github.com/ThierrySt-Arnaud/ImageHashSearch/bitkey"
)

// Values returns every stored value in depth-first order.
func (t *Index[V]) Values() []V {
	var res []V

	if !t.Empty() {
		// a budget of height can never run out
		t.navigate(bitkey.New(t.height), t.root, t.height, t.height, collect(&res))
	}

	return res
}

// Search returns the values whose keys are within tolerance bit mismatches of
// the given key.
//
// The matching side of every branch is listed after the mismatching one and
// values sharing a key come in insertion order. A negative tolerance matches
// nothing.
func (t *Index[V]) Search(key bitkey.Key, tolerance int) []V {
	var res []V

	t.Iter(key, tolerance, collect(&res))

	return res
}

// SearchPercent is like Search with the tolerance given as a percentage of the
// key height, rounded down.
func (t *Index[V]) SearchPercent(key bitkey.Key, percent int) []V {
	return t.Search(key, percent*t.height/100)
}

// Iter calls a handler for every value Search would return, in the same order.
// It returns whether all the matches were visited.
// The handler can continue the process by returning true or abort with false.
func (t *Index[V]) Iter(key bitkey.Key, tolerance int, handler func(V) bool) bool {
	if t.Empty() || tolerance < 0 {
		return true
	}

	return t.navigate(key, t.root, t.height, tolerance, handler)
}

// navigate visits the values below cur whose remaining key bits are within
// budget of the query. height is the number of key bits left above cur's
// rapids.
func (t *Index[V]) navigate(query bitkey.Key, cur *node[V], height, budget int, h func(V) bool) bool {
	for height > 0 {
		if size := cur.rapids.Len(); size > 0 {
			budget -= query.Slice(height-size, height).Distance(cur.rapids)

			if budget < 0 {
				return true // pruned
			}

			height -= size
		}

		if height > 0 {
			height--
			dir := query.Dir(height)

			if budget > 0 {
				// flipping this bit costs one unit
				if !t.navigate(query, cur.child[1-dir], height, budget-1, h) {
					return false
				}
			}

			cur = cur.child[dir]
		}
	}

	for leaf := cur; leaf != nil; leaf = leaf.next {
		if !h(leaf.value) {
			return false
		}
	}

	return true
}

func collect[V any](res *[]V) func(V) bool {
	return func(val V) bool {
		*res = append(*res, val)
		return true
	}
}
