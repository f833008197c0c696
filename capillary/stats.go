package capillary

// Stats describes the shape of an Index.
type Stats struct {
	Branches int // two-way decision nodes
	Keys     int // distinct keys, i.e. leaf chains
	Values   int // stored values, duplicates included
	MaxChain int // longest same-key chain
	MaxDepth int // most branches along a root-to-leaf path
	Rapids   int // compressed bits stored on edges
}

// Stats walks the whole trie and returns its shape.
func (t *Index[V]) Stats() Stats {
	var st Stats

	if !t.Empty() {
		walkStats(&st, t.root, 0)
	}

	return st
}

func walkStats[V any](st *Stats, n *node[V], depth int) {
	st.Rapids += n.rapids.Len()

	if !n.isLeaf() {
		st.Branches++
		walkStats(st, n.child[0], depth+1)
		walkStats(st, n.child[1], depth+1)
		return
	}

	chain := 0
	for l := n; l != nil; l = l.next {
		chain++
	}

	st.Keys++
	st.Values += chain
	st.MaxChain = max(st.MaxChain, chain)
	st.MaxDepth = max(st.MaxDepth, depth)
}
