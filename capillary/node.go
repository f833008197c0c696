package capillary

import (
	"fmt"
	"strings"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/bitkey"
)

type kind uint8

const (
	kindBranch kind = iota
	kindLeaf
)

// node is either a branch or a leaf.
//
// Both kinds keep the rapids of the edge leading into them. A branch owns two
// children: child[1] is followed when the decision bit is set, child[0] when it
// is clear. A leaf holds a value and, in next, the following leaf with the same
// key (never a trie edge).
type node[V any] struct {
	rapids bitkey.Key
	child  [2]*node[V]
	next   *node[V]
	value  V
	kind   kind
}

func newLeaf[V any](val V) *node[V] {
	return &node[V]{kind: kindLeaf, value: val}
}

func newBranch[V any]() *node[V] {
	return &node[V]{kind: kindBranch}
}

func (n *node[V]) isLeaf() bool {
	return n.kind == kindLeaf
}

// tail returns the last leaf of a duplicate chain.
func (n *node[V]) tail() *node[V] {
	for n.next != nil {
		n = n.next
	}

	return n
}

func (n *node[V]) String() string {
	var b strings.Builder

	if n.isLeaf() {
		b.WriteString("<leaf")
	} else {
		b.WriteString("<branch")
	}

	if n.rapids.Len() > 0 {
		b.WriteString("|rapids:" + n.rapids.String())
	}

	if n.isLeaf() {
		b.WriteString(fmt.Sprintf("|%v", n.value))
		for l := n.next; l != nil; l = l.next {
			b.WriteString(fmt.Sprintf(",%v", l.value))
		}
	}

	b.WriteByte('>')

	return b.String()
}
