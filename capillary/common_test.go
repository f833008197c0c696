package capillary

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/bitkey"
)

// checkTrie verifies the structural invariants of a trie and returns the key
// of every stored value in depth-first order.
func checkTrie[V any](t *testing.T, idx *Index[V]) []string {
	t.Helper()

	var (
		keys []string
		walk func(n *node[V], prefix string)
	)

	walk = func(n *node[V], prefix string) {
		require.NotNil(t, n)

		prefix += n.rapids.String()

		if n.isLeaf() {
			require.Len(t, prefix, idx.height, "leaf above the bottom level")

			for l := n; l != nil; l = l.next {
				require.True(t, l.isLeaf())
				if l != n {
					require.Zero(t, l.rapids.Len(), "chained leaf with rapids")
				}
				keys = append(keys, prefix)
			}

			return
		}

		require.Less(t, len(prefix), idx.height, "branch at the bottom level")
		require.NotNil(t, n.child[0], "branch without a zero child")
		require.NotNil(t, n.child[1], "branch without a one child")
		require.Nil(t, n.next, "branch with a chain")

		walk(n.child[1], prefix+"1")
		walk(n.child[0], prefix+"0")
	}

	if idx.root != nil {
		walk(idx.root, "")
	}

	require.Len(t, keys, idx.Len())

	return keys
}

// randomKey returns a uniformly random key of the given height.
func randomKey(fake *gofakeit.Faker, height int) bitkey.Key {
	words := make([]uint64, (height+63)/64)
	for i := range words {
		words[i] = fake.Uint64()
	}

	return bitkey.FromBits(height, func(i int) bool {
		return words[i/64]>>(i%64)&1 != 0
	})
}

// nearKey returns a copy of key with up to flips random bits inverted.
func nearKey(fake *gofakeit.Faker, key bitkey.Key, flips int) bitkey.Key {
	var (
		height = key.Len()
		mask   = make([]int, 0, flips)
	)

	for i := 0; i < flips; i++ {
		mask = append(mask, fake.Number(0, height-1))
	}

	return key.Xor(bitkey.New(height, mask...))
}
