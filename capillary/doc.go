// Package capillary defines a compressed binary trie over fixed-length bit keys
// (typically perceptual hashes) supporting lookup within a Hamming-distance
// budget.
//
// The trie consumes key bits from the most significant one (bit Height-1)
// down to bit 0. Every edge may carry a compressed run of key bits, the
// rapids, shared by all the keys below it:
//
//	                             ,-- 1 --[000]--> [leaf:"C"]
//	root --[0000]--> [branch] --+
//	                             `-- 0 --[00]--> [branch] --+-- 1 --> [leaf:"B"]
//	                                                        `-- 0 --> [leaf:"A"] --> [leaf:"D"]
//
// The trie above holds the 8-bit keys 00000000 (A and D), 00000001 (B) and
// 00001000 (C).
//
// Along any root-to-leaf path the rapids plus one decision bit per branch spell
// the full key of that leaf. Values inserted under an identical key are chained
// behind the first leaf in insertion order.
//
// Search walks the matching branch iteratively and forks into the mismatching
// one only while the tolerance budget lasts:
//
//   - every mismatching rapids bit costs one unit of budget;
//   - taking the mismatching side of a branch costs one unit;
//   - a subtree is abandoned as soon as the budget drops below zero.
//
// An Index is not safe for concurrent mutation. Searches that happen after all
// the inserts have completed need no synchronization.
package capillary
