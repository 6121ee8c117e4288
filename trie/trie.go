// Package trie implements the authenticated key-value trie that backs the
// account book: a Merkle Patricia Trie keyed by 32-byte account ids whose
// leaves are 32-byte account hashes. It supports full materialization,
// witness-complete partial materialization (for bounding zk prover input),
// and root-only verification of a partial trie's internal consistency.
package trie

import (
	"errors"

	"github.com/zkanchor/zkanchor/types"
)

// ErrNotFound is returned when a key is not present in the trie.
var ErrNotFound = errors.New("trie: key not found")

// Trie is a Merkle Patricia Trie over 32-byte keys and 32-byte leaves.
// The zero value is an empty trie, which is what New returns.
type Trie struct {
	root node
}

// New creates a new, empty trie.
func New() *Trie {
	return &Trie{}
}

// Get retrieves the leaf hash stored at key.
func (t *Trie) Get(key types.Hash) (types.Hash, error) {
	v, found := get(t.root, keybytesToHex(key.Bytes()), 0)
	if !found {
		return types.Hash{}, ErrNotFound
	}
	return types.Hash(v), nil
}

func get(n node, key []byte, pos int) (valueNode, bool) {
	switch n := n.(type) {
	case nil:
		return valueNode{}, false
	case valueNode:
		return n, true
	case *shortNode:
		if len(key)-pos < len(n.Key) || !keysEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return valueNode{}, false
		}
		return get(n.Val, key, pos+len(n.Key))
	case *fullNode:
		if pos >= len(key) {
			return get(n.Children[16], key, pos)
		}
		return get(n.Children[key[pos]], key, pos+1)
	case hashNode:
		// A hash-only node means the key was pruned out of a partial trie.
		return valueNode{}, false
	default:
		return valueNode{}, false
	}
}

// InsertOrReplace inserts or overwrites the leaf at key.
func (t *Trie) InsertOrReplace(key, value types.Hash) {
	k := keybytesToHex(key.Bytes())
	t.root = insert(t.root, k, valueNode(value))
}

// InsertOrReplaceBatch applies a set of (key, value) updates as one batch.
// Order of the map's iteration does not affect the resulting root: each key
// is independently overwritten, and the final trie depends only on the set
// of (key, value) pairs, not the order applied.
func (t *Trie) InsertOrReplaceBatch(changes map[types.Hash]types.Hash) {
	for k, v := range changes {
		t.InsertOrReplace(k, v)
	}
}

func insert(n node, key []byte, value node) node {
	if len(key) == 0 {
		return value
	}

	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value}

	case *shortNode:
		matchLen := prefixLen(key, n.Key)
		if matchLen == len(n.Key) {
			return &shortNode{Key: n.Key, Val: insert(n.Val, key[matchLen:], value)}
		}
		branch := &fullNode{}
		branch.Children[n.Key[matchLen]] = insert(nil, n.Key[matchLen+1:], n.Val)
		branch.Children[key[matchLen]] = insert(nil, key[matchLen+1:], value)
		if matchLen > 0 {
			return &shortNode{Key: key[:matchLen], Val: branch}
		}
		return branch

	case *fullNode:
		cp := n.copy()
		cp.Children[key[0]] = insert(n.Children[key[0]], key[1:], value)
		return cp

	case hashNode:
		// Inserting under an unmaterialized subtree would silently discard
		// the rest of that subtree. Callers must only mutate full tries.
		panic("trie: cannot insert into a hash-only (partial) node")

	default:
		panic("trie: unknown node type")
	}
}

// Root computes the Keccak-256 root hash of the trie and caches it, along
// with every internal node hash, for reuse by subsequent calls.
func (t *Trie) Root() types.Hash {
	collapsed, h := hash(t.root)
	t.root = collapsed
	return h
}

// Len reports the number of leaves materialized in this trie. For a
// partial trie this only counts leaves within the materialized subtree.
func (t *Trie) Len() int {
	return countValues(t.root)
}

// Empty reports whether the trie has no entries.
func (t *Trie) Empty() bool {
	return t.root == nil
}

func countValues(n node) int {
	switch n := n.(type) {
	case nil:
		return 0
	case valueNode:
		return 1
	case *shortNode:
		return countValues(n.Val)
	case *fullNode:
		count := 0
		for i := 0; i < 17; i++ {
			count += countValues(n.Children[i])
		}
		return count
	default:
		return 0
	}
}
