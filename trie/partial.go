package trie

import "github.com/zkanchor/zkanchor/types"

// GetPartial returns a detached trie that materializes only the nodes on
// the paths to the given keys; every other subtree is replaced by its
// precomputed hash. The returned trie's Root() equals the receiver's,
// and Get succeeds for each of keys that was present in the receiver; keys
// outside that set are reported as not found.
func (t *Trie) GetPartial(keys []types.Hash) *Trie {
	t.Root() // ensure every node's hash is cached before pruning
	paths := make([][]byte, len(keys))
	for i, k := range keys {
		paths[i] = keybytesToHex(k.Bytes())
	}
	return &Trie{root: partialize(t.root, paths)}
}

// partialize keeps nodes reachable by at least one of paths concrete and
// collapses every other subtree to its hash.
func partialize(n node, paths [][]byte) node {
	if len(paths) == 0 {
		return pruneToHash(n)
	}
	switch n := n.(type) {
	case nil:
		return nil
	case valueNode:
		return n
	case hashNode:
		return n
	case *shortNode:
		var kept [][]byte
		for _, p := range paths {
			if len(p) >= len(n.Key) && keysEqual(n.Key, p[:len(n.Key)]) {
				kept = append(kept, p[len(n.Key):])
			}
		}
		if len(kept) == 0 {
			return pruneToHash(n)
		}
		return &shortNode{Key: n.Key, Val: partialize(n.Val, kept)}
	case *fullNode:
		cp := &fullNode{}
		for i := 0; i < 17; i++ {
			var group [][]byte
			for _, p := range paths {
				if len(p) > 0 && int(p[0]) == i {
					group = append(group, p[1:])
				}
			}
			cp.Children[i] = partialize(n.Children[i], group)
		}
		return cp
	default:
		return n
	}
}

// pruneToHash collapses an off-path subtree to its hash, reusing the cache
// populated by the preceding Root() call.
func pruneToHash(n node) node {
	if n == nil {
		return nil
	}
	_, h := hash(n)
	return hashNode(h)
}

// VerifyPartial recomputes the root hash of a (possibly partial) trie and
// checks it against the expected root. This is the gatekeeper a zk prover
// runs on its witness input: if any off-path subtree was tampered with or
// mismaterialized, the recomputed root will not match.
func (t *Trie) VerifyPartial(root types.Hash) bool {
	return t.Root() == root
}

// GetProof returns a partial trie witnessing a single key: a Merkle proof
// in the shape of a self-verifying subtree.
func (t *Trie) GetProof(key types.Hash) *Trie {
	return t.GetPartial([]types.Hash{key})
}

// VerifyProof checks that a proof trie attests to leaf being the value of
// key under root.
func (p *Trie) VerifyProof(key, leaf, root types.Hash) bool {
	v, err := p.Get(key)
	if err != nil || v != leaf {
		return false
	}
	return p.VerifyPartial(root)
}
