package trie

import (
	"github.com/zkanchor/zkanchor/crypto"
	"github.com/zkanchor/zkanchor/types"
)

// Node hashing uses a small domain-separated Keccak256 scheme rather than
// RLP encoding. Ethereum's trie needs RLP because values are variable
// length and small nodes get inlined by byte-size; this trie's keys and
// leaves are always exactly 32 bytes, so a fixed, unambiguous framing is
// both simpler and sufficient to "hit the hash bit-exactly" as required.
const (
	leafDomain   = byte(0x00)
	extDomain    = byte(0x01)
	branchDomain = byte(0x02)
)

// encodePath length-prefixes a nibble path so two different (path, value)
// pairs never collide under concatenation.
func encodePath(path []byte) []byte {
	b := make([]byte, 1+len(path))
	b[0] = byte(len(path))
	copy(b[1:], path)
	return b
}

func hashLeaf(path []byte, value types.Hash) types.Hash {
	return crypto.Keccak256Hash([]byte{leafDomain}, encodePath(path), value.Bytes())
}

func hashExtension(path []byte, child types.Hash) types.Hash {
	return crypto.Keccak256Hash([]byte{extDomain}, encodePath(path), child.Bytes())
}

func hashBranch(children [17]types.Hash) types.Hash {
	buf := make([]byte, 0, 1+17*types.HashLength)
	buf = append(buf, branchDomain)
	for _, c := range children {
		buf = append(buf, c.Bytes()...)
	}
	return crypto.Keccak256Hash(buf)
}

// hash recursively collapses n into its cached form and returns the
// (possibly unchanged) node together with its hash. valueNode and hashNode
// are leaves of the recursion: their "hash" is their own 32 bytes.
func hash(n node) (node, types.Hash) {
	switch t := n.(type) {
	case nil:
		return nil, types.Hash{}
	case hashNode:
		return t, types.Hash(t)
	case valueNode:
		return t, types.Hash(t)
	case *shortNode:
		if h, ok := t.flags.hash, t.flags.valid; ok {
			return t, h
		}
		childNode, childHash := hash(t.Val)
		cp := t.copy()
		cp.Val = childNode
		var h types.Hash
		if _, isLeaf := childNode.(valueNode); isLeaf {
			h = hashLeaf(t.Key, childHash)
		} else {
			h = hashExtension(t.Key, childHash)
		}
		cp.flags = nodeFlag{hash: h, valid: true}
		return cp, h
	case *fullNode:
		if h, ok := t.flags.hash, t.flags.valid; ok {
			return t, h
		}
		var childHashes [17]types.Hash
		cp := t.copy()
		for i := 0; i < 17; i++ {
			cn, ch := hash(t.Children[i])
			cp.Children[i] = cn
			childHashes[i] = ch
		}
		h := hashBranch(childHashes)
		cp.flags = nodeFlag{hash: h, valid: true}
		return cp, h
	default:
		return n, types.Hash{}
	}
}
