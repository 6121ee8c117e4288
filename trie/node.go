// Package trie implements the authenticated key-value trie that backs the
// account book: a Merkle Patricia Trie keyed by 32-byte account ids whose
// leaves are 32-byte account hashes. Unlike a general Ethereum state trie,
// both keys and leaves here are fixed-width, so node hashing uses a small
// domain-separated scheme instead of RLP encoding with inline-node sizing.
package trie

import "github.com/zkanchor/zkanchor/types"

// node is the interface implemented by all trie node types.
type node interface {
	// cachedHash returns the cached hash for this node, if any is valid.
	cachedHash() (types.Hash, bool)
}

// fullNode is a 16-way branch node plus an optional value stored at the
// branch itself (Children[16]), for keys whose nibble path ends here.
type fullNode struct {
	Children [17]node
	flags    nodeFlag
}

// shortNode is a path-compressed extension or leaf node. It is a leaf when
// Val is a valueNode, an extension otherwise.
type shortNode struct {
	Key   []byte // nibble-encoded key segment (0-15 per entry)
	Val   node
	flags nodeFlag
}

// hashNode is an opaque reference to a subtree known only by its hash; it
// appears in partial tries for branches that were not materialized.
type hashNode types.Hash

// valueNode is a 32-byte leaf value (an Account.Hash()).
type valueNode types.Hash

type nodeFlag struct {
	hash  types.Hash
	valid bool
}

func (n *fullNode) cachedHash() (types.Hash, bool)  { return n.flags.hash, n.flags.valid }
func (n *shortNode) cachedHash() (types.Hash, bool) { return n.flags.hash, n.flags.valid }
func (n hashNode) cachedHash() (types.Hash, bool)   { return types.Hash(n), true }
func (n valueNode) cachedHash() (types.Hash, bool)  { return types.Hash{}, false }

func (n *fullNode) copy() *fullNode {
	cp := *n
	cp.flags = nodeFlag{}
	return &cp
}

func (n *shortNode) copy() *shortNode {
	cp := *n
	cp.flags = nodeFlag{}
	return &cp
}
