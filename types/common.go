// Package types defines the core fixed-width value types shared across the
// trie, account book, transaction, and engine packages.
package types

import (
	"encoding/hex"
	"fmt"
)

const (
	// HashLength is the width of every digest and trie key/leaf in the system.
	HashLength = 32
)

// Hash represents a 32-byte digest: a trie key, a trie leaf, an account id,
// or an envelope id, depending on context.
type Hash [HashLength]byte

// AccountID is the trie key space: the hash of an owner's SEC1-uncompressed
// public key.
type AccountID = Hash

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes
// and truncating to the low 32 bytes if longer.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed hex string representation of the hash.
func (h Hash) Hex() string { return fmt.Sprintf("0x%x", h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	for i := range h {
		h[i] = 0
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// fromHex decodes a hex string, stripping an optional "0x" prefix.
func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
