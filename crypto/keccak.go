package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/zkanchor/zkanchor/types"
)

// Keccak256 hashes the concatenation of the given byte slices.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash hashes the concatenation of the given byte slices and
// returns the result as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
