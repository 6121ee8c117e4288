package crypto

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// PrivateKey and PublicKey are the secp256k1 key types used to sign and
// verify transaction envelopes.
type PrivateKey = secp256k1.PrivateKey
type PublicKey = secp256k1.PublicKey

// GenerateKey generates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}

// Sign produces a deterministic ECDSA signature (RFC 6979) over a 32-byte
// hash, DER-encoded.
func Sign(hash []byte, priv *PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.New("crypto: hash must be 32 bytes")
	}
	sig := ecdsa.Sign(priv, hash)
	return sig.Serialize(), nil
}

// Verify checks a DER-encoded signature against a hash and a SEC1-uncompressed
// public key.
func Verify(pubkeyUncompressed, hash, sig []byte) bool {
	if len(hash) != 32 {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubkeyUncompressed)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(hash, pub)
}

// SerializeUncompressed returns the SEC1-uncompressed encoding of a public
// key: 0x04 || X || Y, 65 bytes.
func SerializeUncompressed(pub *PublicKey) []byte {
	return pub.SerializeUncompressed()
}

// ParseUncompressedPubKey parses a SEC1-uncompressed public key.
func ParseUncompressedPubKey(b []byte) (*PublicKey, error) {
	return secp256k1.ParsePubKey(b)
}
