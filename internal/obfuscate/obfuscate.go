// Package obfuscate is a length-preserving keyed stream transform applied
// to serialized envelopes before they leave this process,
// and reversed on the way back in. It is not authenticated encryption and
// provides no confidentiality against anyone who already holds the ARID —
// only disclosure minimization at the storage tier (hiding envelope
// structure and reference-vs-direct shape from backend observers).
package obfuscate

import (
	"golang.org/x/crypto/chacha20"
)

// fixedNonce is safe here only because the key itself is derived fresh per
// ARID (internal/keyderive); a given key therefore encrypts exactly one
// distinguishable plaintext stream, so nonce reuse never occurs across
// distinct plaintexts under the same key.
var fixedNonce = [chacha20.NonceSize]byte{}

// Apply XORs in with a ChaCha20 keystream derived from key. The output has
// exactly the same length as the input.
func Apply(key [32]byte, in []byte) []byte {
	c, err := chacha20.NewUnauthenticatedCipher(key[:], fixedNonce[:])
	if err != nil {
		// Only returns an error for a wrong-sized key/nonce; both are
		// fixed-size here, so this is unreachable in practice.
		panic("obfuscate: chacha20 cipher init failed unexpectedly: " + err.Error())
	}
	out := make([]byte, len(in))
	c.XORKeyStream(out, in)
	return out
}

// Remove reverses Apply. XOR-stream ciphers are their own inverse, so this
// is the identical transform — kept as a distinct name for call-site clarity
// between put-side obfuscation and get-side removal.
func Remove(key [32]byte, in []byte) []byte {
	return Apply(key, in)
}
