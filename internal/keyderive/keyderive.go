// Package keyderive performs deterministic, domain-separated derivation
// of every backend-specific secret from a caller's ARID.
// Everything here is a pure function — no I/O, no error path, no state.
package keyderive

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"golang.org/x/crypto/hkdf"
)

// Domain separators. Each purpose gets its own versioned constant;
// reusing one across purposes would make the derived outputs linkable.
// casPublisherInfo is not fed through HKDF today — the CAS publisher
// name is a direct hex rendering of the ARID — but the constant is kept
// so a future protocol version can switch CASName to an HKDF-derived
// handle without renaming the domain-separator table.
const (
	dhtSigningInfo   = "hubert-mainline-dht-v1"
	casPublisherInfo = "hubert-ipfs-ipns-v1"
	obfuscationInfo  = "hubert-obfuscation-v1"
)

// Keys bundles everything derivable from a single ARID.
type Keys struct {
	// DHTSeed is the 32-byte Ed25519 seed for the mainline-DHT signing key.
	DHTSeed [32]byte
	// CASName is the deterministic publisher handle for the CAS backend.
	CASName string
	// ObfuscationKey is the 32-byte key for internal/obfuscate.
	ObfuscationKey [32]byte
}

// Derive computes all three purposes for the given ARID. Same ARID in ⇒
// same Keys out, on every run and every conforming implementation.
func Derive(a arid.Arid) Keys {
	return Keys{
		DHTSeed:        expand32(a, dhtSigningInfo),
		CASName:        casName(a),
		ObfuscationKey: expand32(a, obfuscationInfo),
	}
}

// DHTKeypair derives the Ed25519 keypair used to sign mainline-DHT items.
func (k Keys) DHTKeypair() (ed25519.PublicKey, ed25519.PrivateKey) {
	priv := ed25519.NewKeyFromSeed(k.DHTSeed[:])
	return priv.Public().(ed25519.PublicKey), priv
}

func expand32(a arid.Arid, info string) [32]byte {
	h := hkdf.New(sha256.New, a[:], nil, []byte(info))
	var out [32]byte
	if _, err := io.ReadFull(h, out[:]); err != nil {
		// hkdf.Read only fails once the expanded output exceeds
		// 255*hash.Size bytes; 32 bytes never approaches that limit.
		panic("keyderive: hkdf expansion of fixed-size output failed unexpectedly: " + err.Error())
	}
	return out
}

// casName renders the stable textual publisher name: hubert-<hex(arid)>.
// The name is a direct function of the ARID bytes, not an HKDF output,
// so CAS publisher-keypair creation is idempotent across processes
// without needing to persist any derived state.
func casName(a arid.Arid) string {
	return "hubert-" + hex.EncodeToString(a[:])
}
