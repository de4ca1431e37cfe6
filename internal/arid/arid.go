// Package arid implements the Apparently Random Identifier: Hubert's sole
// caller-visible key. An ARID is never transmitted to any backend; backends
// see only values derived from it (see internal/keyderive).
package arid

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/multiformats/go-multibase"
	pkgerrors "github.com/pkg/errors"
)

// Size is the fixed length of an ARID in bytes.
const Size = 32

// textPrefix is the canonical tag prepended to the multibase-encoded body.
// Reimplementations of this protocol version must keep it stable.
const textPrefix = "ur:arid/"

// Arid is a 32-byte identifier with uniformly random appearance.
type Arid [Size]byte

// ErrInvalid is returned (wrapped) whenever input fails to decode as a
// 32-byte ARID.
var ErrInvalid = errors.New("invalid arid")

// New generates a fresh ARID from a cryptographically secure source.
func New() (Arid, error) {
	var a Arid
	if _, err := rand.Read(a[:]); err != nil {
		return Arid{}, pkgerrors.Wrap(err, "arid: generate")
	}
	return a, nil
}

// FromBytes wraps a caller-supplied 32-byte slice as an ARID.
func FromBytes(b []byte) (Arid, error) {
	var a Arid
	if len(b) != Size {
		return a, pkgerrors.Wrapf(ErrInvalid, "want %d bytes, got %d", Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Hex renders the ARID as lowercase hex, used by backends that need a
// stable textual function of the ARID for naming (see keyderive.CASName).
func (a Arid) Hex() string {
	return hex.EncodeToString(a[:])
}

// String renders the canonical tagged textual form: ur:arid/<multibase>.
func (a Arid) String() string {
	enc, err := multibase.Encode(multibase.Base32, a[:])
	if err != nil {
		// multibase.Encode only fails for unknown encodings; Base32 is
		// always valid, so this is unreachable in practice.
		return textPrefix
	}
	// Strip multibase's own one-character encoding-identifier prefix —
	// Hubert supplies its own tag so the form doesn't depend on which
	// multibase codec constant a given build links against.
	return textPrefix + enc[1:]
}

// Parse is the exact inverse of String.
func Parse(s string) (Arid, error) {
	var a Arid
	rest, ok := strings.CutPrefix(s, textPrefix)
	if !ok {
		return a, pkgerrors.Wrapf(ErrInvalid, "missing %q prefix", textPrefix)
	}
	_, data, err := multibase.Decode(string(multibase.Base32) + rest)
	if err != nil {
		return a, pkgerrors.Wrap(ErrInvalid, err.Error())
	}
	return FromBytes(data)
}

// IsInvalid reports whether err originated from a malformed ARID.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
