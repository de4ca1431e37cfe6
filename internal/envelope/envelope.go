// Package envelope provides the structured value Hubert stores: a subject
// plus zero or more named (predicate, object) assertions, with canonical
// deterministic binary serialization. The router (internal/storage) is
// the only caller that ever looks past the subject — everywhere else an
// Envelope is opaque.
package envelope

import (
	"bytes"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// ErrDecode is returned (wrapped) when bytes do not decode to a valid
// envelope.
var ErrDecode = errors.New("envelope: decode error")

// Assertion is a single named (predicate, object) pair on a subject.
type Assertion struct {
	Predicate string
	Object    []byte
}

// Envelope is Hubert's opaque stored value.
type Envelope struct {
	subject    []byte
	assertions []Assertion
}

// wire is the canonical CBOR representation. Integer map keys keep the
// encoding compact and fully ordered by cbor's canonical mode.
type wire struct {
	Subject    []byte       `cbor:"1,keyasint"`
	Assertions []wireAssert `cbor:"2,keyasint"`
}

type wireAssert struct {
	Predicate string `cbor:"1,keyasint"`
	Object    []byte `cbor:"2,keyasint"`
}

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("envelope: building canonical cbor encoder failed: " + err.Error())
	}
	return m
}()

// New constructs an envelope with the given subject and assertions.
// Assertions are stored in a canonical sort order (by predicate, then
// object) so that two envelopes built from the same logical set of
// assertions — regardless of the order passed to New — serialize
// byte-identically, which is required for the router's size-based routing
// decision to be reproducible.
func New(subject []byte, assertions ...Assertion) Envelope {
	sorted := append([]Assertion(nil), assertions...)
	sortAssertions(sorted)
	return Envelope{subject: append([]byte(nil), subject...), assertions: sorted}
}

func sortAssertions(a []Assertion) {
	sort.Slice(a, func(i, j int) bool {
		if a[i].Predicate != a[j].Predicate {
			return a[i].Predicate < a[j].Predicate
		}
		return bytes.Compare(a[i].Object, a[j].Object) < 0
	})
}

// Subject returns the envelope's subject bytes.
func (e Envelope) Subject() []byte {
	return e.subject
}

// Object returns the object bytes for the first assertion with the given
// predicate, and whether one was found.
func (e Envelope) Object(predicate string) ([]byte, bool) {
	for _, a := range e.assertions {
		if a.Predicate == predicate {
			return a.Object, true
		}
	}
	return nil, false
}

// Assertions returns a copy of the envelope's assertions in canonical order.
func (e Envelope) Assertions() []Assertion {
	return append([]Assertion(nil), e.assertions...)
}

// Serialize produces the canonical deterministic byte encoding. Two
// semantically equal envelopes (same subject, same assertion set) always
// encode identically.
func (e Envelope) Serialize() []byte {
	w := wire{Subject: e.subject, Assertions: make([]wireAssert, len(e.assertions))}
	for i, a := range e.assertions {
		w.Assertions[i] = wireAssert{Predicate: a.Predicate, Object: a.Object}
	}
	b, err := encMode.Marshal(w)
	if err != nil {
		// Marshal only fails for unsupported Go types; wire contains
		// only []byte and string, which cbor always supports.
		panic("envelope: canonical marshal failed unexpectedly: " + err.Error())
	}
	return b
}

// Size returns the length of the serialized form.
func (e Envelope) Size() int {
	return len(e.Serialize())
}

// Parse is the inverse of Serialize.
func Parse(data []byte) (Envelope, error) {
	var w wire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return Envelope{}, errors.Wrap(ErrDecode, err.Error())
	}
	assertions := make([]Assertion, len(w.Assertions))
	for i, a := range w.Assertions {
		assertions[i] = Assertion{Predicate: a.Predicate, Object: a.Object}
	}
	// Already canonical on the wire, but re-sort defensively: a byte
	// stream crafted by hand (or a future encoder bug) must not be able
	// to desynchronize Object() lookups from what Serialize would have
	// produced for the same logical envelope.
	sortAssertions(assertions)
	return Envelope{subject: w.Subject, assertions: assertions}, nil
}

// Equal reports whether two envelopes serialize identically.
func Equal(a, b Envelope) bool {
	return bytes.Equal(a.Serialize(), b.Serialize())
}
