package envelope

import (
	"bytes"
	"encoding/binary"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
)

// sentinelSubject is the tagged value meaning "this envelope is an
// indirection marker". It begins with a NUL byte (real subjects are
// expected to be human/machine content, not a leading NUL). The codec does
// not reserve it: New and Parse accept any subject bytes, so keeping
// application subjects clear of this value is a convention of this
// protocol version.
var sentinelSubject = []byte("\x00hubert-ref-v1")

const (
	predicateDereferenceVia = "dereference-via"
	predicateID             = "id"
	predicateSize           = "size"

	// dereferenceViaCAS is the only dereference-via value this protocol
	// version defines: "follow to the content-addressed store".
	dereferenceViaCAS = "content-addressed"
)

// Reference is a decoded indirection marker.
type Reference struct {
	Arid arid.Arid
	Size int
	// HasSize reports whether the diagnostic size assertion was present.
	HasSize bool
}

// NewReference builds the envelope stored in the DHT in place of a large
// payload: a sentinel subject plus the fresh ARID where the real payload
// lives in CAS, and a diagnostic size assertion.
func NewReference(ref arid.Arid, size int) Envelope {
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(size))
	return New(sentinelSubject,
		Assertion{Predicate: predicateDereferenceVia, Object: []byte(dereferenceViaCAS)},
		Assertion{Predicate: predicateID, Object: append([]byte(nil), ref[:]...)},
		Assertion{Predicate: predicateSize, Object: sizeBuf[:]},
	)
}

// AsReference reports whether e is a reference object and, if so, decodes
// it. An envelope whose subject isn't the sentinel, or whose assertions
// don't match the reference schema, is ordinary application data and ok is
// false — e is passed through unchanged by the caller.
func (e Envelope) AsReference() (Reference, bool) {
	if !bytes.Equal(e.subject, sentinelSubject) {
		return Reference{}, false
	}
	via, ok := e.Object(predicateDereferenceVia)
	if !ok || string(via) != dereferenceViaCAS {
		return Reference{}, false
	}
	idBytes, ok := e.Object(predicateID)
	if !ok {
		return Reference{}, false
	}
	a, err := arid.FromBytes(idBytes)
	if err != nil {
		return Reference{}, false
	}
	ref := Reference{Arid: a}
	if sizeBytes, ok := e.Object(predicateSize); ok && len(sizeBytes) == 8 {
		ref.Size = int(binary.BigEndian.Uint64(sizeBytes))
		ref.HasSize = true
	}
	return ref, true
}
