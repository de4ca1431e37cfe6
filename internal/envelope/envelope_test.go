package envelope

import (
	"testing"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/stretchr/testify/require"
)

func TestRoundtrip(t *testing.T) {
	e := New([]byte("hello-subject"), Assertion{Predicate: "note", Object: []byte("Hello, Hubert")})
	data := e.Serialize()

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.True(t, Equal(e, parsed))

	obj, ok := parsed.Object("note")
	require.True(t, ok)
	require.Equal(t, []byte("Hello, Hubert"), obj)
}

func TestDeterministicRegardlessOfConstructionOrder(t *testing.T) {
	e1 := New([]byte("s"),
		Assertion{Predicate: "b", Object: []byte("2")},
		Assertion{Predicate: "a", Object: []byte("1")},
	)
	e2 := New([]byte("s"),
		Assertion{Predicate: "a", Object: []byte("1")},
		Assertion{Predicate: "b", Object: []byte("2")},
	)
	require.Equal(t, e1.Serialize(), e2.Serialize())
}

func TestSizeMatchesSerializeLength(t *testing.T) {
	e := New([]byte("s"), Assertion{Predicate: "p", Object: []byte("o")})
	require.Equal(t, len(e.Serialize()), e.Size())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte{0xff, 0x00, 0x01})
	require.Error(t, err)
}

func TestMissingAssertionNotFound(t *testing.T) {
	e := New([]byte("s"))
	_, ok := e.Object("nope")
	require.False(t, ok)
}

func TestNonReferenceEnvelopePassesThrough(t *testing.T) {
	e := New([]byte("ordinary-application-subject"), Assertion{Predicate: "k", Object: []byte("v")})
	_, ok := e.AsReference()
	require.False(t, ok)
}

func TestReferenceRoundtrip(t *testing.T) {
	ref, err := arid.New()
	require.NoError(t, err)

	e := NewReference(ref, 2048)
	data := e.Serialize()

	parsed, err := Parse(data)
	require.NoError(t, err)

	decoded, ok := parsed.AsReference()
	require.True(t, ok)
	require.Equal(t, ref, decoded.Arid)
	require.True(t, decoded.HasSize)
	require.Equal(t, 2048, decoded.Size)
}

func TestReferenceAridDistinctFromSubject(t *testing.T) {
	// AsReference returns the embedded ARID as decoded bytes, separate
	// from the sentinel subject that marks the envelope as a reference.
	// Keeping to one level of indirection is the router's job (it only
	// ever builds one level of NewReference) and is not checked here.
	ref, err := arid.New()
	require.NoError(t, err)
	e := NewReference(ref, 10)
	decoded, ok := e.AsReference()
	require.True(t, ok)
	require.NotEqual(t, e.Subject(), decoded.Arid[:])
}
