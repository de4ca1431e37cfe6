package storage

import (
	"context"
	"testing"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
	"github.com/BlockchainCommons/hubert-go/internal/herr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestDHTDriver() *DHTDriver {
	return NewDHTDriver(NewMemoryMutableStore(), zerolog.Nop())
}

func TestDHTSmallRoundtrip(t *testing.T) {
	d := newTestDHTDriver()
	a, err := arid.New()
	require.NoError(t, err)
	env := envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: []byte("Hello, Hubert")})

	receipt, err := d.Put(context.Background(), a, env, PutOptions{})
	require.NoError(t, err)
	require.Equal(t, Direct, receipt.Kind)

	got, err := d.Get(context.Background(), a, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, envelope.Equal(env, *got))

	exists, err := d.Exists(context.Background(), a)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestDHTWriteOnceSecondPutFails(t *testing.T) {
	d := newTestDHTDriver()
	a, err := arid.New()
	require.NoError(t, err)

	_, err = d.Put(context.Background(), a, envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: []byte("v1")}), PutOptions{})
	require.NoError(t, err)

	_, err = d.Put(context.Background(), a, envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: []byte("v2")}), PutOptions{})
	require.ErrorIs(t, err, herr.ErrAlreadyExists)

	got, err := d.Get(context.Background(), a, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	obj, ok := got.Object("p")
	require.True(t, ok)
	require.Equal(t, "v1", string(obj))
}

func TestDHTOversizeRejectedBeforeNetworkIO(t *testing.T) {
	d := newTestDHTDriver()
	a, err := arid.New()
	require.NoError(t, err)
	big := make([]byte, 1500)
	env := envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: big})
	require.Greater(t, env.Size(), maxDHTValueSize)

	_, err = d.Put(context.Background(), a, env, PutOptions{})
	require.ErrorIs(t, err, herr.ErrValueTooLarge)

	exists, err := d.Exists(context.Background(), a)
	require.NoError(t, err)
	require.False(t, exists, "a rejected oversize put must never reach the transport")
}

func TestDHTExistsFalseWhenAbsent(t *testing.T) {
	d := newTestDHTDriver()
	a, err := arid.New()
	require.NoError(t, err)

	exists, err := d.Exists(context.Background(), a)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDHTGetAbsentIsNilNotError(t *testing.T) {
	d := newTestDHTDriver()
	a, err := arid.New()
	require.NoError(t, err)

	got, err := d.Get(context.Background(), a, 300*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, got)
}
