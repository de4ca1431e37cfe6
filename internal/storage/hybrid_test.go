package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestHybridRouter() *HybridRouter {
	dht := NewDHTDriver(NewMemoryMutableStore(), zerolog.Nop())
	cas := NewCASDriver(newFakeNameService(), newFakeContentStore(), zerolog.Nop())
	return NewHybridRouter(dht, cas, zerolog.Nop())
}

func TestHybridSmallPayloadGoesDirectToDHT(t *testing.T) {
	h := newTestHybridRouter()
	a, err := arid.New()
	require.NoError(t, err)
	env := envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: []byte("small")})

	receipt, err := h.Put(context.Background(), a, env, PutOptions{})
	require.NoError(t, err)
	require.Equal(t, DhtOnly, receipt.Kind)

	got, err := h.Get(context.Background(), a, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, envelope.Equal(env, *got))
}

func TestHybridLargePayloadRoutesViaCAS(t *testing.T) {
	h := newTestHybridRouter()
	a, err := arid.New()
	require.NoError(t, err)
	big := bytes.Repeat([]byte{0x42}, hybridThreshold+1)
	env := envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: big})

	receipt, err := h.Put(context.Background(), a, env, PutOptions{})
	require.NoError(t, err)
	require.Equal(t, HybridRef, receipt.Kind)
	require.NotEqual(t, arid.Arid{}, receipt.ContentArid)

	got, err := h.Get(context.Background(), a, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, envelope.Equal(env, *got))
}

func TestHybridForceCASRoutesSmallPayloadThroughCAS(t *testing.T) {
	h := newTestHybridRouter()
	a, err := arid.New()
	require.NoError(t, err)
	env := envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: []byte("tiny")})

	receipt, err := h.Put(context.Background(), a, env, PutOptions{ForceCAS: true})
	require.NoError(t, err)
	require.Equal(t, HybridRef, receipt.Kind)
}

func TestHybridGetAbsentIsNilNotError(t *testing.T) {
	h := newTestHybridRouter()
	a, err := arid.New()
	require.NoError(t, err)

	got, err := h.Get(context.Background(), a, 300*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestHybridStorageInfoReportsDhtOnly(t *testing.T) {
	h := newTestHybridRouter()
	a, err := arid.New()
	require.NoError(t, err)
	env := envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: []byte("small")})

	_, err = h.Put(context.Background(), a, env, PutOptions{})
	require.NoError(t, err)

	info, err := h.StorageInfo(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, DhtOnly, info.Kind)
}

func TestHybridStorageInfoReportsHybridRef(t *testing.T) {
	h := newTestHybridRouter()
	a, err := arid.New()
	require.NoError(t, err)
	big := bytes.Repeat([]byte{0x42}, hybridThreshold+1)
	env := envelope.New([]byte("s"), envelope.Assertion{Predicate: "p", Object: big})

	receipt, err := h.Put(context.Background(), a, env, PutOptions{})
	require.NoError(t, err)

	info, err := h.StorageInfo(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, HybridRef, info.Kind)
	require.Equal(t, receipt.ContentArid, info.ContentArid)
}

func TestHybridReferenceDanglingIsReported(t *testing.T) {
	h := newTestHybridRouter()
	caller, err := arid.New()
	require.NoError(t, err)
	contentArid, err := arid.New()
	require.NoError(t, err)

	ref := envelope.NewReference(contentArid, 999)
	_, err = h.dht.Put(context.Background(), caller, ref, PutOptions{})
	require.NoError(t, err)

	_, err = h.Get(context.Background(), caller, 300*time.Millisecond)
	require.Error(t, err)
}
