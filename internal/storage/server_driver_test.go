package storage

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
	"github.com/BlockchainCommons/hubert-go/internal/herr"
	hserver "github.com/BlockchainCommons/hubert-go/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServerDriver(t *testing.T) *ServerDriver {
	t.Helper()
	store := hserver.NewStore()
	t.Cleanup(store.Close)
	handler := hserver.NewHandler(store, zerolog.Nop())
	ts := httptest.NewServer(handler.Router())
	t.Cleanup(ts.Close)
	return NewServerDriver(ts.URL, ts.Client(), zerolog.Nop())
}

func TestServerDriverPutThenGet(t *testing.T) {
	d := newTestServerDriver(t)
	a, err := arid.New()
	require.NoError(t, err)
	env := envelope.New([]byte("subject"), envelope.Assertion{Predicate: "p", Object: []byte("v")})

	_, err = d.Put(context.Background(), a, env, PutOptions{})
	require.NoError(t, err)

	got, err := d.Get(context.Background(), a, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, envelope.Equal(env, *got))
}

func TestServerDriverSecondPutConflicts(t *testing.T) {
	d := newTestServerDriver(t)
	a, err := arid.New()
	require.NoError(t, err)
	env := envelope.New([]byte("s"))

	_, err = d.Put(context.Background(), a, env, PutOptions{})
	require.NoError(t, err)

	_, err = d.Put(context.Background(), a, env, PutOptions{})
	require.ErrorIs(t, err, herr.ErrAlreadyExists)
}

func TestServerDriverExists(t *testing.T) {
	d := newTestServerDriver(t)
	a, err := arid.New()
	require.NoError(t, err)

	exists, err := d.Exists(context.Background(), a)
	require.NoError(t, err)
	require.False(t, exists)

	_, err = d.Put(context.Background(), a, envelope.New([]byte("s")), PutOptions{})
	require.NoError(t, err)

	exists, err = d.Exists(context.Background(), a)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestServerDriverGetAbsentIsNilNotError(t *testing.T) {
	d := newTestServerDriver(t)
	a, err := arid.New()
	require.NoError(t, err)

	got, err := d.Get(context.Background(), a, 300*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, got)
}
