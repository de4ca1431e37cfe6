package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Store, *httptest.Server) {
	t.Helper()
	store := NewStore()
	t.Cleanup(store.Close)
	h := NewHandler(store, zerolog.Nop())
	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)
	return store, ts
}

func newTestAridText(t *testing.T) string {
	t.Helper()
	a, err := arid.New()
	require.NoError(t, err)
	return a.String()
}

func TestPutThenGet(t *testing.T) {
	_, ts := newTestServer(t)
	aridText := newTestAridText(t)

	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(aridText+"\nenvelope-text"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/get", "text/plain", strings.NewReader(aridText))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSecondPutConflicts(t *testing.T) {
	_, ts := newTestServer(t)
	aridText := newTestAridText(t)

	put := func() *http.Response {
		resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(aridText+"\nenvelope-text"))
		require.NoError(t, err)
		return resp
	}
	require.Equal(t, http.StatusOK, put().StatusCode)
	require.Equal(t, http.StatusConflict, put().StatusCode)
}

func TestGetMissingIsNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/get", "text/plain", strings.NewReader(newTestAridText(t)))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutMalformedAridIsBadRequest(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader("not-an-arid\nenvelope-text"))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutMissingEnvelopeLineIsBadRequest(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(newTestAridText(t)))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMalformedAridIsBadRequest(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/get", "text/plain", strings.NewReader("not-an-arid"))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStoreExistsReflectsPresence(t *testing.T) {
	store, ts := newTestServer(t)
	aridText := newTestAridText(t)
	require.False(t, store.Exists(aridText))

	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(aridText+"\nenvelope-text"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.True(t, store.Exists(aridText))
}

func TestStoreExpiresEntries(t *testing.T) {
	store := NewStore()
	defer store.Close()

	require.True(t, store.Put("k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok := store.Get("k")
	require.False(t, ok)
}

func TestStoreTTLClampsToMaximum(t *testing.T) {
	store := NewStoreWithMaxTTL(10 * time.Millisecond)
	defer store.Close()

	require.True(t, store.Put("k", "v", time.Hour))
	time.Sleep(20 * time.Millisecond)
	_, ok := store.Get("k")
	require.False(t, ok, "TTL should have clamped down to the store's maximum")
}
