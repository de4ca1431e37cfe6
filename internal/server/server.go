// Package server implements the Server backend's HTTP dropbox: a small,
// memory-only write-once store that a Hubert node can stand up itself
// instead of depending on a mainline-DHT swarm or a CAS daemon. It speaks
// the fixed wire protocol: POST /put with a 3-line body (ARID canonical
// text, envelope canonical text, optional TTL seconds), POST /get with
// the ARID canonical text as the whole body. Routes are handled one
// function per operation, using gorilla/mux for path routing.
package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// entry is one stored item: the caller's opaque envelope text plus an
// expiry. The server never interprets the bytes — whatever textual form
// the driver sent is returned unchanged to the getter.
type entry struct {
	envelopeText string
	expiresAt    time.Time
}

// defaultMaxTTL is the server's configured maximum publication lifetime;
// a put with no TTL line, or a TTL line exceeding it, is clamped to this.
const defaultMaxTTL = 24 * time.Hour

// Store is the in-memory write-once item table the handlers operate on,
// keyed by the ARID's own canonical textual form. There is deliberately
// no persistence layer: a restart forgets everything, an accepted
// tradeoff for a backend whose whole purpose is "a dropbox you already
// trust".
type Store struct {
	mu      sync.Mutex
	items   map[string]entry
	maxTTL  time.Duration
	stopped chan struct{}
}

// NewStore creates an empty item table with the default maximum TTL and
// starts its background expiry sweep.
func NewStore() *Store {
	return NewStoreWithMaxTTL(defaultMaxTTL)
}

// NewStoreWithMaxTTL is like NewStore but with a caller-chosen TTL ceiling.
func NewStoreWithMaxTTL(maxTTL time.Duration) *Store {
	s := &Store{items: map[string]entry{}, maxTTL: maxTTL, stopped: make(chan struct{})}
	go s.sweepLoop()
	return s
}

// Close stops the background expiry sweep.
func (s *Store) Close() { close(s.stopped) }

func (s *Store) sweepLoop() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-s.stopped:
			return
		case now := <-t.C:
			s.sweep(now)
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, k)
		}
	}
}

// clampTTL maps requested<=0 (caller asked for "use the maximum") or an
// over-long request down to the store's ceiling.
func (s *Store) clampTTL(requested time.Duration) time.Duration {
	if requested <= 0 || requested > s.maxTTL {
		return s.maxTTL
	}
	return requested
}

// Put stores envelopeText under aridText if and only if no live entry
// already occupies it; ok is false if one does.
func (s *Store) Put(aridText, envelopeText string, ttl time.Duration) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, exists := s.items[aridText]; exists && time.Now().Before(e.expiresAt) {
		return false
	}
	s.items[aridText] = entry{envelopeText: envelopeText, expiresAt: time.Now().Add(s.clampTTL(ttl))}
	return true
}

// Get returns the live envelope text under aridText, if any.
func (s *Store) Get(aridText string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[aridText]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.envelopeText, true
}

// Exists reports liveness without fetching the payload.
func (s *Store) Exists(aridText string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[aridText]
	return ok && time.Now().Before(e.expiresAt)
}

// Handler is the HTTP dropbox: POST /put, POST /get, plus a /health
// liveness check for the "check" CLI subcommand.
type Handler struct {
	store *Store
	log   zerolog.Logger
}

// NewHandler wraps store as an http.Handler.
func NewHandler(store *Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log.With().Str("component", "server").Logger()}
}

// Router builds the mux.Router for the dropbox's routes.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/put", h.handlePut).Methods(http.MethodPost)
	r.HandleFunc("/get", h.handleGet).Methods(http.MethodPost)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handlePut parses the 3-line body (ARID text, envelope text, optional
// TTL-seconds) and enforces write-once: 200 on success, 400 on malformed
// input, 409 on a duplicate ARID.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	lines := strings.SplitN(string(body), "\n", 3)
	if len(lines) < 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	aridText, envelopeText := lines[0], lines[1]
	if _, err := arid.Parse(aridText); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var ttl time.Duration
	if len(lines) == 3 && lines[2] != "" {
		secs, err := strconv.Atoi(strings.TrimSpace(lines[2]))
		if err != nil || secs < 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ttl = time.Duration(secs) * time.Second
	}

	if !h.store.Put(aridText, envelopeText, ttl) {
		h.log.Debug().Str("arid", aridText).Msg("put: already exists")
		w.WriteHeader(http.StatusConflict)
		return
	}
	h.log.Info().Str("arid", aridText).Int("size", len(envelopeText)).Msg("put")
	w.WriteHeader(http.StatusOK)
}

// handleGet reads the ARID's canonical text from the whole request body
// and returns the stored envelope text: 200 with the envelope in the
// response body, 404 on absent or expired, 400 on malformed input.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	aridText := strings.TrimSpace(string(body))
	if _, err := arid.Parse(aridText); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	envelopeText, ok := h.store.Get(aridText)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, envelopeText)
}
