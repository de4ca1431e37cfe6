package storage

import (
	"context"
	"crypto/ed25519"
	stderrors "errors"
	"sync"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
	"github.com/BlockchainCommons/hubert-go/internal/herr"
	"github.com/BlockchainCommons/hubert-go/internal/keyderive"
	"github.com/BlockchainCommons/hubert-go/internal/obfuscate"
	"github.com/BlockchainCommons/hubert-go/internal/pollutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// maxDHTValueSize is the conservative serialized-envelope cap: below the
// underlying mainline-DHT wire limit on the encoded item, to leave
// headroom for bencode/signature framing overhead.
const maxDHTValueSize = 1000

// MutableStore is the narrow transport seam the DHT driver is coded
// against. A single publication per (pub, salt=nil) key is enforced by
// the driver, not the store: the store just reports whatever sequence
// number (if any) currently occupies that slot.
type MutableStore interface {
	// Probe reports whether any item currently exists at (pub, salt=nil),
	// and its sequence number if so. No value bytes need be fetched.
	Probe(ctx context.Context, pub ed25519.PublicKey) (seq int64, found bool, err error)

	// Put publishes value at (pub, salt=nil) with the given sequence
	// number, signed by priv, and waits for at least one remote
	// acknowledgement of storage.
	Put(ctx context.Context, pub ed25519.PublicKey, priv ed25519.PrivateKey, value []byte, seq int64) error

	// Get fetches the most recent value at (pub, salt=nil), if any.
	Get(ctx context.Context, pub ed25519.PublicKey) (value []byte, found bool, err error)
}

// DHTDriver implements the mainline-DHT backend over a MutableStore.
type DHTDriver struct {
	store MutableStore
	log   zerolog.Logger
}

// NewDHTDriver wraps store as a Driver.
func NewDHTDriver(store MutableStore, log zerolog.Logger) *DHTDriver {
	return &DHTDriver{store: store, log: log.With().Str("backend", "dht").Logger()}
}

var _ Driver = (*DHTDriver)(nil)

func (d *DHTDriver) Put(ctx context.Context, a arid.Arid, env envelope.Envelope, opts PutOptions) (Receipt, error) {
	serialized := env.Serialize()
	if len(serialized) > maxDHTValueSize {
		return Receipt{}, errors.Wrapf(herr.ErrValueTooLarge, "dht: serialized envelope is %d bytes, limit %d", len(serialized), maxDHTValueSize)
	}

	keys := keyderive.Derive(a)
	obfuscated := obfuscate.Apply(keys.ObfuscationKey, serialized)
	pub, priv := keys.DHTKeypair()

	if _, found, err := d.store.Probe(ctx, pub); err != nil {
		return Receipt{}, errors.Wrap(herr.ErrNetwork, err.Error())
	} else if found {
		return Receipt{}, errors.Wrap(herr.ErrAlreadyExists, "dht: item already published at this arid")
	}

	if err := d.store.Put(ctx, pub, priv, obfuscated, 1); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return Receipt{}, errors.Wrap(herr.ErrTimeout, "dht: put deadline exceeded")
		}
		return Receipt{}, errors.Wrap(herr.ErrNetwork, err.Error())
	}

	d.log.Info().Str("arid", a.String()).Int("size", len(serialized)).Msg("put")
	return Receipt{Kind: Direct}, nil
}

func (d *DHTDriver) Get(ctx context.Context, a arid.Arid, timeout time.Duration) (*envelope.Envelope, error) {
	keys := keyderive.Derive(a)
	pub, _ := keys.DHTKeypair()

	value, err := pollutil.Poll(ctx, timeout, func(ctx context.Context) ([]byte, bool, error) {
		return d.store.Get(ctx, pub)
	})
	if err != nil {
		return nil, errors.Wrap(herr.ErrNetwork, err.Error())
	}
	if value == nil {
		d.log.Debug().Str("arid", a.String()).Msg("get: absent within deadline")
		return nil, nil
	}

	plain := obfuscate.Remove(keys.ObfuscationKey, value)
	env, err := envelope.Parse(plain)
	if err != nil {
		return nil, errors.Wrap(herr.ErrDecode, err.Error())
	}
	d.log.Info().Str("arid", a.String()).Msg("get: hit")
	return &env, nil
}

func (d *DHTDriver) Exists(ctx context.Context, a arid.Arid) (bool, error) {
	keys := keyderive.Derive(a)
	pub, _ := keys.DHTKeypair()
	_, found, err := d.store.Probe(ctx, pub)
	if err != nil {
		return false, errors.Wrap(herr.ErrNetwork, err.Error())
	}
	return found, nil
}

// memoryMutableStore is an in-process fake used by tests: an in-memory
// map guarded by a mutex, standing in
// for the real transport, keyed the way mainline-DHT mutable items
// actually are: by public key, carrying a monotonic sequence number.
type memoryMutableStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	value []byte
	seq   int64
}

// NewMemoryMutableStore returns a MutableStore backed by process memory,
// for tests. The CLI's dht and hybrid backends always use
// AnacrolixMutableStore.
func NewMemoryMutableStore() MutableStore {
	return &memoryMutableStore{items: map[string]memoryItem{}}
}

func (s *memoryMutableStore) Probe(ctx context.Context, pub ed25519.PublicKey) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[string(pub)]
	if !ok {
		return 0, false, nil
	}
	return item.seq, true, nil
}

func (s *memoryMutableStore) Put(ctx context.Context, pub ed25519.PublicKey, priv ed25519.PrivateKey, value []byte, seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[string(pub)]; ok && existing.seq >= seq {
		return errors.New("memory dht: sequence conflict")
	}
	_ = priv // a real store would verify the signature; the fake trusts the caller
	s.items[string(pub)] = memoryItem{value: append([]byte(nil), value...), seq: seq}
	return nil
}

func (s *memoryMutableStore) Get(ctx context.Context, pub ed25519.PublicKey) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[string(pub)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), item.value...), true, nil
}

var _ MutableStore = (*memoryMutableStore)(nil)
