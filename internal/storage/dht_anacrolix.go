package storage

import (
	"context"
	"crypto/ed25519"
	"crypto/sha1"

	"github.com/anacrolix/dht/v2"
	"github.com/anacrolix/dht/v2/bep44"
	"github.com/anacrolix/torrent/bencode"
	"github.com/pkg/errors"
)

// AnacrolixMutableStore adapts a real BitTorrent mainline-DHT node
// (github.com/anacrolix/dht/v2) to the MutableStore seam, implementing
// BEP44 mutable-item put/get: value keyed by Ed25519 public key with an
// empty salt, a monotonic sequence number, and a signature over
// (seq, salt, v).
type AnacrolixMutableStore struct {
	server *dht.Server
}

// NewAnacrolixMutableStore wraps an already-bootstrapped DHT server.
func NewAnacrolixMutableStore(server *dht.Server) *AnacrolixMutableStore {
	return &AnacrolixMutableStore{server: server}
}

var _ MutableStore = (*AnacrolixMutableStore)(nil)

// target computes the BEP44 target hash for a mutable item: sha1 of the
// public key (salt is always nil for Hubert).
func target(pub ed25519.PublicKey) bep44.Target {
	return sha1.Sum(pub)
}

func (s *AnacrolixMutableStore) Probe(ctx context.Context, pub ed25519.PublicKey) (int64, bool, error) {
	it, found, err := s.server.GetMutable(ctx, target(pub))
	if err != nil {
		return 0, false, errors.Wrap(err, "dht: probe")
	}
	if !found {
		return 0, false, nil
	}
	return it.Seq, true, nil
}

func (s *AnacrolixMutableStore) Put(ctx context.Context, pub ed25519.PublicKey, priv ed25519.PrivateKey, value []byte, seq int64) error {
	var k [32]byte
	copy(k[:], pub)

	item := bep44.Item{
		V:    bencode.Bytes(value),
		K:    &k,
		Salt: nil,
		Seq:  seq,
	}
	sig := ed25519.Sign(priv, item.SignatureData())
	copy(item.Sig[:], sig)

	if err := s.server.PutMutable(ctx, &item); err != nil {
		return errors.Wrap(err, "dht: put")
	}
	return nil
}

func (s *AnacrolixMutableStore) Get(ctx context.Context, pub ed25519.PublicKey) ([]byte, bool, error) {
	it, found, err := s.server.GetMutable(ctx, target(pub))
	if err != nil {
		return nil, false, errors.Wrap(err, "dht: get")
	}
	if !found {
		return nil, false, nil
	}
	v, ok := it.V.(bencode.Bytes)
	if !ok {
		return nil, false, errors.New("dht: unexpected value encoding for mutable item")
	}
	return v, true, nil
}
