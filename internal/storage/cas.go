package storage

import (
	"context"
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

// maxCASValueSize is the practical abuse-guard cap for the CAS backend:
// no protocol-mandated limit, just a refusal of obviously oversized blobs.
const maxCASValueSize = 10 << 20 // ~10 MiB

// defaultCASTTL is the backend default publication lifetime.
const defaultCASTTL = 24 * time.Hour

// NameService is the narrow seam over the CAS backend's name layer: a
// deterministic publisher name resolves to a content identifier, the
// mapping signed by a publisher keypair.
type NameService interface {
	// EnsureKey creates a publisher keypair named keyName if one doesn't
	// already exist, or reuses it if it does.
	EnsureKey(ctx context.Context, keyName string) error
	// Resolve looks up the content identifier currently published under
	// name, if any.
	Resolve(ctx context.Context, name string) (cid string, found bool, err error)
	// Publish maps name to cid for ttl, signed by keyName's keypair. This
	// is the write-once gate for the CAS backend.
	Publish(ctx context.Context, keyName, name, cid string, ttl time.Duration) error
}

// ContentStore is the narrow seam over the CAS backend's object store.
type ContentStore interface {
	// Add stores data and returns its content identifier.
	Add(ctx context.Context, data []byte) (cid string, err error)
	// Pin marks cid as not eligible for garbage collection.
	Pin(ctx context.Context, cid string) error
	// Fetch retrieves the bytes for cid.
	Fetch(ctx context.Context, cid string) ([]byte, error)
}

// CASDriver implements the content-addressed backend over a NameService
// and ContentStore.
type CASDriver struct {
	names   NameService
	content ContentStore
	log     zerolog.Logger

	// keyCache remembers which publisher names already have a keypair on
	// this process, avoiding a repeated EnsureKey round-trip per put —
	// avoiding repeated daemon round-trips under concurrent puts.
	keyCache sync.Map // name -> struct{}
}

// NewCASDriver wraps names/content as a Driver.
func NewCASDriver(names NameService, content ContentStore, log zerolog.Logger) *CASDriver {
	return &CASDriver{names: names, content: content, log: log.With().Str("backend", "cas").Logger()}
}

var _ Driver = (*CASDriver)(nil)

func (d *CASDriver) Put(ctx context.Context, a arid.Arid, env envelope.Envelope, opts PutOptions) (Receipt, error) {
	serialized := env.Serialize()
	if len(serialized) > maxCASValueSize {
		return Receipt{}, errors.Wrapf(herr.ErrValueTooLarge, "cas: serialized envelope is %d bytes, limit %d", len(serialized), maxCASValueSize)
	}

	keys := keyderive.Derive(a)
	obfuscated := obfuscate.Apply(keys.ObfuscationKey, serialized)

	if err := d.ensureKey(ctx, keys.CASName); err != nil {
		return Receipt{}, errors.Wrap(herr.ErrDaemon, err.Error())
	}

	if _, found, err := d.names.Resolve(ctx, keys.CASName); err != nil {
		return Receipt{}, errors.Wrap(herr.ErrDaemon, err.Error())
	} else if found {
		return Receipt{}, errors.Wrap(herr.ErrAlreadyExists, "cas: name already published")
	}

	cid, err := d.content.Add(ctx, obfuscated)
	if err != nil {
		return Receipt{}, errors.Wrap(herr.ErrDaemon, err.Error())
	}
	if opts.Pin {
		if err := d.content.Pin(ctx, cid); err != nil {
			return Receipt{}, errors.Wrap(herr.ErrDaemon, err.Error())
		}
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultCASTTL
	}
	if err := d.names.Publish(ctx, keys.CASName, keys.CASName, cid, ttl); err != nil {
		return Receipt{}, errors.Wrap(herr.ErrDaemon, err.Error())
	}

	d.log.Info().Str("arid", a.String()).Str("cid", cid).Str("name", keys.CASName).Msg("put")
	return Receipt{Kind: Direct, ContentID: cid, PublishedName: keys.CASName}, nil
}

func (d *CASDriver) Get(ctx context.Context, a arid.Arid, timeout time.Duration) (*envelope.Envelope, error) {
	keys := keyderive.Derive(a)

	cid, err := pollutil.Poll(ctx, timeout, func(ctx context.Context) (string, bool, error) {
		return d.names.Resolve(ctx, keys.CASName)
	})
	if err != nil {
		return nil, errors.Wrap(herr.ErrDaemon, err.Error())
	}
	if cid == "" {
		d.log.Debug().Str("arid", a.String()).Msg("get: absent within deadline")
		return nil, nil
	}

	raw, err := d.content.Fetch(ctx, cid)
	if err != nil {
		return nil, errors.Wrap(herr.ErrDaemon, err.Error())
	}

	plain := obfuscate.Remove(keys.ObfuscationKey, raw)
	env, err := envelope.Parse(plain)
	if err != nil {
		return nil, errors.Wrap(herr.ErrDecode, err.Error())
	}
	d.log.Info().Str("arid", a.String()).Str("cid", cid).Msg("get: hit")
	return &env, nil
}

func (d *CASDriver) Exists(ctx context.Context, a arid.Arid) (bool, error) {
	keys := keyderive.Derive(a)
	_, found, err := d.names.Resolve(ctx, keys.CASName)
	if err != nil {
		return false, errors.Wrap(herr.ErrDaemon, err.Error())
	}
	return found, nil
}

func (d *CASDriver) ensureKey(ctx context.Context, name string) error {
	if _, ok := d.keyCache.Load(name); ok {
		return nil
	}
	if err := d.names.EnsureKey(ctx, name); err != nil {
		return err
	}
	d.keyCache.Store(name, struct{}{})
	return nil
}
