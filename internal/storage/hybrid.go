package storage

import (
	"context"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
	"github.com/BlockchainCommons/hubert-go/internal/herr"
	"github.com/BlockchainCommons/hubert-go/internal/keyderive"
	"github.com/BlockchainCommons/hubert-go/internal/pollutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// hybridThreshold is the size-based routing cutoff: a serialized
// envelope at or below this many bytes fits directly in the DHT driver's
// own cap and is stored there with no indirection; anything larger is
// offloaded to CAS behind a reference object.
const hybridThreshold = maxDHTValueSize

// HybridRouter always publishes the caller's own arid to the DHT, either
// directly (small payloads) or as a reference object pointing at a
// second, freshly-generated arid where the real payload was offloaded to
// CAS.
type HybridRouter struct {
	dht Driver
	cas Driver
	log zerolog.Logger
}

// NewHybridRouter wires a DHT-backed and a CAS-backed Driver together.
func NewHybridRouter(dht, cas Driver, log zerolog.Logger) *HybridRouter {
	return &HybridRouter{dht: dht, cas: cas, log: log.With().Str("backend", "hybrid").Logger()}
}

var _ Driver = (*HybridRouter)(nil)

func (h *HybridRouter) Put(ctx context.Context, a arid.Arid, env envelope.Envelope, opts PutOptions) (Receipt, error) {
	size := env.Size()
	if size <= hybridThreshold && !opts.ForceCAS {
		if _, err := h.dht.Put(ctx, a, env, opts); err != nil {
			return Receipt{}, err
		}
		h.log.Info().Str("arid", a.String()).Int("size", size).Msg("routed direct to dht")
		return Receipt{Kind: DhtOnly}, nil
	}

	contentArid, err := arid.New()
	if err != nil {
		return Receipt{}, errors.Wrap(err, "hybrid: generate content arid")
	}

	casReceipt, err := h.cas.Put(ctx, contentArid, env, opts)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "hybrid: cas leg")
	}

	ref := envelope.NewReference(contentArid, size)
	if _, err := h.dht.Put(ctx, a, ref, PutOptions{}); err != nil {
		return Receipt{}, errors.Wrap(err, "hybrid: dht reference leg")
	}

	h.log.Info().Str("arid", a.String()).Str("content_arid", contentArid.String()).Int("size", size).Msg("routed via cas with dht reference")
	return Receipt{
		Kind:          HybridRef,
		ContentArid:   contentArid,
		PublishedName: casReceipt.PublishedName,
		ContentID:     casReceipt.ContentID,
	}, nil
}

func (h *HybridRouter) Get(ctx context.Context, a arid.Arid, timeout time.Duration) (*envelope.Envelope, error) {
	env, err := h.dht.Get(ctx, a, timeout)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, nil
	}

	ref, isRef := env.AsReference()
	if !isRef {
		return env, nil
	}

	h.log.Debug().Str("arid", a.String()).Str("content_arid", ref.Arid.String()).Msg("following reference to cas")
	content, err := h.cas.Get(ctx, ref.Arid, timeout)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, errors.Wrap(herr.ErrReferenceNotFound, "hybrid: dht reference present but cas content missing")
	}
	return content, nil
}

func (h *HybridRouter) Exists(ctx context.Context, a arid.Arid) (bool, error) {
	return h.dht.Exists(ctx, a)
}

// StorageInfo reports how a published value is stored without fetching
// its full payload: DhtOnly if it's stored directly, or the CAS content
// identifier and publisher name behind the reference object if not.
func (h *HybridRouter) StorageInfo(ctx context.Context, a arid.Arid) (Receipt, error) {
	env, err := h.dht.Get(ctx, a, pollutil.DefaultTimeout)
	if err != nil {
		return Receipt{}, err
	}
	if env == nil {
		return Receipt{}, errors.Wrap(herr.ErrNotFound, "hybrid: storage_info: nothing published at this arid")
	}
	ref, isRef := env.AsReference()
	if !isRef {
		return Receipt{Kind: DhtOnly}, nil
	}
	casDriver, ok := h.cas.(*CASDriver)
	if !ok {
		return Receipt{Kind: HybridRef, ContentArid: ref.Arid}, nil
	}
	keys := keyderive.Derive(ref.Arid)
	contentID, found, err := casDriver.names.Resolve(ctx, keys.CASName)
	if err != nil {
		return Receipt{}, err
	}
	if !found {
		return Receipt{}, errors.Wrap(herr.ErrReferenceNotFound, "hybrid: storage_info: dht reference present but cas name unresolved")
	}
	return Receipt{Kind: HybridRef, ContentArid: ref.Arid, PublishedName: keys.CASName, ContentID: contentID}, nil
}
