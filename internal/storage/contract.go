// Package storage implements the three write-once backend drivers, the
// hybrid router that sits above DHT and CAS, and the unified
// {put, get, exists} contract they all satisfy.
//
// Every transport concern (mainline-DHT mutable items, the CAS daemon's
// object store and name service, the HTTP dropbox) is expressed as a
// narrow interface so drivers are unit-testable against a fake and only
// one production adapter per transport needs the real third-party
// client.
package storage

import (
	"context"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
)

// Driver is the unified contract. All three backend drivers and the
// hybrid router satisfy it; callers dispatch dynamically on this
// interface, selected by the --storage flag at the CLI boundary.
type Driver interface {
	// Put writes env at arid. Write-once: a second Put at the same arid
	// on the same backend fails with herr.ErrAlreadyExists (modulo an
	// unavoidable probe-then-publish race under concurrent writers).
	// opts.TTL is interpreted per backend: zero means "use the backend
	// default".
	Put(ctx context.Context, a arid.Arid, env envelope.Envelope, opts PutOptions) (Receipt, error)

	// Get polls for a published value up to timeout (zero means the
	// backend default). Returns (nil, nil) if nothing is published by
	// the deadline — absence is not an error.
	Get(ctx context.Context, a arid.Arid, timeout time.Duration) (*envelope.Envelope, error)

	// Exists is a cheap probe that never fetches more payload than the
	// probe itself costs.
	Exists(ctx context.Context, a arid.Arid) (bool, error)
}

// PutOptions carries the optional parameters the unified contract allows
// per put.
type PutOptions struct {
	// TTL is interpreted per backend (ignored by DHT, used by CAS/Server).
	// Zero means "use the backend default".
	TTL time.Duration
	// Pin requests that the CAS driver pin the object locally.
	Pin bool
	// ForceCAS forces the hybrid router to route through CAS even for a
	// payload small enough to fit directly in the DHT.
	ForceCAS bool
}

// ReceiptKind distinguishes how the hybrid router stored a value.
type ReceiptKind int

const (
	// DhtOnly: the payload was small enough to store directly in the DHT.
	DhtOnly ReceiptKind = iota
	// HybridRef: the payload was offloaded to CAS and a reference object
	// was published to the DHT under the original ARID.
	HybridRef
	// Direct: a non-router driver (DHT, CAS, or Server) handled the put
	// on its own, with no routing decision to report.
	Direct
)

// Receipt describes how a put was ultimately stored.
type Receipt struct {
	Kind ReceiptKind

	// ContentArid is set only when Kind == HybridRef. PublishedName and
	// ContentID are set for HybridRef and for the CAS driver's Direct
	// receipt.
	ContentArid   arid.Arid
	PublishedName string
	ContentID     string
}

func (r Receipt) String() string {
	switch r.Kind {
	case DhtOnly:
		return "DhtOnly"
	case HybridRef:
		return "Hybrid{arid_ref=" + r.ContentArid.String() + ", content_id=" + r.ContentID + ", name=" + r.PublishedName + "}"
	default:
		return "Direct"
	}
}
