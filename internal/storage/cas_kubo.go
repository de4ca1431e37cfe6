package storage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/ipfs/boxo/files"
	"github.com/ipfs/boxo/path"
	"github.com/ipfs/go-cid"
	rpc "github.com/ipfs/kubo/client/rpc"
	"github.com/pkg/errors"
)

// pathFromCID turns a CID string into the boxo path type kubo's RPC client
// expects for pin/get/publish calls.
func pathFromCID(cidStr string) (path.Path, error) {
	c, err := cid.Decode(cidStr)
	if err != nil {
		return nil, errors.Wrap(err, "ipfs: decode cid")
	}
	return path.FromCid(c), nil
}

// filesNode wraps a reader as the single-file UnixFS node kubo's Add API
// expects.
func filesNode(r io.Reader) files.Node {
	return files.NewReaderFile(r)
}

// KuboNameService adapts a running Kubo (go-ipfs) daemon's IPNS name layer
// to the NameService seam, over its HTTP RPC API.
type KuboNameService struct {
	api *rpc.HttpApi
}

// NewKuboNameService wraps a Kubo RPC client that is already connected to
// the daemon.
func NewKuboNameService(api *rpc.HttpApi) *KuboNameService {
	return &KuboNameService{api: api}
}

var _ NameService = (*KuboNameService)(nil)

func (n *KuboNameService) EnsureKey(ctx context.Context, keyName string) error {
	keys, err := n.api.Key().List(ctx)
	if err != nil {
		return errors.Wrap(err, "ipns: list keys")
	}
	for _, k := range keys {
		if k.Name() == keyName {
			return nil
		}
	}
	_, err = n.api.Key().Generate(ctx, keyName)
	if err != nil {
		return errors.Wrap(err, "ipns: generate key")
	}
	return nil
}

func (n *KuboNameService) Resolve(ctx context.Context, name string) (string, bool, error) {
	keys, err := n.api.Key().List(ctx)
	if err != nil {
		return "", false, errors.Wrap(err, "ipns: list keys")
	}
	var keyPath path.Path
	for _, k := range keys {
		if k.Name() == name {
			keyPath = k.Path()
			break
		}
	}
	if keyPath == nil {
		return "", false, nil
	}
	resolved, err := n.api.Name().Resolve(ctx, keyPath.String())
	if err != nil {
		// A name with no published record yet resolves with an error in
		// kubo's client; treat that as "not found" rather than surfacing
		// daemon noise to callers.
		return "", false, nil
	}
	c, err := cid.Decode(resolved.Cid().String())
	if err != nil {
		return "", false, errors.Wrap(err, "ipns: decode resolved cid")
	}
	return c.String(), true, nil
}

func (n *KuboNameService) Publish(ctx context.Context, keyName, name, cidStr string, ttl time.Duration) error {
	p, err := pathFromCID(cidStr)
	if err != nil {
		return err
	}
	_, err = n.api.Name().Publish(ctx, p, func(opts *rpc.NamePublishSettings) error {
		opts.Key = keyName
		opts.ValidTime = &ttl
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "ipns: publish")
	}
	return nil
}

// KuboObjectStore adapts the daemon's UnixFS/block store to the
// ContentStore seam.
type KuboObjectStore struct {
	api *rpc.HttpApi
}

func NewKuboObjectStore(api *rpc.HttpApi) *KuboObjectStore {
	return &KuboObjectStore{api: api}
}

var _ ContentStore = (*KuboObjectStore)(nil)

func (o *KuboObjectStore) Add(ctx context.Context, data []byte) (string, error) {
	node, err := o.api.Unixfs().Add(ctx, filesNode(bytes.NewReader(data)))
	if err != nil {
		return "", errors.Wrap(err, "ipfs: add")
	}
	return node.Cid().String(), nil
}

func (o *KuboObjectStore) Pin(ctx context.Context, cidStr string) error {
	p, err := pathFromCID(cidStr)
	if err != nil {
		return err
	}
	if err := o.api.Pin().Add(ctx, p); err != nil {
		return errors.Wrap(err, "ipfs: pin")
	}
	return nil
}

func (o *KuboObjectStore) Fetch(ctx context.Context, cidStr string) ([]byte, error) {
	p, err := pathFromCID(cidStr)
	if err != nil {
		return nil, err
	}
	node, err := o.api.Unixfs().Get(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "ipfs: get")
	}
	r, ok := node.(io.Reader)
	if !ok {
		return nil, errors.New("ipfs: unexpected unixfs node type")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "ipfs: read")
	}
	return data, nil
}
