package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
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

// maxServerValueSize mirrors the DHT/CAS abuse guard for the self-hosted
// dropbox backend; unlike DHT it has no protocol-imposed ceiling, so the
// cap here is purely a sanity bound.
const maxServerValueSize = 10 << 20

// ServerDriver talks to a dropbox HTTP server (internal/server) over its
// fixed wire protocol: POST /put with a 3-line \n-joined body (ARID
// canonical text, envelope canonical text, optional TTL seconds), and
// POST /get with the ARID canonical text as the whole request body. The
// "envelope canonical text" line carries the obfuscated serialized
// envelope, base64-encoded so it survives as one text line — the server
// itself never decodes it, only stores and returns it verbatim.
type ServerDriver struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewServerDriver wraps a running dropbox server's base URL (e.g.
// "http://127.0.0.1:45678") as a Driver.
func NewServerDriver(baseURL string, client *http.Client, log zerolog.Logger) *ServerDriver {
	if client == nil {
		client = http.DefaultClient
	}
	return &ServerDriver{baseURL: strings.TrimRight(baseURL, "/"), client: client, log: log.With().Str("backend", "server").Logger()}
}

var _ Driver = (*ServerDriver)(nil)

func (d *ServerDriver) putURL() string { return d.baseURL + "/put" }
func (d *ServerDriver) getURL() string { return d.baseURL + "/get" }

func (d *ServerDriver) Put(ctx context.Context, a arid.Arid, env envelope.Envelope, opts PutOptions) (Receipt, error) {
	serialized := env.Serialize()
	if len(serialized) > maxServerValueSize {
		return Receipt{}, errors.Wrapf(herr.ErrValueTooLarge, "server: serialized envelope is %d bytes, limit %d", len(serialized), maxServerValueSize)
	}

	keys := keyderive.Derive(a)
	obfuscated := obfuscate.Apply(keys.ObfuscationKey, serialized)

	lines := []string{a.String(), base64.StdEncoding.EncodeToString(obfuscated)}
	if opts.TTL > 0 {
		lines = append(lines, strconv.Itoa(int(opts.TTL.Seconds())))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.putURL(), strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return Receipt{}, errors.Wrap(err, "server: build put request")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return Receipt{}, errors.Wrap(herr.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		d.log.Info().Str("arid", a.String()).Int("size", len(serialized)).Msg("put")
		return Receipt{Kind: Direct}, nil
	case http.StatusConflict:
		return Receipt{}, errors.Wrap(herr.ErrAlreadyExists, "server: item already published")
	case http.StatusBadRequest:
		return Receipt{}, errors.Wrap(herr.ErrInvalidArid, "server: rejected malformed put request")
	default:
		return Receipt{}, errors.Wrapf(herr.ErrDaemon, "server: unexpected status %d", resp.StatusCode)
	}
}

func (d *ServerDriver) Get(ctx context.Context, a arid.Arid, timeout time.Duration) (*envelope.Envelope, error) {
	keys := keyderive.Derive(a)
	aridText := a.String()

	raw, err := pollutil.Poll(ctx, timeout, func(ctx context.Context) ([]byte, bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.getURL(), strings.NewReader(aridText))
		if err != nil {
			return nil, false, pollutil.Permanent(err)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return nil, false, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, false, fmt.Errorf("server: unexpected status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		return body, true, nil
	})
	if err != nil {
		return nil, errors.Wrap(herr.ErrNetwork, err.Error())
	}
	if raw == nil {
		d.log.Debug().Str("arid", aridText).Msg("get: absent within deadline")
		return nil, nil
	}

	obfuscated, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, errors.Wrap(herr.ErrDecode, err.Error())
	}
	plain := obfuscate.Remove(keys.ObfuscationKey, obfuscated)
	env, err := envelope.Parse(plain)
	if err != nil {
		return nil, errors.Wrap(herr.ErrDecode, err.Error())
	}
	d.log.Info().Str("arid", aridText).Msg("get: hit")
	return &env, nil
}

func (d *ServerDriver) Exists(ctx context.Context, a arid.Arid) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.getURL(), strings.NewReader(a.String()))
	if err != nil {
		return false, errors.Wrap(err, "server: build exists request")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return false, errors.Wrap(herr.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
