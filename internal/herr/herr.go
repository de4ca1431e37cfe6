// Package herr defines the error taxonomy exposed at Hubert's unified
// storage contract. Backends wrap these sentinels with
// github.com/pkg/errors so callers retain a stack trace while still being
// able to classify failures with errors.Is.
package herr

import "errors"

var (
	// ErrAlreadyExists: the write-once probe found a prior publish.
	// Fatal for this put; the caller must choose a new ARID.
	ErrAlreadyExists = errors.New("hubert: already exists")

	// ErrValueTooLarge: serialized size exceeded the backend's limit.
	// Fatal; the caller must compress the envelope or route differently.
	ErrValueTooLarge = errors.New("hubert: value too large")

	// ErrTimeout: the operation exceeded its deadline. The caller may
	// retry with a longer deadline.
	ErrTimeout = errors.New("hubert: timeout")

	// ErrNetwork: a transport failure. Safe to retry; idempotent for gets.
	ErrNetwork = errors.New("hubert: network error")

	// ErrDaemon: a backend daemon (e.g. the IPFS node) failed to respond
	// correctly. Safe to retry.
	ErrDaemon = errors.New("hubert: daemon error")

	// ErrDecode: retrieved bytes failed to deobfuscate and/or parse as an
	// envelope. Fatal for this get — indicates corruption or a wrong ARID.
	ErrDecode = errors.New("hubert: decode error")

	// ErrReferenceNotFound: the DHT held a reference object but CAS had
	// no object at the referenced ARID. Fatal for this get.
	ErrReferenceNotFound = errors.New("hubert: reference not found")

	// ErrInvalidArid: input did not decode as a 32-byte ARID. User error.
	ErrInvalidArid = errors.New("hubert: invalid arid")

	// ErrNotFound: the server backend reports the ARID absent. Unlike the
	// other sentinels, most call sites translate this into (nil, nil) for
	// "not published yet"; it is exported for the few places (e.g.
	// storage_info) that need to distinguish "absent" from a genuine
	// transport failure.
	ErrNotFound = errors.New("hubert: not found")
)
