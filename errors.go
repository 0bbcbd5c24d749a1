package ncchdump

import "errors"

// The error taxonomy separates files that are not NCCH containers at all from
// containers that are valid but unreadable, and both from optional
// substructures that are simply absent.
var (
	// ErrInvalidFormat reports a file that is not an NCCH container, so
	// callers walking a directory tree can skip foreign files without
	// treating them as failures.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrEncrypted reports a structurally valid container that cannot be
	// decrypted: the required key material is unavailable or the crypto
	// layout version is unknown.
	ErrEncrypted = errors.New("encrypted, cannot decrypt")

	// ErrNotPresent reports an optional substructure the container does not
	// carry: a missing ExeFS section, an absent exheader, or an extdata ID
	// that does not apply. It is a normal outcome, not a failure.
	ErrNotPresent = errors.New("not present")
)
