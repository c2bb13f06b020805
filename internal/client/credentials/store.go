package credentials

import (
	"context"
	"errors"
)

// Credential is an opaque bearer token.
type Credential string

// Redacted returns a log-safe rendering that keeps only the last 4 chars.
func (c Credential) Redacted() string {
	if len(c) <= 8 {
		return "****"
	}
	return "****" + string(c[len(c)-4:])
}

var (
	ErrEmptyCredential = errors.New("empty credential")
	ErrUnknownKind     = errors.New("unknown credential store kind")
)

// Store reads and atomically replaces the current credential.
type Store interface {
	// Get returns the stored credential; ok is false when none is stored.
	Get(ctx context.Context) (c Credential, ok bool, err error)
	// Set replaces the stored credential.
	Set(ctx context.Context, c Credential) error
}

// Clearer is implemented by stores that can forget the credential.
type Clearer interface {
	Clear(ctx context.Context) error
}
