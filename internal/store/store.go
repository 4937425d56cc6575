// Package store provides the durable key-value storage that holds the
// device's credentials and anonymous cart session key.
package store

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyAccessToken    = "access_token"
	KeyRefreshToken   = "refresh_token"
	KeyCartSessionKey = "cart_session_key"
)

var ErrNotFound = errors.New("not found")

// Store is a string key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes every named key. Absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error
}

// Lookup is Get with absence folded into ok.
func Lookup(ctx context.Context, s Store, key string) (value string, ok bool, err error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
