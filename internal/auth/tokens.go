// Package auth keeps the device's token pair and recovers from expired
// access tokens on the way out of the process.
package auth

import (
	"context"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/store"
)

// Tokens is a typed view of the access/refresh pair in durable storage.
type Tokens struct {
	store store.Store
}

func NewTokens(s store.Store) *Tokens { return &Tokens{store: s} }

func (t *Tokens) Access(ctx context.Context) (string, bool, error) {
	return store.Lookup(ctx, t.store, store.KeyAccessToken)
}

func (t *Tokens) Refresh(ctx context.Context) (string, bool, error) {
	return store.Lookup(ctx, t.store, store.KeyRefreshToken)
}

// Save stores a freshly issued pair.
func (t *Tokens) Save(ctx context.Context, access, refresh string) error {
	if err := t.store.Set(ctx, store.KeyAccessToken, access); err != nil {
		return err
	}
	return t.store.Set(ctx, store.KeyRefreshToken, refresh)
}

func (t *Tokens) SetAccess(ctx context.Context, access string) error {
	return t.store.Set(ctx, store.KeyAccessToken, access)
}

// Clear removes both tokens together.
func (t *Tokens) Clear(ctx context.Context) error {
	return t.store.Remove(ctx, store.KeyAccessToken, store.KeyRefreshToken)
}

// Authenticated reports whether an access token is stored.
func (t *Tokens) Authenticated(ctx context.Context) (bool, error) {
	_, ok, err := t.Access(ctx)
	return ok, err
}
