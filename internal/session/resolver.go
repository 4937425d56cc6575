// Package session decides which credential a cart request carries: the
// user's bearer token, or the device's anonymous session key.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/store"
)

const HeaderSessionKey = "X-Session-Key"

var ErrNotAuthenticated = errors.New("not authenticated")

// MaxKeyLength is the width of the backend's session_key column.
const MaxKeyLength = 40

type Kind int

const (
	Bearer Kind = iota + 1
	Anonymous
)

func (k Kind) String() string {
	switch k {
	case Bearer:
		return "bearer"
	case Anonymous:
		return "session_key"
	default:
		return "none"
	}
}

type Credential struct {
	Kind  Kind
	Value string
}

// Apply writes the credential's header into h.
func (c Credential) Apply(h http.Header) {
	switch c.Kind {
	case Bearer:
		h.Set("Authorization", "Bearer "+c.Value)
	case Anonymous:
		h.Set(HeaderSessionKey, c.Value)
	}
}

// Header returns a new header set carrying only the credential.
func (c Credential) Header() http.Header {
	h := http.Header{}
	c.Apply(h)
	return h
}

type Resolver struct {
	store store.Store
	now   func() time.Time
}

func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s, now: time.Now}
}

// Bearer returns the bearer credential if an access token is stored. It
// never creates a session key.
func (r *Resolver) Bearer(ctx context.Context) (Credential, bool, error) {
	token, ok, err := store.Lookup(ctx, r.store, store.KeyAccessToken)
	if err != nil {
		return Credential{}, false, fmt.Errorf("read access token: %w", err)
	}
	if !ok || token == "" {
		return Credential{}, false, nil
	}
	return Credential{Kind: Bearer, Value: token}, true, nil
}

// Resolve returns the bearer token when one is stored. Otherwise it returns
// the device's session key, creating and persisting one on first use.
func (r *Resolver) Resolve(ctx context.Context) (Credential, error) {
	cred, ok, err := r.Bearer(ctx)
	if err != nil {
		return Credential{}, err
	}
	if ok {
		return cred, nil
	}

	key, ok, err := r.SessionKey(ctx)
	if err != nil {
		return Credential{}, err
	}
	if !ok {
		key = r.newKey()
		if err := r.store.Set(ctx, store.KeyCartSessionKey, key); err != nil {
			return Credential{}, fmt.Errorf("persist session key: %w", err)
		}
	}
	return Credential{Kind: Anonymous, Value: key}, nil
}

// SessionKey reads the stored session key without creating one.
func (r *Resolver) SessionKey(ctx context.Context) (string, bool, error) {
	key, ok, err := store.Lookup(ctx, r.store, store.KeyCartSessionKey)
	if err != nil {
		return "", false, fmt.Errorf("read session key: %w", err)
	}
	return key, ok && key != "", nil
}

// Forget purges the stored session key.
func (r *Resolver) Forget(ctx context.Context) error {
	return r.store.Remove(ctx, store.KeyCartSessionKey)
}

// newKey returns mobile_<unix millis>_<8 hex chars>.
func (r *Resolver) newKey() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("mobile_%d_%s", r.now().UnixMilli(), suffix)
}
