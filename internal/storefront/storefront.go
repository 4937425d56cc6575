// Package storefront owns the device session: who is signed in, the
// anonymous-to-authenticated cart merge, and checkout.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/auth"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/cart"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/notify"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/session"
)

var (
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrNotAuthenticated     = session.ErrNotAuthenticated
	ErrEmptyAddress         = errors.New("shipping address is required")
)

type State int

const (
	Anonymous State = iota
	Merging
	Authenticated
)

func (s State) String() string {
	switch s {
	case Merging:
		return "merging"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
	Me(ctx context.Context) (model.User, error)
}

type OrderAPI interface {
	PlaceOrder(ctx context.Context, shippingAddress string) (model.Order, error)
}

type Deps struct {
	Auth     AuthAPI
	Orders   OrderAPI
	Tokens   *auth.Tokens
	Resolver *session.Resolver
	Cart     *cart.Sync
	Notifier notify.Notifier
	Logger   *log.Logger
}

// Manager drives the session state machine:
//
//	Anonymous -> (login) -> Merging -> Authenticated -> (logout) -> Anonymous
type Manager struct {
	auth     AuthAPI
	orders   OrderAPI
	tokens   *auth.Tokens
	resolver *session.Resolver
	cart     *cart.Sync
	notifier notify.Notifier
	logger   *log.Logger

	// flow serializes transitions; mu guards the fields below.
	flow  sync.Mutex
	mu    sync.Mutex
	state State
	user  *model.User
}

func NewManager(d Deps) *Manager {
	n := d.Notifier
	if n == nil {
		n = notify.Discard{}
	}
	return &Manager{
		auth:     d.Auth,
		orders:   d.Orders,
		tokens:   d.Tokens,
		resolver: d.Resolver,
		cart:     d.Cart,
		notifier: n,
		logger:   d.Logger,
	}
}

func (m *Manager) Cart() *cart.Sync { return m.cart }

func (m *Manager) set(state State, user *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.user = user
}

// State re-reads the token store, so tokens purged by a failed refresh
// show up as Anonymous on the next check.
func (m *Manager) State(ctx context.Context) State {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	if state == Merging {
		return Merging
	}

	ok, err := m.tokens.Authenticated(ctx)
	if err != nil {
		m.logger.Printf("session: read tokens: %v", err)
		return state
	}
	switch {
	case ok && state == Anonymous:
		m.set(Authenticated, m.User())
		return Authenticated
	case !ok && state == Authenticated:
		m.logger.Printf("session: tokens gone, treating device as signed out")
		m.set(Anonymous, nil)
		m.cart.Reset()
		return Anonymous
	case ok:
		return Authenticated
	default:
		return Anonymous
	}
}

// User returns a copy of the signed-in user, if known.
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	return m.authenticate(ctx, "Login Failed", func() (model.AuthResponse, error) {
		return m.auth.Login(ctx, model.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	}, notify.Notice{Level: notify.Success, Title: "Welcome Back", Message: "You have logged in successfully!"})
}

func (m *Manager) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	return m.authenticate(ctx, "Registration Failed", func() (model.AuthResponse, error) {
		return m.auth.Register(ctx, req)
	}, notify.Notice{Level: notify.Success, Title: "Account Created!", Message: "Your account has been created successfully."})
}

// authenticate runs one sign-in: obtain tokens, persist them, merge the
// anonymous cart exactly once, then settle in Authenticated. Cart calls made
// meanwhile wait until the merge is done. A failed merge does not fail the
// sign-in; the session key is kept and Restore tries again.
func (m *Manager) authenticate(ctx context.Context, failTitle string, call func() (model.AuthResponse, error), welcome notify.Notice) (*model.User, error) {
	m.flow.Lock()
	defer m.flow.Unlock()

	if m.State(ctx) != Anonymous {
		return nil, ErrAlreadyAuthenticated
	}

	resp, err := call()
	if err == nil && (resp.Access == "" || resp.Refresh == "") {
		err = errors.New("auth response carried no tokens")
	}
	if err != nil {
		m.logger.Printf("session: sign-in failed (%s): %v", clients.Classify(err), err)
		m.notifier.Notify(ctx, notify.Notice{Level: notify.Error, Title: failTitle, Message: signInMessage(err)})
		return nil, err
	}

	release := m.cart.HoldForMerge()
	if err := m.tokens.Save(ctx, resp.Access, resp.Refresh); err != nil {
		release()
		return nil, fmt.Errorf("persist tokens: %w", err)
	}
	m.set(Merging, resp.User)

	if err := m.cart.MergeCarts(ctx); err != nil {
		m.logger.Printf("session: cart merge failed, keeping session key: %v", err)
		m.notifier.Notify(ctx, notify.Notice{
			Level:   notify.Error,
			Title:   "Cart Merge Failed",
			Message: "Items added before signing in could not be moved to your account.",
		})
	}
	release()

	user := resp.User
	if user == nil {
		if me, err := m.auth.Me(ctx); err != nil {
			m.logger.Printf("session: load user: %v", err)
		} else {
			user = &me
		}
	}
	m.set(Authenticated, user)
	m.notifier.Notify(ctx, welcome)
	return m.User(), nil
}

func signInMessage(err error) string {
	switch clients.Classify(err) {
	case clients.KindUnauthorized:
		return "Invalid email or password."
	case clients.KindClient:
		if msg := clients.ServerMessage(err); msg != "" {
			return msg
		}
		return "Please check your details and try again."
	case clients.KindNetwork:
		return "Check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// Logout clears both tokens and the session key and drops the local cart.
// The next cart call lazily creates a fresh session key.
func (m *Manager) Logout(ctx context.Context) error {
	m.flow.Lock()
	defer m.flow.Unlock()

	err := errors.Join(m.tokens.Clear(ctx), m.resolver.Forget(ctx))
	m.cart.Reset()
	m.set(Anonymous, nil)
	if err != nil {
		m.logger.Printf("session: logout: %v", err)
		return err
	}
	m.notifier.Notify(ctx, notify.Notice{Level: notify.Info, Title: "Logged out", Message: "See you soon."})
	return nil
}

// Restore picks up a session persisted by an earlier run and loads the cart.
// A session key left behind by a failed sign-in merge is merged again.
func (m *Manager) Restore(ctx context.Context) State {
	m.flow.Lock()
	defer m.flow.Unlock()

	if m.State(ctx) == Authenticated {
		me, err := m.auth.Me(ctx)
		switch {
		case err == nil:
			m.set(Authenticated, &me)
		case clients.Classify(err) == clients.KindUnauthorized:
			// The refresh failed and tokens are gone; State catches up below.
			m.logger.Printf("session: stored session expired")
		default:
			m.logger.Printf("session: load user: %v", err)
		}
	}

	state := m.State(ctx)
	if state == Authenticated {
		m.retryMerge(ctx)
	}
	if _, err := m.cart.GetCart(ctx); err != nil && !errors.Is(err, cart.ErrFetchInProgress) {
		m.logger.Printf("session: initial cart load: %v", err)
	}
	return state
}

func (m *Manager) retryMerge(ctx context.Context) {
	_, ok, err := m.resolver.SessionKey(ctx)
	if err != nil {
		m.logger.Printf("session: read session key: %v", err)
		return
	}
	if !ok {
		return
	}

	release := m.cart.HoldForMerge()
	defer release()
	if err := m.cart.MergeCarts(ctx); err != nil {
		m.logger.Printf("session: retry cart merge: %v", err)
		return
	}
	m.logger.Printf("session: merged cart left over from an earlier sign-in")
}

// Status describes the session for display.
type Status struct {
	State          State       `json:"state"`
	User           *model.User `json:"user,omitempty"`
	TokenExpiresAt *time.Time  `json:"tokenExpiresAt,omitempty"`
	HasSessionKey  bool        `json:"hasSessionKey"`
}

func (m *Manager) Status(ctx context.Context) Status {
	st := Status{State: m.State(ctx), User: m.User()}

	if access, ok, err := m.tokens.Access(ctx); err == nil && ok {
		if c, err := auth.ParseClaims(access); err == nil && !c.ExpiresAt.IsZero() {
			exp := c.ExpiresAt
			st.TokenExpiresAt = &exp
		}
	}
	if _, ok, err := m.resolver.SessionKey(ctx); err == nil {
		st.HasSessionKey = ok
	}
	return st
}

// Checkout places an order for the signed-in user's cart. The server
// empties the cart, so local state is refreshed afterwards.
func (m *Manager) Checkout(ctx context.Context, shippingAddress string) (model.Order, error) {
	addr := strings.TrimSpace(shippingAddress)
	if addr == "" {
		m.notifier.Notify(ctx, notify.Notice{Level: notify.Error, Title: "Missing Information", Message: "Please enter your shipping address"})
		return model.Order{}, ErrEmptyAddress
	}
	if m.State(ctx) != Authenticated {
		return model.Order{}, ErrNotAuthenticated
	}

	order, err := m.orders.PlaceOrder(ctx, addr)
	if err != nil {
		msg := clients.ServerMessage(err)
		if msg == "" || clients.Classify(err) != clients.KindClient {
			msg = "Checkout failed. Please try again."
		}
		m.logger.Printf("checkout: place order (%s): %v", clients.Classify(err), err)
		m.notifier.Notify(ctx, notify.Notice{Level: notify.Error, Title: "Checkout Failed", Message: msg})
		return model.Order{}, err
	}

	m.notifier.Notify(ctx, notify.Notice{
		Level:   notify.Success,
		Title:   "Order Placed!",
		Message: fmt.Sprintf("Your order #%d has been placed successfully.", order.ID),
	})
	if _, err := m.cart.GetCart(ctx); err != nil && !errors.Is(err, cart.ErrFetchInProgress) {
		m.logger.Printf("checkout: refresh cart: %v", err)
	}
	return order, nil
}
