package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

var errNoRefreshToken = errors.New("no refresh token stored")

// Refresher exchanges a refresh token for a new access token. It must not
// go through a Transport itself.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (model.RefreshResponse, error)
}

// Transport attaches the stored access token to every request. A 401 on the
// first attempt triggers one token refresh and one resend; whatever the
// resend returns goes back to the caller. If the refresh fails both tokens
// are purged and the original 401 is returned.
type Transport struct {
	Base      http.RoundTripper
	Tokens    *Tokens
	Refresher Refresher
	Logger    *log.Logger

	group singleflight.Group
}

func NewTransport(base http.RoundTripper, tokens *Tokens, refresher Refresher, logger *log.Logger) *Transport {
	return &Transport{Base: base, Tokens: tokens, Refresher: refresher, Logger: logger}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	req, err := replayable(req)
	if err != nil {
		return nil, err
	}

	sent, _, err := t.Tokens.Access(ctx)
	if err != nil {
		t.Logger.Printf("auth: read access token: %v", err)
	}

	first, err := withToken(req, sent)
	if err != nil {
		return nil, err
	}
	resp, err := t.base().RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	access, err := t.freshAccess(ctx, sent)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			drain(resp)
			return nil, ctxErr
		}
		t.Logger.Printf("auth: refresh failed, clearing tokens: %v", err)
		if cerr := t.Tokens.Clear(context.WithoutCancel(ctx)); cerr != nil {
			t.Logger.Printf("auth: clear tokens: %v", cerr)
		}
		return resp, nil
	}

	retry, err := withToken(req, access)
	if err != nil {
		return resp, nil
	}
	drain(resp)

	// The resend goes straight to the base transport: its outcome is final.
	return t.base().RoundTrip(retry)
}

// freshAccess returns an access token newer than sent. Callers that hit a
// 401 with the same token share one refresh; a caller arriving after the
// token was already replaced reuses the stored one.
func (t *Transport) freshAccess(ctx context.Context, sent string) (string, error) {
	ch := t.group.DoChan("refresh:"+sent, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		rctx := context.WithoutCancel(ctx)
		current, ok, err := t.Tokens.Access(rctx)
		if err == nil && ok && current != sent {
			return current, nil
		}
		return t.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (t *Transport) refresh(ctx context.Context) (string, error) {
	rt, ok, err := t.Tokens.Refresh(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errNoRefreshToken
	}

	out, err := t.Refresher.Refresh(ctx, rt)
	if err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", errors.New("refresh response carried no access token")
	}

	if out.Refresh != "" {
		err = t.Tokens.Save(ctx, out.Access, out.Refresh)
	} else {
		err = t.Tokens.SetAccess(ctx, out.Access)
	}
	if err != nil {
		return "", err
	}
	return out.Access, nil
}

// withToken clones req with a fresh body and the given bearer token. An
// empty token sends the request uncredentialed.
func withToken(req *http.Request, token string) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return out, nil
}

// replayable makes sure the body of req can be sent twice. Every attempt
// reads a GetBody copy, so the caller's body is closed here.
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody != nil {
		_ = req.Body.Close()
		return req, nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	out.Body, _ = out.GetBody()
	return out, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
