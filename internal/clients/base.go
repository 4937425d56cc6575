package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/middleware"
)

// Client talks to one remote API rooted at BaseURL. Paths passed to Do are
// appended to the base path, so a base of http://host/api and a path of
// /cart/ yield http://host/api/cart/.
type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
}

func NewClient(name string, baseURL string, httpClient *http.Client) *Client {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid %s base url %q: %v", name, baseURL, err))
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return &Client{Name: name, BaseURL: u, HTTP: httpClient}
}

func (c *Client) url(path, rawQuery string) string {
	u := *c.BaseURL
	u.Path = c.BaseURL.Path + path
	u.RawPath = ""
	u.RawQuery = rawQuery
	return u.String()
}

func (c *Client) Do(ctx context.Context, method, path, rawQuery string, body io.Reader, inHeaders http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, rawQuery), body)
	if err != nil {
		return nil, err
	}

	for k, vv := range inHeaders {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}

	// Ensure correlation id propagated to the backend
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	return c.HTTP.Do(req)
}

// DoJSON sends in as a JSON body (when non-nil) and decodes a 2xx response
// into out (when non-nil). Non-2xx responses become *APIError.
func (c *Client) DoJSON(ctx context.Context, method, path, rawQuery string, in any, headers http.Header, out any) error {
	h := headers.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Accept", "application/json")

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.Name, err)
		}
		body = bytes.NewReader(b)
		h.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(ctx, method, path, rawQuery, body, h)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(c.Name, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode %s %s response: %w", c.Name, method, path, err)
	}
	return nil
}
