package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Service    string
	StatusCode int
	// Message is the server-supplied explanation, empty when the body
	// carried none.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
}

const maxErrorBody = 64 << 10

func newAPIError(service string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    extractMessage(body),
		Body:       body,
	}
}

// extractMessage pulls a human readable message out of the backend's error
// bodies: {"error": ...}, {"detail": ...}, {"message": ...} or field
// validation maps like {"email": ["already taken"]}.
func extractMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}

	for _, k := range []string{"error", "detail", "message"} {
		if s := firstString(obj[k]); s != "" {
			return s
		}
	}

	if s := firstString(obj["non_field_errors"]); s != "" {
		return s
	}

	fields := make([]string, 0, len(obj))
	for k := range obj {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		if s := firstString(obj[k]); s != "" {
			return k + ": " + s
		}
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

// Kind is the failure class of an error returned by a client call.
type Kind int

const (
	KindNone Kind = iota
	// KindNetwork: no response was received.
	KindNetwork
	KindUnauthorized
	// KindClient: 4xx validation or business errors.
	KindClient
	// KindServer: 5xx, or a response we could not understand.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client"
	default:
		return "server"
	}
}

func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return KindUnauthorized
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return KindClient
		default:
			return KindServer
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	return KindServer
}

// IsNetwork reports whether err means no response was received.
func IsNetwork(err error) bool { return Classify(err) == KindNetwork }

// ServerMessage returns the server-supplied message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
