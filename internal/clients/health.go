package clients

import (
	"context"
	"io"
	"net/http"
	"time"
)

const defaultProbeTimeout = 2 * time.Second

// HealthProbe points at a cheap, public backend endpoint.
type HealthProbe struct {
	Name    string
	Client  *Client
	Path    string
	Timeout time.Duration
}

type HealthResult struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Reachable is true whenever the backend answered, whatever the status.
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"statusCode,omitempty"`
	Failure    string `json:"failure,omitempty"`
	Error      string `json:"error,omitempty"`
	LatencyMS  int64  `json:"latencyMs"`
}

// CheckHealth probes the backend once. Failure is the error kind name
// ("network", "server", ...).
func CheckHealth(ctx context.Context, probe HealthProbe) HealthResult {
	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := HealthResult{Name: probe.Name}
	start := time.Now()
	resp, err := probe.Client.Do(ctx, http.MethodGet, probe.Path, "", nil, http.Header{})
	res.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		res.Failure = KindNetwork.String()
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.Reachable = true
	res.StatusCode = resp.StatusCode
	res.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.OK {
		res.Failure = Classify(&APIError{StatusCode: resp.StatusCode}).String()
	}
	return res
}
