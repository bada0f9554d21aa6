// Package cloud is a small HTTP/JSON client for the cloud system of
// record. It never retries — retry policy lives in the engines that
// call it — and it reads identity/credentials from config on every
// call so re-pairing takes effect without a restart.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/possync/edgehub/internal/config"
)

// DefaultTimeout is the per-call timeout applied unless overridden.
const DefaultTimeout = 30 * time.Second

// Envelope is the uniform response shape every call returns, win or
// lose. OK is true iff the HTTP status was 2xx; network failures and
// timeouts produce OK=false, Status=0, Error=<message>.
type Envelope struct {
	OK     bool
	Status int
	Data   json.RawMessage
	Error  string
}

// Client talks to the cloud on behalf of the pull and push engines.
type Client struct {
	loadConfig func() (*config.Config, error)
	httpClient *http.Client
}

// New builds a Client that re-reads configuration via loadConfig on
// every call. Passing config.Load directly is the normal case; tests
// can supply a closure over a fixed *config.Config.
func New(loadConfig func() (*config.Config, error)) *Client {
	return &Client{
		loadConfig: loadConfig,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// IsConfigured reports whether the hub currently has enough identity
// to talk to the cloud. Engines must gate their work on this.
func (c *Client) IsConfigured() bool {
	cfg, err := c.loadConfig()
	if err != nil {
		return false
	}
	return cfg.IsConfigured()
}

// Get issues a GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("cloud: failed to load config: %w", err)
	}
	if !cfg.IsConfigured() {
		return &Envelope{OK: false, Status: 0, Error: "cloud client is not configured"}, nil
	}

	fullURL := strings.TrimRight(cfg.CloudBaseURL, "/") + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("cloud: failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("cloud: failed to build request: %w", err)
	}
	req.Header.Set("X-API-Key", cfg.CloudAPIKey)
	req.Header.Set("X-Tenant-ID", cfg.TenantID)
	req.Header.Set("X-Location-ID", cfg.LocationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Envelope{OK: false, Status: 0, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	env := &Envelope{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return &Envelope{OK: false, Status: 0, Error: err.Error()}, nil
		}
		env.Data = json.RawMessage(raw)
	}

	if !env.OK && len(env.Data) > 0 {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(env.Data, &errBody) == nil && errBody.Error != "" {
			env.Error = errBody.Error
		}
	}

	return env, nil
}
