package vault

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/vault/api"

	"github.com/panteparak/vault-authkit/pkg/logger"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// Client is the default Transport implementation, backed by the Vault API
// client's configuration (address, TLS, timeouts, environment defaults).
// Backend-relative paths are joined onto the configured address under /v1/;
// absolute URLs (cloud metadata endpoints) are requested as-is.
type Client struct {
	inner      *api.Client
	httpClient *http.Client
	log        logr.Logger
}

// ClientConfig holds configuration for creating a client
type ClientConfig struct {
	// Address is the backend address. Empty falls back to the VAULT_ADDR
	// environment variable or the API client default.
	Address string

	// TLSConfig configures TLS for the backend connection
	TLSConfig *TLSConfig

	// Timeout bounds each exchange
	Timeout time.Duration

	// Logger receives request-level logs; defaults to logr.Discard()
	Logger *logr.Logger
}

// TLSConfig holds TLS configuration for the backend connection
type TLSConfig struct {
	CACert     string
	SkipVerify bool
}

// NewClient creates a new client with the given configuration
func NewClient(cfg ClientConfig) (*Client, error) {
	config := api.DefaultConfig()
	if cfg.Address != "" {
		config.Address = cfg.Address
	}

	if cfg.Timeout > 0 {
		config.Timeout = cfg.Timeout
	}

	if cfg.TLSConfig != nil {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: cfg.TLSConfig.SkipVerify,
		}

		if cfg.TLSConfig.CACert != "" {
			if err := config.ConfigureTLS(&api.TLSConfig{
				CACert:   cfg.TLSConfig.CACert,
				Insecure: cfg.TLSConfig.SkipVerify,
			}); err != nil {
				return nil, fmt.Errorf("failed to configure TLS: %w", err)
			}
		} else if cfg.TLSConfig.SkipVerify {
			config.HttpClient.Transport = &http.Transport{
				TLSClientConfig: tlsConfig,
			}
		}
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	log := logr.Discard()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Client{
		inner:      client,
		httpClient: config.HttpClient,
		log:        log,
	}, nil
}

// Address returns the configured backend address.
func (c *Client) Address() string {
	return c.inner.Address()
}

// SetToken sets the client token attached to backend-relative requests.
func (c *Client) SetToken(token string) {
	c.inner.SetToken(token)
}

// Token returns the client token currently attached to requests.
func (c *Client) Token() string {
	return c.inner.Token()
}

// WithToken returns a clone of the client that attaches the given token to
// its requests. The original client is unchanged; use this to derive an
// authenticated client after a login flow completes.
func (c *Client) WithToken(token string) (*Client, error) {
	clone, err := c.inner.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone backend client: %w", err)
	}
	clone.SetToken(token)
	return &Client{
		inner:      clone,
		httpClient: c.httpClient,
		log:        c.log,
	}, nil
}

// IsHealthy checks if the backend is initialized, unsealed, and reachable
func (c *Client) IsHealthy(ctx context.Context) (bool, error) {
	health, err := c.inner.Sys().HealthWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("backend health check failed: %w", err)
	}

	return health.Initialized && !health.Sealed, nil
}

// Version returns the backend server version
func (c *Client) Version(ctx context.Context) (string, error) {
	health, err := c.inner.Sys().HealthWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get backend version: %w", err)
	}
	return health.Version, nil
}

// Execute issues one exchange and returns the parsed response body.
// It implements Transport.
func (c *Client) Execute(ctx context.Context, req *Request) (interface{}, error) {
	uri, err := req.ResolveURI()
	if err != nil {
		return nil, err
	}

	target := uri
	if !IsAbsolute(uri) {
		target = joinV1(c.inner.Address(), uri)
	}

	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, autherrors.NewRequestError(req.Method, uri, 0, nil,
				fmt.Errorf("failed to marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, autherrors.NewRequestError(req.Method, uri, 0, nil, err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	// The client token is only meaningful to the backend itself, never to
	// metadata endpoints reached via absolute URLs.
	if !IsAbsolute(uri) && c.inner.Token() != "" && httpReq.Header.Get("X-Vault-Token") == "" {
		httpReq.Header.Set("X-Vault-Token", c.inner.Token())
	}

	c.log.V(1).Info("executing request",
		logger.KeyOperation, req.Method,
		logger.KeyVaultPath, uri,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, autherrors.NewRequestError(req.Method, uri, 0, nil, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, autherrors.NewRequestError(req.Method, uri, resp.StatusCode, parseBackendErrors(raw), nil)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	switch req.Response {
	case ResponseSecret:
		secret, err := api.ParseSecret(resp.Body)
		if err != nil {
			return nil, autherrors.NewRequestError(req.Method, uri, resp.StatusCode, nil,
				fmt.Errorf("failed to parse response: %w", err))
		}
		if secret == nil {
			return nil, nil
		}
		return secret, nil
	case ResponseJSON:
		var value map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
			return nil, autherrors.NewRequestError(req.Method, uri, resp.StatusCode, nil,
				fmt.Errorf("failed to decode response: %w", err))
		}
		return value, nil
	case ResponseText:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, autherrors.NewRequestError(req.Method, uri, resp.StatusCode, nil,
				fmt.Errorf("failed to read response: %w", err))
		}
		return strings.TrimSpace(string(raw)), nil
	}

	return nil, autherrors.NewUsageError("unknown response kind %d", req.Response)
}

// joinV1 joins a backend-relative path onto the API base of the address.
func joinV1(address, path string) string {
	return strings.TrimSuffix(address, "/") + "/v1/" + strings.TrimPrefix(path, "/")
}

// parseBackendErrors extracts the backend's error strings from an error
// response body. Bodies that are not the standard {"errors": [...]} shape
// are returned as a single raw string so no error text is lost.
func parseBackendErrors(raw []byte) []string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}

	var parsed struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed.Errors) > 0 {
		return parsed.Errors
	}
	return []string{trimmed}
}
