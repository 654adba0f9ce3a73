package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/wippyai/sp1-wasm-verifier/errors"
)

// DefaultHTTPTimeout is used by clients created without a custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// maxFixtureSize bounds a fetched fixture document.
const maxFixtureSize = 64 << 20

// Client fetches fixtures from a proof API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// APIError is a non-success response from the proof API.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fixture api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient creates a client for the API at rawURL. When httpClient is nil,
// a default client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("invalid base url %q", rawURL))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// Fetch downloads GET {base}/proofs/{name}.json.
func (c *Client) Fetch(ctx context.Context, name string) (*Fixture, error) {
	if name == "" || strings.ContainsAny(name, `/\?#`) {
		return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("invalid fixture name %q", name))
	}

	rel := &url.URL{Path: path.Join(c.baseURL.Path, "proofs", name+".json")}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxFixtureSize)
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(body)
		msg := string(bytes.TrimSpace(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var f Fixture
	if err := json.NewDecoder(body).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if f.Name == "" {
		f.Name = name
	}
	return &f, nil
}
