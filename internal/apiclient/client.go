package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalogsync/internal/protocol"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

type Options struct {
	BaseURL    string
	Username   string
	Password   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to a provider over the Transfer Protocol using HTTP Basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:    NormalizeBaseURL(opts.BaseURL),
		username:   strings.TrimSpace(opts.Username),
		password:   opts.Password,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// NormalizeBaseURL trims trailing slashes and appends the protocol
// namespace unless the URL already ends with it.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, protocol.Namespace) {
		base += protocol.Namespace
	}
	return base
}

// Configured reports whether an endpoint and credentials are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.username != "" && c.password != ""
}

// ListAttributes fetches every attribute definition, or only those changed
// after modifiedSince when it is non-nil.
func (c *Client) ListAttributes(ctx context.Context, modifiedSince *time.Time) ([]protocol.Attribute, error) {
	var out []protocol.Attribute
	if err := c.get(ctx, "/attributes", sinceQuery(modifiedSince), &out); err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return out, nil
}

func (c *Client) GetAttribute(ctx context.Context, slug string) (*protocol.Attribute, error) {
	var out protocol.Attribute
	if err := c.get(ctx, "/attributes/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, fmt.Errorf("get attribute %s: %w", slug, err)
	}
	return &out, nil
}

func (c *Client) ListTerms(ctx context.Context, attributeSlug string, modifiedSince *time.Time) ([]protocol.Term, error) {
	var out []protocol.Term
	path := "/attributes/" + url.PathEscape(attributeSlug) + "/terms"
	if err := c.get(ctx, path, sinceQuery(modifiedSince), &out); err != nil {
		return nil, fmt.Errorf("list terms for %s: %w", attributeSlug, err)
	}
	return out, nil
}

func sinceQuery(t *time.Time) url.Values {
	if t == nil {
		return nil
	}
	return url.Values{"modified_since": []string{t.UTC().Format(protocol.TimeLayout)}}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("source api url is empty")
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	c.logger.Debug("provider request",
		"url", target,
		"status", resp.StatusCode,
		"bytes", len(b),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ParseAPIError(resp.StatusCode, b)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	return nil
}
