package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/acheong08/depvis/pkg/models"
)

var (
	// ErrPackageNotFound is returned when a source has no registration for an id.
	ErrPackageNotFound = errors.New("package not found")
	// ErrVersionNotFound is returned when the id exists but the version does not.
	ErrVersionNotFound = errors.New("version not found")
	// ErrNoRegistrationResource is returned for service indexes without a registration endpoint.
	ErrNoRegistrationResource = errors.New("service index has no RegistrationsBaseUrl resource")
)

const (
	registrationsType        = "RegistrationsBaseUrl"
	registrationsSemVer2Type = "RegistrationsBaseUrl/3.6.0"

	// DefaultCacheTTL is used when a cache is set without a TTL.
	DefaultCacheTTL = 24 * time.Hour
)

// LogCallback is an optional function for forwarding log messages (e.g. to WebSocket).
type LogCallback func(message, level string)

// Client reads package metadata from NuGet V3 sources.
type Client struct {
	HTTPClient *http.Client
	Cache      ResponseCache
	CacheTTL   time.Duration
	logCb      LogCallback
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// WithCache stores successful responses in cache for ttl.
func WithCache(cache ResponseCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.Cache = cache
		if ttl > 0 {
			c.CacheTTL = ttl
		}
	}
}

// WithLogCallback forwards log messages to cb.
func WithLogCallback(cb LogCallback) Option {
	return func(c *Client) {
		c.logCb = cb
	}
}

// NewClient creates a metadata client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Cache:    NopCache{},
		CacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogCallback sets an optional callback for forwarding log messages.
func (c *Client) SetLogCallback(cb LogCallback) {
	c.logCb = cb
}

// logMsg prints to console with a level prefix and optionally forwards the
// bare message via the log callback.
func (c *Client) logMsg(message, level string) {
	prefix := "[INFO]"
	switch level {
	case "warning":
		prefix = "[WARN]"
	case "error":
		prefix = "[ERROR]"
	}
	log.Printf("%s %s", prefix, message)
	if c.logCb != nil {
		c.logCb(message, level)
	}
}

// ResolveSource reads a service index and picks its registration endpoint,
// preferring the SemVer 2.0.0 variant.
func (c *Client) ResolveSource(ctx context.Context, indexURL string) (*Source, error) {
	var index ServiceIndex
	if err := c.getJSON(ctx, indexURL, &index); err != nil {
		return nil, fmt.Errorf("failed to read service index %s: %w", indexURL, err)
	}

	var base string
	for _, r := range index.Resources {
		if r.Type == registrationsSemVer2Type {
			base = r.ID
			break
		}
		if base == "" && strings.HasPrefix(r.Type, registrationsType) {
			base = r.ID
		}
	}
	if base == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoRegistrationResource, indexURL)
	}

	return &Source{
		IndexURL:             indexURL,
		RegistrationsBaseURL: strings.TrimSuffix(base, "/") + "/",
	}, nil
}

// GetPackageMetadata returns deprecation and vulnerability data for one
// package version.
func (c *Client) GetPackageMetadata(ctx context.Context, src *Source, id, version string) (*PackageMetadata, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source is nil", models.ErrInvalidArgument)
	}

	indexURL := src.RegistrationsBaseURL + url.PathEscape(strings.ToLower(id)) + "/index.json"
	var index RegistrationIndex
	if err := c.getJSON(ctx, indexURL, &index); err != nil {
		return nil, fmt.Errorf("failed to read registration for %s: %w", id, err)
	}

	want, parseErr := models.ParseVersion(version)
	for _, page := range index.Items {
		if parseErr == nil && !pageContains(page, want) {
			continue
		}

		leaves := page.Items
		if len(leaves) == 0 && page.ID != "" {
			var full RegistrationPage
			if err := c.getJSON(ctx, page.ID, &full); err != nil {
				return nil, fmt.Errorf("failed to read registration page for %s: %w", id, err)
			}
			leaves = full.Items
		}

		for _, leaf := range leaves {
			if !versionMatches(leaf.CatalogEntry.Version, version) {
				continue
			}
			entry := leaf.CatalogEntry
			return &PackageMetadata{
				ID:              firstNonEmpty(entry.ID, id),
				Version:         entry.Version,
				Deprecation:     entry.Deprecation,
				Vulnerabilities: entry.Vulnerabilities,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s %s", ErrVersionNotFound, id, version)
}

func pageContains(page RegistrationPage, v *semver.Version) bool {
	if lower, err := models.ParseVersion(page.Lower); err == nil && v.LessThan(lower) {
		return false
	}
	if upper, err := models.ParseVersion(page.Upper); err == nil && v.GreaterThan(upper) {
		return false
	}
	return true
}

func versionMatches(candidate, want string) bool {
	if strings.EqualFold(candidate, want) {
		return true
	}
	a, err := models.ParseVersion(candidate)
	if err != nil {
		return false
	}
	b, err := models.ParseVersion(want)
	if err != nil {
		return false
	}
	return a.Equal(b)
}

// getJSON fetches url through the response cache and decodes it into v.
// A 404 is reported as ErrPackageNotFound.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, ok, err := c.Cache.Get(ctx, rawURL)
	if err != nil {
		c.logMsg(fmt.Sprintf("Cache read failed for %s: %v", rawURL, err), "warning")
		ok = false
	}

	if ok {
		if err := json.Unmarshal(body, v); err == nil {
			return nil
		}
		// A corrupt entry is refetched below.
	}

	body, err = c.fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}

	// Only bodies that decode are cached
	if err := c.Cache.Set(ctx, rawURL, body, c.CacheTTL); err != nil {
		c.logMsg(fmt.Sprintf("Cache write failed for %s: %v", rawURL, err), "warning")
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrPackageNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
