package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	*httptest.Server
	requests atomic.Int64
}

func newFakeFeed(t *testing.T) *fakeFeed {
	t.Helper()
	feed := &fakeFeed{}
	mux := http.NewServeMux()

	mux.HandleFunc("/v3/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"version": "3.0.0",
			"resources": [
				{"@id": "%[1]s/v3/search", "@type": "SearchQueryService"},
				{"@id": "%[1]s/v3/registration", "@type": "RegistrationsBaseUrl"},
				{"@id": "%[1]s/v3/registration-semver2/", "@type": "RegistrationsBaseUrl/3.6.0"}
			]
		}`, feed.URL)
	})

	mux.HandleFunc("/v3/registration-semver2/newtonsoft.json/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"count": 1,
			"items": [{
				"@id": "page0",
				"lower": "12.0.1",
				"upper": "13.0.1",
				"items": [
					{"catalogEntry": {
						"id": "Newtonsoft.Json",
						"version": "12.0.1",
						"vulnerabilities": [{"advisoryUrl": "https://github.com/advisories/GHSA-5crp-9r3c-p9vr", "severity": "2"}]
					}},
					{"catalogEntry": {"id": "Newtonsoft.Json", "version": "13.0.1"}}
				]
			}]
		}`)
	})

	mux.HandleFunc("/v3/registration-semver2/old.lib/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"count": 2,
			"items": [
				{"@id": "%[1]s/v3/registration-semver2/old.lib/page/0.1.0/0.9.0.json", "lower": "0.1.0", "upper": "0.9.0"},
				{"@id": "%[1]s/v3/registration-semver2/old.lib/page/1.0.0/2.0.0.json", "lower": "1.0.0", "upper": "2.0.0"}
			]
		}`, feed.URL)
	})

	mux.HandleFunc("/v3/registration-semver2/old.lib/page/1.0.0/2.0.0.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"lower": "1.0.0",
			"upper": "2.0.0",
			"items": [
				{"catalogEntry": {
					"id": "Old.Lib",
					"version": "1.0.0.0",
					"deprecation": {"reasons": ["Legacy"], "message": "Use New.Lib", "alternatePackage": {"id": "New.Lib", "range": "*"}}
				}},
				{"catalogEntry": {"id": "Old.Lib", "version": "2.0.0"}}
			]
		}`)
	})

	mux.HandleFunc("/portal/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>Sign in to continue</body></html>`)
	})

	mux.HandleFunc("/v3/registration-semver2/broken/index.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	feed.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feed.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(feed.Close)
	return feed
}

func TestResolveSource(t *testing.T) {
	feed := newFakeFeed(t)
	client := NewClient(WithHTTPClient(feed.Client()))

	src, err := client.ResolveSource(context.Background(), feed.URL+"/v3/index.json")
	require.NoError(t, err)
	assert.Equal(t, feed.URL+"/v3/registration-semver2/", src.RegistrationsBaseURL)

	_, err = client.ResolveSource(context.Background(), feed.URL+"/missing/index.json")
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestResolveSourceWithoutRegistrations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version": "3.0.0", "resources": [{"@id": "x", "@type": "SearchQueryService"}]}`)
	}))
	defer srv.Close()

	_, err := NewClient().ResolveSource(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNoRegistrationResource)
}

func TestGetPackageMetadata(t *testing.T) {
	feed := newFakeFeed(t)
	client := NewClient(WithHTTPClient(feed.Client()))
	ctx := context.Background()

	src, err := client.ResolveSource(ctx, feed.URL+"/v3/index.json")
	require.NoError(t, err)

	t.Run("vulnerable inline leaf", func(t *testing.T) {
		meta, err := client.GetPackageMetadata(ctx, src, "Newtonsoft.Json", "12.0.1")
		require.NoError(t, err)
		assert.True(t, meta.IsVulnerable())
		assert.False(t, meta.IsDeprecated())
		assert.Equal(t, "2", meta.Vulnerabilities[0].Severity)
	})

	t.Run("clean inline leaf", func(t *testing.T) {
		meta, err := client.GetPackageMetadata(ctx, src, "newtonsoft.json", "13.0.1")
		require.NoError(t, err)
		assert.False(t, meta.IsVulnerable())
		assert.False(t, meta.IsDeprecated())
	})

	t.Run("deprecated leaf on a remote page", func(t *testing.T) {
		meta, err := client.GetPackageMetadata(ctx, src, "Old.Lib", "1.0.0")
		require.NoError(t, err)
		assert.True(t, meta.IsDeprecated())
		assert.Equal(t, []string{"Legacy"}, meta.Deprecation.Reasons)
		assert.Equal(t, "New.Lib", meta.Deprecation.AlternatePackage.ID)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := client.GetPackageMetadata(ctx, src, "Newtonsoft.Json", "1.0.0")
		assert.ErrorIs(t, err, ErrVersionNotFound)
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := client.GetPackageMetadata(ctx, src, "Does.Not.Exist", "1.0.0")
		assert.ErrorIs(t, err, ErrPackageNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.GetPackageMetadata(ctx, src, "broken", "1.0.0")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPackageNotFound)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := client.GetPackageMetadata(ctx, nil, "x", "1.0.0")
		assert.Error(t, err)
	})
}

func TestClientUsesResponseCache(t *testing.T) {
	feed := newFakeFeed(t)
	cache := newMemoryCache()
	client := NewClient(WithHTTPClient(feed.Client()), WithCache(cache, 0))
	ctx := context.Background()

	src, err := client.ResolveSource(ctx, feed.URL+"/v3/index.json")
	require.NoError(t, err)
	_, err = client.GetPackageMetadata(ctx, src, "Newtonsoft.Json", "13.0.1")
	require.NoError(t, err)
	before := feed.requests.Load()

	again, err := client.ResolveSource(ctx, feed.URL+"/v3/index.json")
	require.NoError(t, err)
	_, err = client.GetPackageMetadata(ctx, again, "Newtonsoft.Json", "12.0.1")
	require.NoError(t, err)

	assert.Equal(t, before, feed.requests.Load(), "second round is served from cache")
	assert.Equal(t, DefaultCacheTTL, client.CacheTTL)
}

func TestClientDoesNotCacheUndecodableBodies(t *testing.T) {
	feed := newFakeFeed(t)
	cache := newMemoryCache()
	client := NewClient(WithHTTPClient(feed.Client()), WithCache(cache, 0))
	ctx := context.Background()
	portal := feed.URL + "/portal/index.json"

	_, err := client.ResolveSource(ctx, portal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")

	_, ok, err := cache.Get(ctx, portal)
	require.NoError(t, err)
	assert.False(t, ok, "a non-JSON body must not be cached")

	before := feed.requests.Load()
	_, err = client.ResolveSource(ctx, portal)
	require.Error(t, err)
	assert.Equal(t, before+1, feed.requests.Load(), "the next call goes back to the network")
}

func TestClientRefetchesCorruptCacheEntry(t *testing.T) {
	feed := newFakeFeed(t)
	cache := newMemoryCache()
	client := NewClient(WithHTTPClient(feed.Client()), WithCache(cache, 0))
	ctx := context.Background()
	index := feed.URL + "/v3/index.json"

	require.NoError(t, cache.Set(ctx, index, []byte("not json"), 0))

	src, err := client.ResolveSource(ctx, index)
	require.NoError(t, err)
	assert.Equal(t, feed.URL+"/v3/registration-semver2/", src.RegistrationsBaseURL)

	body, ok, err := cache.Get(ctx, index)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(body), "RegistrationsBaseUrl")
}

func TestIsHTTPSource(t *testing.T) {
	tests := []struct {
		source   string
		expected bool
	}{
		{"https://api.nuget.org/v3/index.json", true},
		{"HTTP://internal/feed/index.json", true},
		{`C:\local-feed`, false},
		{"/var/packages", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsHTTPSource(tt.source))
		})
	}
}
