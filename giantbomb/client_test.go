package giantbomb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gbgrab/cache"
)

func testClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []Option{WithRateLimit(0), WithPollInterval(time.Millisecond)}
	client, err := NewClient(server.URL, "test-key", nil, zerolog.Nop(), append(base, opts...)...)
	require.NoError(t, err)

	return client, server
}

func envelope(videos []Video, total int) string {
	results, _ := json.Marshal(videos)
	return fmt.Sprintf(`{"error":"OK","status_code":1,"number_of_page_results":%d,"number_of_total_results":%d,"results":%s}`,
		len(videos), total, results)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("https://example.com", "", nil, zerolog.Nop())
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFetchListDecodesEnvelope(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		fmt.Fprint(w, envelope([]Video{{ID: 1, GUID: "2300-1", Name: "Quick Look"}}, 1))
	})

	resp, err := client.FetchList(context.Background(), "/videos/", nil)
	require.NoError(t, err)

	videos, err := resp.Videos()
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Quick Look", videos[0].Name)
}

func TestAPIErrorSurfacesRemoteMessage(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"Invalid API Key","status_code":100,"results":[]}`)
	})

	_, err := client.FetchList(context.Background(), "/videos/", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 100, apiErr.StatusCode)
	assert.Equal(t, "Invalid API Key", apiErr.Message)
	assert.NotContains(t, apiErr.Error(), "test-key")
}

func TestEmptyBodyIsDistinctFromAPIError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// No body at all.
	})

	_, err := client.FetchList(context.Background(), "/videos/", nil)
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestMalformedBodyIsEmptyResponse(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	})

	_, err := client.FetchList(context.Background(), "/videos/", nil)
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestHTTPFailureIsTransportError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchList(context.Background(), "/videos/", nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.NotContains(t, transportErr.Error(), "test-key")
}

func TestSignatureExcludesCredential(t *testing.T) {
	client, err := NewClient("https://example.com/api", "secret", nil, zerolog.Nop())
	require.NoError(t, err)

	params := url.Values{}
	params.Set("api_key", "secret")
	params.Set("filter", "video_show:18")

	sig := client.signature("/videos/", params)
	assert.NotContains(t, sig, "secret")
	assert.Contains(t, sig, "filter=video_show%3A18")
}

func TestRateLimitSpacesRequests(t *testing.T) {
	var calls atomic.Int32
	var lastStart atomic.Int64

	var minGap int64 = 1 << 62
	handler := func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UnixNano()
		if prev := lastStart.Swap(now); prev != 0 {
			if gap := now - prev; gap < minGap {
				minGap = gap
			}
		}
		calls.Add(1)
		fmt.Fprint(w, envelope(nil, 0))
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", nil, zerolog.Nop(),
		WithRateLimit(100*time.Millisecond),
		WithPollInterval(5*time.Millisecond),
	)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		params := url.Values{}
		params.Set("offset", fmt.Sprint(i))
		_, err := client.FetchList(ctx, "/videos/", params)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, minGap, int64(100*time.Millisecond),
		"successive request starts must be spaced by the rate limit")
}

func TestCacheShortCircuitsNetwork(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, envelope([]Video{{ID: 7, GUID: "2300-7", Name: "Demo"}}, 1))
	}))
	defer server.Close()

	store := cache.New(filepath.Join(t.TempDir(), "cache.json"), zerolog.Nop())
	client, err := NewClient(server.URL, "test-key", store, zerolog.Nop(),
		WithRateLimit(0), WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		resp, err := client.FetchList(ctx, "/videos/", nil)
		require.NoError(t, err)

		videos, err := resp.Videos()
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.Equal(t, 7, videos[0].ID)
	}

	assert.Equal(t, int32(1), calls.Load(), "repeated identical requests must be served from cache")
}

func TestCachedKeyOmitsCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelope(nil, 0))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "cache.json")
	store := cache.New(path, zerolog.Nop())
	client, err := NewClient(server.URL, "super-secret", store, zerolog.Nop(),
		WithRateLimit(0), WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	_, err = client.FetchList(context.Background(), "/videos/", nil)
	require.NoError(t, err)
	require.NoError(t, store.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")
}

func TestContextCancellationDuringWait(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelope(nil, 0))
	}, WithRateLimit(time.Hour))

	// Occupy the rate window with one successful call.
	client.mu.Lock()
	client.lastDone = time.Now()
	client.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchList(ctx, "/videos/", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
