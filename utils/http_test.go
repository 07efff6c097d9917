package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"catalog-sync/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *types.Config {
	config := types.DefaultConfig()
	config.RequestDelay = time.Millisecond // Faster for testing
	config.RetryBackoff = time.Millisecond
	config.Timeout = 5 * time.Second
	return config
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewHTTPClient(t *testing.T) {
	config := types.DefaultConfig()
	logger := testLogger()

	client := NewHTTPClient(config, logger)

	assert.NotNil(t, client)
	assert.Equal(t, config, client.config)
	assert.Equal(t, logger, client.logger)
	assert.NotNil(t, client.client)

	client.Close()
}

func TestNewHTTPClient_LogsThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	client := NewHTTPClient(testConfig(), logger)
	defer client.Close()

	hook := func(*resty.Client, *http.Request) error { return nil }
	client.client.SetPreRequestHook(hook)
	client.client.SetPreRequestHook(hook)

	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "Overwriting an existing pre-request hook")
}

func TestHTTPClient_Get_Success(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(), testLogger())
	defer client.Close()

	page, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "test response", string(page.Body))
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
	assert.Equal(t, types.DefaultUserAgent, userAgent)
}

func TestHTTPClient_Get_NotFound(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	config := testConfig()
	config.MaxRetries = 2
	client := NewHTTPClient(config, testLogger())
	defer client.Close()

	_, err := client.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHTTPClient_Get_RecoversAfterFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewHTTPClient(testConfig(), testLogger())
	defer client.Close()

	page, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(page.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPClient_Get_WaitsBetweenRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	config := testConfig()
	config.RequestDelay = 50 * time.Millisecond
	client := NewHTTPClient(config, testLogger())
	defer client.Close()

	start := time.Now()
	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestHTTPClient_Get_DelayAndBackoffBetweenAttempts(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	config := testConfig()
	config.MaxRetries = 3
	config.RequestDelay = 10 * time.Millisecond
	config.RetryBackoff = 20 * time.Millisecond
	client := NewHTTPClient(config, testLogger())
	defer client.Close()

	start := time.Now()
	page, err := client.Get(context.Background(), server.URL)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(page.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	// delay after each of the three attempts, backoff of 1x and 2x after the failures
	assert.GreaterOrEqual(t, elapsed, 3*config.RequestDelay+config.RetryBackoff*(1+2))
}

func TestFetchWithRetry_BrowserUnavailableIsNotRetried(t *testing.T) {
	config := testConfig()
	config.MaxRetries = 3
	calls := 0

	_, err := fetchWithRetry(context.Background(), config, testLogger(), "https://acme.test", func(ctx context.Context) (*Page, error) {
		calls++
		return nil, fmt.Errorf("%w: %w", ErrBrowserUnavailable, errors.New("chrome not installed"))
	})

	assert.ErrorIs(t, err, ErrBrowserUnavailable)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 1, calls)
}

func TestBrowserClient_Get_MissingExecutable(t *testing.T) {
	config := testConfig()
	config.BrowserPath = filepath.Join(t.TempDir(), "no-such-chrome")
	client := NewBrowserClient(config, testLogger())

	_, err := client.Get(context.Background(), "https://acme.test")

	assert.ErrorIs(t, err, ErrBrowserUnavailable)
}

func TestHTTPClient_Get_ContextCancelled(t *testing.T) {
	client := NewHTTPClient(testConfig(), testLogger())
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.Get(ctx, "http://example.com")

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
