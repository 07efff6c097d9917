package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"catalog-sync/internal/types"

	"github.com/go-resty/resty/v2"
)

// ErrRetriesExhausted is returned when every attempt to fetch a page failed
var ErrRetriesExhausted = errors.New("all retry attempts failed")

// Page is the raw content of a fetched page
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// PageSource fetches raw page content
type PageSource interface {
	Get(ctx context.Context, url string) (*Page, error)
}

// HTTPClient provides HTTP functionality with a politeness delay and retries
type HTTPClient struct {
	client *resty.Client
	config *types.Config
	logger types.Logger
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := resty.New().
		SetTimeout(config.Timeout).
		SetHeaders(map[string]string{
			"User-Agent":                config.UserAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"Upgrade-Insecure-Requests": "1",
		}).
		SetLogger(logger)

	return &HTTPClient{
		client: client,
		config: config,
		logger: logger,
	}
}

// Get performs a GET request with retries, waiting the configured delay
// after every attempt
func (h *HTTPClient) Get(ctx context.Context, url string) (*Page, error) {
	return fetchWithRetry(ctx, h.config, h.logger, url, func(ctx context.Context) (*Page, error) {
		h.logger.Debugf("GET %s", url)

		resp, err := h.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if !resp.IsSuccess() {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
		}

		return &Page{
			URL:         url,
			StatusCode:  resp.StatusCode(),
			ContentType: resp.Header().Get("Content-Type"),
			Body:        resp.Body(),
		}, nil
	})
}

// Close cleans up resources
func (h *HTTPClient) Close() {
	if t, ok := h.client.GetClient().Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

// fetchWithRetry runs attempt up to config.MaxRetries times. Every attempt is
// followed by config.RequestDelay; a failed attempt is additionally followed
// by a linear backoff of config.RetryBackoff times the attempt number.
func fetchWithRetry(ctx context.Context, config *types.Config, logger types.Logger, url string, attempt func(context.Context) (*Page, error)) (*Page, error) {
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := attempt(ctx)
		if errors.Is(err, ErrBrowserUnavailable) {
			return nil, err
		}

		// politeness delay applies to failures as well
		if waitErr := Sleep(ctx, config.RequestDelay); waitErr != nil && err != nil {
			return nil, waitErr
		}

		if err == nil {
			logger.Debugf("Retrieved %d bytes from %s", len(page.Body), url)
			return page, nil
		}

		lastErr = err
		logger.Warnf("Attempt %d/%d failed for %s: %v", i, attempts, url, err)

		if i < attempts {
			if err := Sleep(ctx, config.RetryBackoff*time.Duration(i)); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w for %s: %w", ErrRetriesExhausted, url, lastErr)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
