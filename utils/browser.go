package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os/exec"
	"time"

	"catalog-sync/internal/types"

	"github.com/chromedp/chromedp"
)

// ErrBrowserUnavailable is returned when no Chrome executable could be
// started. It is permanent, so it is never retried.
var ErrBrowserUnavailable = errors.New("headless browser unavailable")

// BrowserClient provides headless browser functionality for vendor pages
// that only render their catalog with JavaScript
type BrowserClient struct {
	config      *types.Config
	logger      types.Logger
	scrollPause time.Duration
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config:      config,
		logger:      logger,
		scrollPause: 1500 * time.Millisecond,
	}
}

// Get renders the page in headless Chrome and returns its HTML, using the
// same retry and delay policy as the HTTP client
func (b *BrowserClient) Get(ctx context.Context, url string) (*Page, error) {
	return fetchWithRetry(ctx, b.config, b.logger, url, func(ctx context.Context) (*Page, error) {
		html, err := b.GetPageContent(ctx, url)
		if err != nil {
			return nil, err
		}
		return &Page{
			URL:         url,
			StatusCode:  200,
			ContentType: "text/html; charset=utf-8",
			Body:        []byte(html),
		}, nil
	})
}

// GetPageContent navigates to url, scrolls until lazy-loaded content stops
// growing the page and returns the outer HTML
func (b *BrowserClient) GetPageContent(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(b.config.UserAgent),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	if b.config.BrowserPath != "" {
		opts = append(opts, chromedp.ExecPath(b.config.BrowserPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout+time.Duration(b.config.ScrollPasses)*b.scrollPause)
	defer cancel()

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %w", ErrBrowserUnavailable, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load page: %w", err)
	}

	if err := b.scroll(browserCtx); err != nil {
		b.logger.Debugf("Scrolling %s stopped early: %v", url, err)
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debugf("Rendered %s (%d bytes)", url, len(html))
	return html, nil
}

func (b *BrowserClient) scroll(ctx context.Context) error {
	var last int64
	for i := 0; i < b.config.ScrollPasses; i++ {
		var height int64
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height),
			chromedp.Sleep(b.scrollPause),
		)
		if err != nil {
			return err
		}
		if height == last {
			return nil
		}
		last = height
	}
	return nil
}
