package backstage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JoshTKx/actress-webscraper/pkg/config"
	"github.com/JoshTKx/actress-webscraper/pkg/errors"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
	"github.com/JoshTKx/actress-webscraper/pkg/ratelimit"
	"github.com/JoshTKx/actress-webscraper/pkg/retry"
)

// maxBodySize caps how much of a response body is read, as a guard
// against runaway pages
const maxBodySize = 20 << 20 // 20 MB

// Client is an HTTP client for the Backstage site. It sends browser-like
// headers, paces page fetches through a shared limiter, honors robots.txt
// when configured, and retries transient failures. Page retries back off
// linearly; image retries use jittered exponential backoff so the pool's
// workers do not retry in lockstep. An optional token bucket caps the
// total number of requests per minute.
type Client struct {
	httpClient   *http.Client
	headers      map[string]string
	baseURL      string
	maxRetries   int
	pacer        ratelimit.Limiter
	bucket       ratelimit.Limiter
	robots       *robotsGate
	backoff      retry.BackoffStrategy
	imageRetrier *retry.Retrier
	logger       logger.Logger

	sessionOnce sync.Once
}

// NewClient creates a client configured for the target site
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := &http.Client{
		Timeout: cfg.Scrape.RequestTimeout,
	}

	c := &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":                cfg.Site.UserAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Cache-Control":             "no-cache",
			"Pragma":                    "no-cache",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
			"Upgrade-Insecure-Requests": "1",
		},
		baseURL:    strings.TrimSuffix(cfg.Site.BaseURL, "/"),
		maxRetries: cfg.Scrape.MaxRetries,
		pacer:      ratelimit.NewPacer(cfg.Scrape.RequestDelay),
		backoff: &retry.LinearBackoff{
			BaseDelay: 5 * time.Second,
			MaxDelay:  30 * time.Second,
			Increment: 5 * time.Second,
		},
		logger: log,
	}

	c.imageRetrier = retry.NewRetrier(&retry.Config{
		RetryIf: retry.DefaultRetryIf,
		Logger:  log,
	}).WithMaxAttempts(cfg.Scrape.MaxRetries).WithBackoff(retry.DefaultExponentialBackoff())

	if cfg.Scrape.MaxRequestsPerMinute > 0 {
		c.bucket = ratelimit.NewTokenBucket(cfg.Scrape.MaxRequestsPerMinute, time.Minute)
	}

	if cfg.Site.RespectRobots {
		c.robots = newRobotsGate(httpClient, cfg.Site.UserAgent, log)
	}

	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the configured site base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EstablishSession visits the site homepage once to pick up any session
// cookies before scraping begins. Failures are logged and ignored.
func (c *Client) EstablishSession(ctx context.Context) {
	c.sessionOnce.Do(func() {
		c.logger.Debug("establishing session via homepage visit")
		if _, err := c.get(ctx, c.baseURL+"/", ""); err != nil {
			c.logger.WithError(err).Warn("homepage visit failed, continuing anyway")
		}
	})
}

// FetchPage fetches a page and returns its raw HTML. The request is paced,
// checked against robots.txt, and retried on transient failures.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	return c.fetchWithRetry(ctx, pageURL, "")
}

// FetchDocument fetches a page and parses it into a goquery document.
// The raw HTML is returned alongside the document because profile links on
// script-rendered pages are often only visible in the raw markup.
func (c *Client) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, string, error) {
	html, err := c.fetchWithRetry(ctx, pageURL, "")
	if err != nil {
		return nil, "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", errors.New(errors.ErrorTypeParsing, fmt.Sprintf("failed to parse HTML: %v", err), 0)
	}

	return doc, html, nil
}

// DownloadImage fetches an image URL and returns the payload bytes.
// The referer should be the profile page the image was found on. Image
// downloads are not paced; the politeness delay applies to page fetches
// only, so the image pool can run at its configured width.
func (c *Client) DownloadImage(ctx context.Context, imageURL, referer string) ([]byte, error) {
	var body []byte

	err := c.imageRetrier.WithContext(ctx).Do(func() error {
		resp, err := c.doRequest(ctx, imageURL, "image/avif,image/webp,image/apng,image/*,*/*;q=0.8", referer)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkStatus(resp, imageURL); err != nil {
			return err
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("failed to read image body: %v", err), 0)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return body, nil
}

// fetchWithRetry performs a paced GET with the retry budget applied
func (c *Client) fetchWithRetry(ctx context.Context, pageURL, referer string) (string, error) {
	return retry.DoWithResult(func() (string, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return "", err
		}
		return c.get(ctx, pageURL, referer)
	}, c.retryConfig(ctx))
}

// get performs a single GET request and returns the body as a string
func (c *Client) get(ctx context.Context, pageURL, referer string) (string, error) {
	resp, err := c.doRequest(ctx, pageURL, "", referer)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, pageURL); err != nil {
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err), 0)
	}

	return string(body), nil
}

// doRequest performs an HTTP request with the configured headers. Every
// request, page or image, draws from the per-minute budget when one is set.
func (c *Client) doRequest(ctx context.Context, rawURL, accept, referer string) (*http.Response, error) {
	if c.bucket != nil {
		if err := c.bucket.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.robots != nil && !c.robots.Allowed(ctx, rawURL) {
		return nil, errors.New(errors.ErrorTypeBotBlocked, fmt.Sprintf("disallowed by robots.txt: %s", rawURL), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("invalid request URL: %v", err), 0)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		// Surface context cancellation as-is so it is never retried
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkStatus converts non-2xx responses into typed errors
func (c *Client) checkStatus(resp *http.Response, rawURL string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errType := errors.TypeForStatusCode(resp.StatusCode)
	return errors.New(errType, fmt.Sprintf("HTTP %d fetching %s", resp.StatusCode, rawURL), resp.StatusCode)
}

// SetRetryBackoff replaces the backoff strategy used between retries,
// for page fetches and image downloads alike
func (c *Client) SetRetryBackoff(backoff retry.BackoffStrategy) {
	c.backoff = backoff
	c.imageRetrier = c.imageRetrier.WithBackoff(backoff)
}

// retryConfig builds the retry configuration for site requests.
// The default backoff grows linearly with the attempt number.
func (c *Client) retryConfig(ctx context.Context) *retry.Config {
	return &retry.Config{
		MaxAttempts: c.maxRetries,
		Backoff:     c.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	}
}
