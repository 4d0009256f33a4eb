// Package fetch wraps the HTTP client all upstream page requests go through.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single page fetch so one slow upstream page cannot
// stall a whole run.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent identifies patchfeed to the upstream site.
const DefaultUserAgent = "patchfeed/1.0 (patch notes aggregator)"

// Error describes a failure to fetch or parse a single upstream page. The
// run-level retry policy lives with the caller; the client itself never
// retries.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client fetches upstream HTML pages. Safe for concurrent use.
type Client struct {
	http *resty.Client
}

// NewClient creates a page-fetching client. Zero values fall back to
// DefaultTimeout and DefaultUserAgent.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
	}
}

// Document fetches pageURL and parses the response body as HTML. Network
// failures, timeouts, non-200 responses, and unparseable bodies all surface
// as a *Error. Cancelling ctx aborts an in-flight request.
func (c *Client) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, &Error{URL: pageURL, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &Error{URL: pageURL, Err: fmt.Errorf("HTTP error: %s", resp.Status())}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &Error{URL: pageURL, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	return doc, nil
}
