package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	apperrors "sjsage522/jobworker/pkg/errors"
)

// DefaultTimeout bounds a single request when no client is supplied
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns a client with the given timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}

// FetchWithHeaders sends a single HTTP GET request with the given User-Agent,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
// Any non-2xx status is returned as a fetch error carrying the status code.
func FetchWithHeaders(ctx context.Context, client *http.Client, url, userAgent string) (io.Reader, error) {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewFetch(url, "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewFetch(url, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewStatus(url, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewFetch(url, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperrors.NewFetch(url, fmt.Sprintf("failed to convert %s body to UTF-8", name), err)
	}

	return &buf, nil
}
