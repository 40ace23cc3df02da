package crawler

import (
	"context"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/jobworker/helpers"
	"sjsage522/jobworker/logger"
	apperrors "sjsage522/jobworker/pkg/errors"
)

// DefaultFetchDelay is the pause before every request
const DefaultFetchDelay = 1 * time.Second

// PageFetcher issues one GET per call, always sleeping a fixed delay first.
// It never retries.
type PageFetcher struct {
	client    *http.Client
	userAgent string
	delay     time.Duration
	log       *logger.Logger
}

// NewPageFetcher creates a new page fetcher
func NewPageFetcher(client *http.Client, userAgent string, delay time.Duration) *PageFetcher {
	if client == nil {
		client = helpers.NewHTTPClient(helpers.DefaultTimeout)
	}
	if delay < 0 {
		delay = 0
	}
	return &PageFetcher{
		client:    client,
		userAgent: userAgent,
		delay:     delay,
		log:       logger.ForCrawler("fetch"),
	}
}

// Fetch waits the configured delay, then fetches url and parses the body
func (f *PageFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := sleep(ctx, f.delay); err != nil {
		return nil, apperrors.NewFetch(url, "canceled before request", err)
	}

	f.log.Debug().Str("url", url).Msg("GET")

	utf8Body, err := helpers.FetchWithHeaders(ctx, f.client, url, f.userAgent)
	if err != nil {
		return nil, err
	}

	return createDocument(url, utf8Body)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
