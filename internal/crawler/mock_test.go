package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "sjsage522/jobworker/pkg/errors"
)

// mockFetcher serves canned HTML per URL and records every request
type mockFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

var _ DocumentFetcher = (*mockFetcher)(nil)

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	m.calls = append(m.calls, url)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewFetch(url, "canceled before request", err)
	}
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	html, ok := m.pages[url]
	if !ok {
		return nil, apperrors.NewStatus(url, 404)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// listingPage renders a results page linking to the given job ids
func listingPage(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><nav><a href="/searchjobs/?Page=2">next</a><a href="/jobs/">all jobs</a></nav><ul>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<li><a href="/job/%s/role-%s/">Role %s</a></li>`, id, id, id)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// postingPage renders an item page with a single JSON-LD block
func postingPage(jsonLD string) string {
	return `<html><head><title>Job</title><script type="application/ld+json">` +
		jsonLD + `</script></head><body><h1>Job</h1></body></html>`
}
