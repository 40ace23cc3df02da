package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/jobworker/helpers"
	"sjsage522/jobworker/logger"
)

// itemMarker is the path segment that precedes (id, title slug) in item links
const itemMarker = "job"

// ListingCrawler walks the paginated search results of a job board
type ListingCrawler struct {
	fetcher     DocumentFetcher
	itemBaseURL string
	maxPages    int
	log         *logger.Logger
}

// NewListingCrawler creates a listing crawler. maxPages <= 0 means no limit.
func NewListingCrawler(fetcher DocumentFetcher, itemBaseURL string, maxPages int) *ListingCrawler {
	if maxPages < 0 {
		maxPages = 0
	}
	return &ListingCrawler{
		fetcher:     fetcher,
		itemBaseURL: strings.TrimRight(itemBaseURL, "/"),
		maxPages:    maxPages,
		log:         logger.ForCrawler("listing"),
	}
}

// Crawl fetches pages 1, 2, ... until a page yields no item links and
// returns the canonical item URLs in first-seen order without duplicates.
// A failed page fetch aborts the crawl.
func (c *ListingCrawler) Crawl(ctx context.Context, baseURL string) ([]string, error) {
	var urls []string
	seen := make(map[string]struct{})

	for page := 1; c.maxPages == 0 || page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := PageURL(baseURL, page)
		doc, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		links := c.pageLinks(doc)
		c.log.Info().Int("page", page).Int("links", len(links)).Msg("Fetched listing page")
		if len(links) == 0 {
			break
		}

		for _, link := range links {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			urls = append(urls, link)
		}
	}

	c.log.Info().Int("candidates", len(urls)).Msg("Listing crawl finished")
	return urls, nil
}

// pageLinks returns the canonical URLs of every matching anchor on a page
func (c *ListingCrawler) pageLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		candidate, ok := ParseCandidate(href)
		if !ok {
			return
		}
		links = append(links, CanonicalURL(c.itemBaseURL, candidate))
	})
	return links
}

// PageURL appends the Page=<n> query parameter to a pre-encoded base URL
func PageURL(baseURL string, page int) string {
	sep := "&"
	switch {
	case strings.HasSuffix(baseURL, "?"), strings.HasSuffix(baseURL, "&"):
		sep = ""
	case !strings.Contains(baseURL, "?"):
		sep = "?"
	}
	return fmt.Sprintf("%s%sPage=%d", baseURL, sep, page)
}

// ParseCandidate reads (id, title slug) from an href whose path holds a
// "job" segment followed by two non-empty segments
func ParseCandidate(href string) (ListingCandidate, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ListingCandidate{}, false
	}

	path := u.EscapedPath()
	idx := helpers.IndexOfPart(path, "/", itemMarker)
	if idx < 0 {
		return ListingCandidate{}, false
	}

	id, err := helpers.GetSplitPart(path, "/", idx+1)
	if err != nil || id == "" {
		return ListingCandidate{}, false
	}
	slug, err := helpers.GetSplitPart(path, "/", idx+2)
	if err != nil || slug == "" {
		return ListingCandidate{}, false
	}

	return ListingCandidate{ID: id, TitleSlug: slug}, true
}

// CanonicalURL builds <itemBaseURL>/job/<id>/<slug>/
func CanonicalURL(itemBaseURL string, c ListingCandidate) string {
	return fmt.Sprintf("%s/%s/%s/%s/", strings.TrimRight(itemBaseURL, "/"), itemMarker, c.ID, c.TitleSlug)
}
