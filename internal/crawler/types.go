package crawler

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Address is the postal address of a posting's first job location.
// Empty fields are unknown.
type Address struct {
	StreetAddress string `json:"streetAddress,omitempty"`
	Locality      string `json:"addressLocality,omitempty"`
	Region        string `json:"addressRegion,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	Country       string `json:"addressCountry,omitempty"`
}

// ItemRecord is one successfully extracted job posting.
//
// Optional string fields use "" for unknown and Location is nil when the
// posting has no usable location. Score always equals len(MatchedKeywords).
type ItemRecord struct {
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        *Address `json:"location,omitempty"`
	State           string   `json:"state"`
	City            string   `json:"city"`
	EmploymentType  string   `json:"employment_type"`
	DatePosted      string   `json:"date_posted"`
	ValidThrough    string   `json:"valid_through"`
	Description     string   `json:"description"`
	Score           int      `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
	URL             string   `json:"url"`
}

// ExceptionRecord records a URL whose extraction failed
type ExceptionRecord struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ListingCandidate is the (id, title slug) pair read from a listing anchor
type ListingCandidate struct {
	ID        string
	TitleSlug string
}

// Result is the outcome of one scrape run
type Result struct {
	RunID      string
	Candidates int
	New        int
	Jobs       []ItemRecord
	Exceptions []ExceptionRecord
}

// DocumentFetcher fetches a URL and parses it into a document
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}
