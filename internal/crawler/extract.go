package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "sjsage522/jobworker/pkg/errors"
)

const jsonLDSelector = `script[type="application/ld+json"]`

// ItemExtractor turns a job posting page into an ItemRecord
type ItemExtractor struct {
	fetcher   DocumentFetcher
	scorer    *Scorer
	wrapWidth int
}

// NewItemExtractor creates a new item extractor
func NewItemExtractor(fetcher DocumentFetcher, scorer *Scorer, wrapWidth int) *ItemExtractor {
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}
	return &ItemExtractor{
		fetcher:   fetcher,
		scorer:    scorer,
		wrapWidth: wrapWidth,
	}
}

// Extract fetches url and builds its record. Every failure is returned as
// an extraction error wrapping the underlying fetch or parse error.
func (e *ItemExtractor) Extract(ctx context.Context, url string) (ItemRecord, error) {
	doc, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return ItemRecord{}, apperrors.NewExtraction(url, err)
	}

	record, err := e.ExtractDocument(url, doc)
	if err != nil {
		return ItemRecord{}, apperrors.NewExtraction(url, err)
	}
	record.URL = url
	return record, nil
}

// ExtractDocument builds a record from an already parsed posting page.
// url is only used for error reporting; the returned record has no URL.
func (e *ItemExtractor) ExtractDocument(url string, doc *goquery.Document) (ItemRecord, error) {
	posting, err := findPosting(url, doc)
	if err != nil {
		return ItemRecord{}, err
	}

	record := ItemRecord{
		Title:          jsonString(posting["title"]),
		Company:        organizationName(posting["hiringOrganization"]),
		EmploymentType: jsonStringList(posting["employmentType"]),
		DatePosted:     jsonString(posting["datePosted"]),
		ValidThrough:   jsonString(posting["validThrough"]),
	}

	rawLocation := posting["jobLocation"]
	if isNull(rawLocation) {
		return ItemRecord{}, apperrors.NewParse(url, "jobLocation is missing", nil)
	}
	locations, ok := jsonObjects(rawLocation)
	if !ok {
		return ItemRecord{}, apperrors.NewParse(url, "jobLocation is not an object or list", nil)
	}
	if len(locations) > 0 {
		if addr := decodeAddress(locations[0]["address"]); addr != nil {
			record.Location = addr
			record.State = addr.Region
			record.City = addr.Locality
		}
	}

	record.Description = Normalize(jsonString(posting["description"]), e.wrapWidth)
	record.MatchedKeywords, record.Score = e.scorer.Score(record.Description)

	return record, nil
}

// findPosting returns the JobPosting object of the page, or the first
// parseable JSON-LD object when no block declares that type
func findPosting(url string, doc *goquery.Document) (map[string]json.RawMessage, error) {
	blocks := doc.Find(jsonLDSelector)
	if blocks.Length() == 0 {
		return nil, apperrors.NewParse(url, "no structured data block", nil)
	}

	var first map[string]json.RawMessage
	var lastErr error
	var posting map[string]json.RawMessage

	blocks.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &raw); err != nil {
			lastErr = err
			return true
		}
		for _, obj := range flattenObjects(raw) {
			if first == nil {
				first = obj
			}
			if isJobPosting(obj) {
				posting = obj
				return false
			}
		}
		return true
	})

	if posting != nil {
		return posting, nil
	}
	if first != nil {
		return first, nil
	}
	return nil, apperrors.NewParse(url, "malformed structured data block", lastErr)
}

// flattenObjects lists the objects of a JSON-LD value, expanding top level
// arrays and @graph containers
func flattenObjects(raw json.RawMessage) []map[string]json.RawMessage {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []map[string]json.RawMessage
		for _, item := range list {
			out = append(out, flattenObjects(item)...)
		}
		return out
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil
	}
	out := []map[string]json.RawMessage{obj}
	if graph, ok := obj["@graph"]; ok {
		out = append(out, flattenObjects(graph)...)
	}
	return out
}

func isJobPosting(obj map[string]json.RawMessage) bool {
	for _, t := range jsonStrings(obj["@type"]) {
		if t == "JobPosting" {
			return true
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// jsonString reads a string or number value; anything else is unknown
func jsonString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// jsonStrings reads a string or a list of strings
func jsonStrings(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			if s := jsonString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := jsonString(raw); s != "" {
		return []string{s}
	}
	return nil
}

func jsonStringList(raw json.RawMessage) string {
	return strings.Join(jsonStrings(raw), ", ")
}

// jsonObjects reads an object or a list of objects. ok is false when the
// value is absent or null. Non-object list entries are kept as nil maps.
func jsonObjects(raw json.RawMessage) ([]map[string]json.RawMessage, bool) {
	if isNull(raw) {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]map[string]json.RawMessage, 0, len(list))
		for _, item := range list {
			var obj map[string]json.RawMessage
			_ = json.Unmarshal(item, &obj)
			out = append(out, obj)
		}
		return out, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return []map[string]json.RawMessage{obj}, true
}

func organizationName(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return jsonString(obj["name"])
	}
	return jsonString(raw)
}

func decodeAddress(raw json.RawMessage) *Address {
	if isNull(raw) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		// a bare string address carries no structured parts
		if s := jsonString(raw); s != "" {
			return &Address{StreetAddress: s}
		}
		return nil
	}

	return &Address{
		StreetAddress: jsonString(obj["streetAddress"]),
		Locality:      jsonString(obj["addressLocality"]),
		Region:        jsonString(obj["addressRegion"]),
		PostalCode:    jsonString(obj["postalCode"]),
		Country:       countryName(obj["addressCountry"]),
	}
}

// countryName accepts both "US" and {"@type": "Country", "name": "US"}
func countryName(raw json.RawMessage) string {
	if s := jsonString(raw); s != "" {
		return s
	}
	return organizationName(raw)
}
