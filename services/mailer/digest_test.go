package mailer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/jobworker/internal/crawler"
)

func TestBuildDigest(t *testing.T) {
	jobs := []crawler.ItemRecord{
		{Title: "Clinical Data Scientist", Company: "Acme Bio", State: "MA", City: "Boston", URL: "https://board.test/job/1/a/", Score: 3},
		{Title: "Analyst", URL: "https://board.test/job/2/b/", Score: 0},
		{Title: "ML Engineer", URL: "https://board.test/job/3/c/", Score: 2},
	}

	digest, ok := BuildDigest(jobs, 10)
	require.True(t, ok)
	assert.Equal(t, "Found 2 new job listings.", digest.Subject)
	assert.Equal(t, 2, digest.Count)

	want := "Found 2 new job listings.\n\n" +
		"Max score: 3\n" +
		"Mean score: 2.50\n" +
		"------------------------\n\n" +
		"New Job Listings:\n" +
		"Title: Clinical Data Scientist\nCompany: Acme Bio\nState: MA\nCity: Boston\nURL: https://board.test/job/1/a/\nScore: 3\n\n" +
		"Title: ML Engineer\nCompany: unknown\nState: unknown\nCity: unknown\nURL: https://board.test/job/3/c/\nScore: 2\n\n"
	assert.Equal(t, want, digest.Body)
}

func TestBuildDigestNothingScored(t *testing.T) {
	digest, ok := BuildDigest([]crawler.ItemRecord{{URL: "a"}, {URL: "b"}}, 10)
	assert.False(t, ok)
	assert.Nil(t, digest)

	_, ok = BuildDigest(nil, 10)
	assert.False(t, ok)
}

func TestBuildDigestTruncates(t *testing.T) {
	var jobs []crawler.ItemRecord
	for i := 0; i < 12; i++ {
		jobs = append(jobs, crawler.ItemRecord{Title: fmt.Sprintf("Job %d", i), URL: fmt.Sprintf("u%d", i), Score: 1})
	}

	digest, ok := BuildDigest(jobs, 10)
	require.True(t, ok)
	assert.Equal(t, 10, strings.Count(digest.Body, "Title: "))
	assert.True(t, strings.HasSuffix(digest.Body, "...and 2 more listings.\n"))
	assert.Equal(t, "Found 12 new job listings.", digest.Subject)
}

func TestBuildDigestExactlyMaxRows(t *testing.T) {
	var jobs []crawler.ItemRecord
	for i := 0; i < 3; i++ {
		jobs = append(jobs, crawler.ItemRecord{URL: fmt.Sprintf("u%d", i), Score: 1})
	}

	digest, ok := BuildDigest(jobs, 3)
	require.True(t, ok)
	assert.Equal(t, 3, strings.Count(digest.Body, "Title: "))
	assert.NotContains(t, digest.Body, "more listings")
}

func TestBuildDigestDefaultMaxRows(t *testing.T) {
	var jobs []crawler.ItemRecord
	for i := 0; i < DefaultMaxRows+1; i++ {
		jobs = append(jobs, crawler.ItemRecord{URL: fmt.Sprintf("u%d", i), Score: 2})
	}

	digest, ok := BuildDigest(jobs, 0)
	require.True(t, ok)
	assert.Equal(t, DefaultMaxRows, strings.Count(digest.Body, "Title: "))
	assert.Contains(t, digest.Body, "Mean score: 2.00\n")
}
