package mailer

import (
	"fmt"
	"strings"

	"sjsage522/jobworker/internal/crawler"
)

// DefaultMaxRows is the number of jobs listed in a digest body
const DefaultMaxRows = 10

const unknown = "unknown"

// Digest is a plain text summary of new jobs
type Digest struct {
	Subject string
	Body    string
	Count   int
}

// BuildDigest summarizes the jobs with a positive score, in the order given.
// ok is false when no job scored.
func BuildDigest(jobs []crawler.ItemRecord, maxRows int) (*Digest, bool) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	var scored []crawler.ItemRecord
	for _, job := range jobs {
		if job.Score > 0 {
			scored = append(scored, job)
		}
	}
	if len(scored) == 0 {
		return nil, false
	}

	maxScore, total := 0, 0
	for _, job := range scored {
		total += job.Score
		if job.Score > maxScore {
			maxScore = job.Score
		}
	}
	mean := float64(total) / float64(len(scored))

	subject := fmt.Sprintf("Found %d new job listings.", len(scored))

	var b strings.Builder
	b.WriteString(subject)
	fmt.Fprintf(&b, "\n\nMax score: %d\n", maxScore)
	fmt.Fprintf(&b, "Mean score: %.2f\n", mean)
	b.WriteString("------------------------\n\n")
	b.WriteString("New Job Listings:\n")

	for i, job := range scored {
		if i == maxRows {
			fmt.Fprintf(&b, "...and %d more listings.\n", len(scored)-maxRows)
			break
		}
		fmt.Fprintf(&b, "Title: %s\nCompany: %s\nState: %s\nCity: %s\nURL: %s\nScore: %d\n\n",
			orUnknown(job.Title), orUnknown(job.Company), orUnknown(job.State), orUnknown(job.City), job.URL, job.Score)
	}

	return &Digest{
		Subject: subject,
		Body:    b.String(),
		Count:   len(scored),
	}, true
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
