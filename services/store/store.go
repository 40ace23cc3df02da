package store

import (
	"context"
	"encoding/json"
	"strings"

	"sjsage522/jobworker/config"
	"sjsage522/jobworker/internal/crawler"
	apperrors "sjsage522/jobworker/pkg/errors"
)

// Store persists the jobs and exceptions tables between runs
type Store interface {
	// LoadJobs returns every previously stored job
	LoadJobs(ctx context.Context) ([]crawler.ItemRecord, error)

	// AppendJobs adds the jobs of one run
	AppendJobs(ctx context.Context, runID string, jobs []crawler.ItemRecord) error

	// AppendExceptions adds the failed extractions of one run
	AppendExceptions(ctx context.Context, runID string, exceptions []crawler.ExceptionRecord) error

	// Close releases the underlying resources
	Close() error
}

// Open creates the store selected by cfg.StoreDriver
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreCSV, "":
		return NewCSVStore(cfg.ListingsFile, cfg.ExceptionsFile), nil
	case config.StoreSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, apperrors.NewConfiguration("unknown store driver "+cfg.StoreDriver, nil)
	}
}

func encodeLocation(addr *crawler.Address) string {
	if addr == nil {
		return ""
	}
	b, err := json.Marshal(addr)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeLocation(s string) *crawler.Address {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var addr crawler.Address
	if err := json.Unmarshal([]byte(s), &addr); err != nil {
		return nil
	}
	return &addr
}

func encodeKeywords(keywords []string) string {
	if keywords == nil {
		keywords = []string{}
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeKeywords reads a JSON list. Lists written as ['a', 'b'] by older
// tooling are accepted as well.
func decodeKeywords(s string) []string {
	s = strings.TrimSpace(s)
	keywords := []string{}
	if s == "" {
		return keywords
	}
	if err := json.Unmarshal([]byte(s), &keywords); err == nil {
		return keywords
	}

	keywords = []string{}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	for _, part := range strings.Split(inner, ",") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}
