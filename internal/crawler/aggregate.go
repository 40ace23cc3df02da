package crawler

import "sort"

// PreviousURLs returns the URL set of previously seen records
func PreviousURLs(previous []ItemRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(previous))
	for _, r := range previous {
		if r.URL != "" {
			set[r.URL] = struct{}{}
		}
	}
	return set
}

// FilterNew returns the candidates not in previous, keeping candidate order
func FilterNew(candidates []string, previous map[string]struct{}) []string {
	out := make([]string, 0, len(candidates))
	for _, u := range candidates {
		if _, seen := previous[u]; seen {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Aggregate ranks records by score, highest first, and keeps one record
// per URL: the first one after the stable sort. The item table is nil when
// there are no records; exceptions are returned unchanged.
func Aggregate(records []ItemRecord, exceptions []ExceptionRecord) ([]ItemRecord, []ExceptionRecord) {
	if len(records) == 0 {
		return nil, exceptions
	}

	sorted := make([]ItemRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	jobs := make([]ItemRecord, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, r := range sorted {
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		jobs = append(jobs, r)
	}
	return jobs, exceptions
}
