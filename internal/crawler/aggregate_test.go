package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(url string, score int, title string) ItemRecord {
	matched := make([]string, score)
	for i := range matched {
		matched[i] = "kw"
	}
	return ItemRecord{URL: url, Score: score, Title: title, MatchedKeywords: matched}
}

func TestPreviousURLs(t *testing.T) {
	set := PreviousURLs([]ItemRecord{rec("a", 0, ""), rec("b", 1, ""), rec("", 0, "")})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "a")
	assert.Contains(t, set, "b")

	assert.Empty(t, PreviousURLs(nil))
}

func TestFilterNew(t *testing.T) {
	previous := map[string]struct{}{"b": {}, "z": {}}

	assert.Equal(t, []string{"a", "c"}, FilterNew([]string{"a", "b", "c"}, previous))
	assert.Equal(t, []string{"a"}, FilterNew([]string{"a"}, nil))
	assert.Empty(t, FilterNew(nil, previous))
}

func TestAggregateSortsAndDedups(t *testing.T) {
	records := []ItemRecord{
		rec("u1", 1, "first"),
		rec("u2", 3, "second"),
		rec("u1", 2, "better u1"),
		rec("u3", 3, "third"),
		rec("u2", 3, "tied u2"),
	}

	jobs, exceptions := Aggregate(records, nil)
	assert.Nil(t, exceptions)
	require.Len(t, jobs, 3)

	assert.Equal(t, "second", jobs[0].Title)
	assert.Equal(t, "third", jobs[1].Title)
	assert.Equal(t, "better u1", jobs[2].Title)
}

func TestAggregateIsIdempotent(t *testing.T) {
	records := []ItemRecord{
		rec("a", 0, "a"),
		rec("b", 2, "b"),
		rec("a", 1, "a2"),
		rec("c", 2, "c"),
	}

	once, _ := Aggregate(records, nil)
	twice, _ := Aggregate(once, nil)
	assert.Equal(t, once, twice)
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	records := []ItemRecord{rec("a", 0, "a"), rec("b", 5, "b")}

	_, _ = Aggregate(records, nil)
	assert.Equal(t, "a", records[0].Title)
	assert.Equal(t, "b", records[1].Title)
}

func TestAggregateEmpty(t *testing.T) {
	exceptions := []ExceptionRecord{{URL: "x", Message: "boom"}}

	jobs, gotExceptions := Aggregate(nil, exceptions)
	assert.Nil(t, jobs)
	assert.Equal(t, exceptions, gotExceptions)
}
