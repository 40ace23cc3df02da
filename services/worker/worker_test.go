package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/jobworker/helpers"
	"sjsage522/jobworker/internal"
	"sjsage522/jobworker/internal/crawler"
	"sjsage522/jobworker/services/cache"
	"sjsage522/jobworker/services/mailer"
	"sjsage522/jobworker/services/publisher"
	"sjsage522/jobworker/services/store"
)

const testBoard = "https://board.test/searchjobs/?Keywords=x"

// MockScraper returns a canned result
type MockScraper struct {
	result   *crawler.Result
	err      error
	previous []crawler.ItemRecord
	calls    int
	onScrape func()
}

var _ Scraper = (*MockScraper)(nil)

func (m *MockScraper) Scrape(ctx context.Context, boardURL string, previous []crawler.ItemRecord) (*crawler.Result, error) {
	m.calls++
	m.previous = previous
	if m.onScrape != nil {
		m.onScrape()
	}
	return m.result, m.err
}

// MockStore keeps tables in memory
type MockStore struct {
	jobs       []crawler.ItemRecord
	exceptions []crawler.ExceptionRecord
	runIDs     []string
	loadErr    error
	appendErr  error
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) LoadJobs(ctx context.Context) ([]crawler.ItemRecord, error) {
	return m.jobs, m.loadErr
}

func (m *MockStore) AppendJobs(ctx context.Context, runID string, jobs []crawler.ItemRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.runIDs = append(m.runIDs, runID)
	m.jobs = append(m.jobs, jobs...)
	return nil
}

func (m *MockStore) AppendExceptions(ctx context.Context, runID string, exceptions []crawler.ExceptionRecord) error {
	m.exceptions = append(m.exceptions, exceptions...)
	return nil
}

func (m *MockStore) Close() error { return nil }

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	trimmed  int
	err      error
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages = append(m.messages, messageCopy)
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockSender records sent digests
type MockSender struct {
	subjects []string
	bodies   []string
	err      error
}

var _ mailer.Sender = (*MockSender)(nil)

func (m *MockSender) Send(ctx context.Context, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return nil
}

// MockCache is an in-memory cache with Add semantics
type MockCache struct {
	items map[string][]byte
	err   error
}

var _ cache.CacheService = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCache) Set(key string, value []byte, expiration time.Duration) error {
	m.items[key] = value
	return nil
}

func (m *MockCache) Add(key string, value []byte, expiration time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[key]; ok {
		return cache.ErrNotStored
	}
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(key string) error {
	delete(m.items, key)
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

var _ helpers.LoggerInterface = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{
		errors: make([]string, 0),
		infos:  make([]string, 0),
	}
}

func (m *MockLogger) LogError(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, source+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func sampleResult() *crawler.Result {
	return &crawler.Result{
		RunID:      "run-1",
		Candidates: 4,
		New:        3,
		Jobs: []crawler.ItemRecord{
			{Title: "Clinical Data Scientist", URL: "https://board.test/job/1/a/", Score: 2, MatchedKeywords: []string{"clinical", "sleep"}},
			{Title: "Analyst", URL: "https://board.test/job/2/b/", MatchedKeywords: []string{}},
		},
		Exceptions: []crawler.ExceptionRecord{{URL: "https://board.test/job/3/c/", Message: "extraction failed"}},
	}
}

type fixture struct {
	scraper   *MockScraper
	store     *MockStore
	publisher *MockPublisher
	sender    *MockSender
	cache     *MockCache
	logger    *MockLogger
	deps      *internal.Dependencies
}

func newFixture() *fixture {
	f := &fixture{
		scraper:   &MockScraper{result: sampleResult()},
		store:     &MockStore{jobs: []crawler.ItemRecord{{URL: "https://board.test/job/0/old/"}}},
		publisher: &MockPublisher{},
		sender:    &MockSender{},
		cache:     NewMockCache(),
		logger:    NewMockLogger(),
	}
	f.deps = &internal.Dependencies{
		Store:     f.store,
		Publisher: f.publisher,
		Cache:     f.cache,
		Mailer:    f.sender,
	}
	return f
}

func (f *fixture) worker(ctx context.Context) *Worker {
	return NewWorker(ctx, f.scraper, f.deps, f.logger, Options{
		BoardURL:      testBoard,
		CrawlInterval: time.Hour,
		RunLockTTL:    time.Minute,
		DigestMaxRows: 10,
		SendDigest:    true,
	})
}

func TestWorkerRunOnce(t *testing.T) {
	f := newFixture()

	result, err := f.worker(context.Background()).RunOnce()
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)

	// previous jobs are handed to the scraper
	require.Len(t, f.scraper.previous, 1)
	assert.Equal(t, "https://board.test/job/0/old/", f.scraper.previous[0].URL)

	// both tables stored under the run id
	assert.Len(t, f.store.jobs, 3)
	assert.Len(t, f.store.exceptions, 1)
	assert.Equal(t, []string{"run-1"}, f.store.runIDs)

	// every new job published, then streams trimmed
	assert.Len(t, f.publisher.messages, 2)
	assert.Contains(t, string(f.publisher.messages[0]), "run-1")
	assert.Equal(t, 1, f.publisher.trimmed)

	// digest only counts scored jobs
	assert.Equal(t, []string{"Found 1 new job listings."}, f.sender.subjects)
	assert.Contains(t, f.sender.bodies[0], "Clinical Data Scientist")

	// lock released
	assert.Empty(t, f.cache.items)
	assert.Empty(t, f.logger.errors)
}

func TestWorkerScrapeError(t *testing.T) {
	f := newFixture()
	f.scraper.result = nil
	f.scraper.err = errors.New("listing page 2: 503")

	result, err := f.worker(context.Background()).RunOnce()
	assert.Error(t, err)
	assert.Nil(t, result)

	assert.Len(t, f.store.jobs, 1)
	assert.Empty(t, f.publisher.messages)
	assert.Empty(t, f.sender.subjects)
	assert.Empty(t, f.cache.items)
}

func TestWorkerLoadError(t *testing.T) {
	f := newFixture()
	f.store.loadErr = errors.New("disk on fire")

	_, err := f.worker(context.Background()).RunOnce()
	assert.Error(t, err)
	assert.Zero(t, f.scraper.calls)
}

func TestWorkerStoreError(t *testing.T) {
	f := newFixture()
	f.store.appendErr = errors.New("read-only file system")

	result, err := f.worker(context.Background()).RunOnce()
	assert.Error(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, f.publisher.messages)
	assert.Empty(t, f.sender.subjects)
}

func TestWorkerRunLockHeld(t *testing.T) {
	f := newFixture()
	f.cache.items[cache.LockKey(testBoard)] = []byte("other-worker")

	result, err := f.worker(context.Background()).RunOnce()
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, result)
	assert.Zero(t, f.scraper.calls)

	// the other worker's lock is left alone
	assert.Equal(t, []byte("other-worker"), f.cache.items[cache.LockKey(testBoard)])
}

func TestWorkerRunLockBackendDown(t *testing.T) {
	f := newFixture()
	f.cache.err = errors.New("connection refused")

	_, err := f.worker(context.Background()).RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, f.scraper.calls)
	require.NotEmpty(t, f.logger.errors)
	assert.Contains(t, f.logger.errors[0], "RunLock")
}

func TestWorkerPublisherErrorDoesNotFailRun(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("redis down")

	_, err := f.worker(context.Background()).RunOnce()
	require.NoError(t, err)
	require.Len(t, f.logger.errors, 1)
	assert.Contains(t, f.logger.errors[0], "Publisher")
	assert.Contains(t, f.logger.errors[0], "redis down")
	assert.Len(t, f.sender.subjects, 1)
}

func TestWorkerNoScoredJobs(t *testing.T) {
	f := newFixture()
	f.scraper.result.Jobs = []crawler.ItemRecord{{URL: "u", MatchedKeywords: []string{}}}

	_, err := f.worker(context.Background()).RunOnce()
	require.NoError(t, err)
	assert.Empty(t, f.sender.subjects)
	assert.Contains(t, f.logger.infos, "No new jobs found. No email sent.")
}

func TestWorkerWithoutOptionalServices(t *testing.T) {
	f := newFixture()
	f.deps.Publisher = nil
	f.deps.Cache = nil
	f.deps.Mailer = nil

	result, err := f.worker(context.Background()).RunOnce()
	require.NoError(t, err)
	assert.Len(t, result.Jobs, 2)
	assert.Len(t, f.store.jobs, 3)
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.scraper.onScrape = cancel

	done := make(chan error, 1)
	go func() {
		done <- f.worker(ctx).Start()
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.Equal(t, 1, f.scraper.calls)
}

func runUntilFirstScrape(t *testing.T, f *fixture, environment string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.scraper.onScrape = cancel

	w := NewWorker(ctx, f.scraper, f.deps, f.logger, Options{
		BoardURL:      testBoard,
		CrawlInterval: time.Hour,
		Environment:   environment,
	})
	require.NoError(t, w.Start())
}

func TestWorkerStartRunDurationFollowsEnvironmentOption(t *testing.T) {
	t.Setenv("JOBWORKER_ENVIRONMENT", "production")
	f := newFixture()
	runUntilFirstScrape(t, f, "development")
	require.Len(t, f.logger.infos, 1)
	assert.Contains(t, f.logger.infos[0], "Run took")

	t.Setenv("JOBWORKER_ENVIRONMENT", "development")
	f = newFixture()
	runUntilFirstScrape(t, f, "production")
	for _, info := range f.logger.infos {
		assert.NotContains(t, info, "Run took")
	}
}
