package store

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"sync"

	"sjsage522/jobworker/internal/crawler"
	"sjsage522/jobworker/logger"
	apperrors "sjsage522/jobworker/pkg/errors"
)

var (
	jobColumns = []string{
		"title", "company", "location", "state", "city", "employment_type", "score",
		"matched_keywords", "description", "date_posted", "valid_through", "url", "run_id",
	}
	exceptionColumns = []string{"url", "message", "run_id"}
)

// CSVStore keeps the two tables in append-only CSV files. The header is
// written once; later appends follow the header already in the file.
type CSVStore struct {
	mu             sync.Mutex
	listingsPath   string
	exceptionsPath string
	log            *logger.Logger
}

// NewCSVStore creates a CSV store
func NewCSVStore(listingsPath, exceptionsPath string) *CSVStore {
	return &CSVStore{
		listingsPath:   listingsPath,
		exceptionsPath: exceptionsPath,
		log:            logger.ForStore().WithField("driver", "csv"),
	}
}

// LoadJobs reads the listings file. A missing file means no previous jobs.
func (s *CSVStore) LoadJobs(ctx context.Context) ([]crawler.ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.listingsPath)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info().Str("path", s.listingsPath).Msg("No listings file, starting fresh")
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorage("opening "+s.listingsPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorage("reading header of "+s.listingsPath, err)
	}
	index := columnIndex(header)

	var jobs []crawler.ItemRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewStorage("reading "+s.listingsPath, err)
		}
		jobs = append(jobs, jobFromRow(index, row))
	}

	s.log.Debug().Int("jobs", len(jobs)).Str("path", s.listingsPath).Msg("Loaded previous jobs")
	return jobs, nil
}

// AppendJobs appends the jobs of one run to the listings file
func (s *CSVStore) AppendJobs(ctx context.Context, runID string, jobs []crawler.ItemRecord) error {
	if len(jobs) == 0 {
		return nil
	}
	rows := make([]map[string]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, jobToRow(runID, job))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendRows(s.listingsPath, jobColumns, rows)
}

// AppendExceptions appends the failed URLs of one run to the exceptions file
func (s *CSVStore) AppendExceptions(ctx context.Context, runID string, exceptions []crawler.ExceptionRecord) error {
	if len(exceptions) == 0 {
		return nil
	}
	rows := make([]map[string]string, 0, len(exceptions))
	for _, exc := range exceptions {
		rows = append(rows, map[string]string{
			"url":       exc.URL,
			"message":   exc.Message,
			"Exception": exc.Message,
			"run_id":    runID,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendRows(s.exceptionsPath, exceptionColumns, rows)
}

// Close is a no-op; files are opened per call
func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) appendRows(path string, columns []string, rows []map[string]string) error {
	header, err := readHeader(path)
	if err != nil {
		return apperrors.NewStorage("reading header of "+path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.NewStorage("opening "+path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if header == nil {
		header = columns
		if err := w.Write(header); err != nil {
			return apperrors.NewStorage("writing header of "+path, err)
		}
	}

	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return apperrors.NewStorage("writing "+path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewStorage("flushing "+path, err)
	}

	s.log.Info().Int("rows", len(rows)).Str("path", path).Msg("Appended rows")
	return nil
}

// readHeader returns the first record of path, or nil for a missing or
// empty file
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return header, err
}

func columnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}
	return index
}

func field(index map[string]int, row []string, names ...string) string {
	for _, name := range names {
		if i, ok := index[name]; ok && i < len(row) {
			return row[i]
		}
	}
	return ""
}

func jobFromRow(index map[string]int, row []string) crawler.ItemRecord {
	score, _ := strconv.Atoi(field(index, row, "score"))
	return crawler.ItemRecord{
		Title:           field(index, row, "title"),
		Company:         field(index, row, "company"),
		Location:        decodeLocation(field(index, row, "location")),
		State:           field(index, row, "state"),
		City:            field(index, row, "city"),
		EmploymentType:  field(index, row, "employment_type", "employmentType"),
		Score:           score,
		MatchedKeywords: decodeKeywords(field(index, row, "matched_keywords")),
		Description:     field(index, row, "description"),
		DatePosted:      field(index, row, "date_posted", "datePosted"),
		ValidThrough:    field(index, row, "valid_through", "validThrough"),
		URL:             field(index, row, "url"),
	}
}

func jobToRow(runID string, job crawler.ItemRecord) map[string]string {
	return map[string]string{
		"title":            job.Title,
		"company":          job.Company,
		"location":         encodeLocation(job.Location),
		"state":            job.State,
		"city":             job.City,
		"employment_type":  job.EmploymentType,
		"employmentType":   job.EmploymentType,
		"score":            strconv.Itoa(job.Score),
		"matched_keywords": encodeKeywords(job.MatchedKeywords),
		"description":      job.Description,
		"date_posted":      job.DatePosted,
		"datePosted":       job.DatePosted,
		"valid_through":    job.ValidThrough,
		"validThrough":     job.ValidThrough,
		"url":              job.URL,
		"run_id":           runID,
	}
}
