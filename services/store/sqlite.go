package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sjsage522/jobworker/internal/crawler"
	"sjsage522/jobworker/logger"
	apperrors "sjsage522/jobworker/pkg/errors"
)

const schemaVersion = 1

// SQLiteStore keeps the tables in a SQLite database. Jobs are keyed by URL
// and inserted with INSERT OR IGNORE, so the first stored record of a URL
// wins.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// OpenSQLite opens (and migrates) the database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorage("opening "+path, err)
	}
	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorage("connecting to "+path, err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorage("migrating "+path, err)
	}

	return &SQLiteStore{
		db:  db,
		log: logger.ForStore().WithField("driver", "sqlite"),
	}, nil
}

func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	statements := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  url TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  employment_type TEXT NOT NULL DEFAULT '',
  score INTEGER NOT NULL DEFAULT 0,
  matched_keywords TEXT NOT NULL DEFAULT '[]',
  description TEXT NOT NULL DEFAULT '',
  date_posted TEXT NOT NULL DEFAULT '',
  valid_through TEXT NOT NULL DEFAULT '',
  run_id TEXT NOT NULL DEFAULT '',
  first_seen TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS job_exceptions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  url TEXT NOT NULL,
  message TEXT NOT NULL,
  run_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`, `
CREATE INDEX IF NOT EXISTS idx_jobs_score ON jobs(score);`, `
CREATE INDEX IF NOT EXISTS idx_job_exceptions_url ON job_exceptions(url);`,
		fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion),
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadJobs returns all stored jobs, highest score first
func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]crawler.ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT title, company, location, state, city, employment_type, score,
       matched_keywords, description, date_posted, valid_through, url
FROM jobs
ORDER BY score DESC, first_seen ASC;`)
	if err != nil {
		return nil, apperrors.NewStorage("querying jobs", err)
	}
	defer rows.Close()

	var jobs []crawler.ItemRecord
	for rows.Next() {
		var (
			job      crawler.ItemRecord
			location string
			keywords string
		)
		if err := rows.Scan(
			&job.Title, &job.Company, &location, &job.State, &job.City, &job.EmploymentType, &job.Score,
			&keywords, &job.Description, &job.DatePosted, &job.ValidThrough, &job.URL,
		); err != nil {
			return nil, apperrors.NewStorage("scanning job", err)
		}
		job.Location = decodeLocation(location)
		job.MatchedKeywords = decodeKeywords(keywords)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage("iterating jobs", err)
	}

	s.log.Debug().Int("jobs", len(jobs)).Msg("Loaded previous jobs")
	return jobs, nil
}

// AppendJobs inserts the jobs of one run, ignoring URLs already stored
func (s *SQLiteStore) AppendJobs(ctx context.Context, runID string, jobs []crawler.ItemRecord) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO jobs (title, company, location, state, city, employment_type, score,
                            matched_keywords, description, date_posted, valid_through, url, run_id, first_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return apperrors.NewStorage("preparing insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	added := 0
	for _, job := range jobs {
		res, err := stmt.ExecContext(ctx,
			job.Title, job.Company, encodeLocation(job.Location), job.State, job.City, job.EmploymentType, job.Score,
			encodeKeywords(job.MatchedKeywords), job.Description, job.DatePosted, job.ValidThrough, job.URL, runID, now,
		)
		if err != nil {
			return apperrors.NewStorage("inserting "+job.URL, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorage("commit", err)
	}

	s.log.Info().Int("jobs", len(jobs)).Int("added", added).Str("run_id", runID).Msg("Stored jobs")
	return nil
}

// AppendExceptions inserts the failed extractions of one run
func (s *SQLiteStore) AppendExceptions(ctx context.Context, runID string, exceptions []crawler.ExceptionRecord) error {
	if len(exceptions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, exc := range exceptions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_exceptions (url, message, run_id, created_at) VALUES (?, ?, ?, ?);`,
			exc.URL, exc.Message, runID, now,
		); err != nil {
			return apperrors.NewStorage("inserting exception for "+exc.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorage("commit", err)
	}

	s.log.Info().Int("exceptions", len(exceptions)).Str("run_id", runID).Msg("Stored exceptions")
	return nil
}

// LoadExceptions returns the stored exceptions, oldest first
func (s *SQLiteStore) LoadExceptions(ctx context.Context) ([]crawler.ExceptionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, message FROM job_exceptions ORDER BY id ASC;`)
	if err != nil {
		return nil, apperrors.NewStorage("querying exceptions", err)
	}
	defer rows.Close()

	var out []crawler.ExceptionRecord
	for rows.Next() {
		var exc crawler.ExceptionRecord
		if err := rows.Scan(&exc.URL, &exc.Message); err != nil {
			return nil, apperrors.NewStorage("scanning exception", err)
		}
		out = append(out, exc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage("iterating exceptions", err)
	}
	return out, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
