package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents network failures and non-2xx responses
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeParse represents a missing or malformed structured-data block
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeExtraction represents a failed per-item extraction
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeStorage represents persistence errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeMail represents digest delivery errors
	ErrorTypeMail ErrorType = "mail"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// JobError represents an error raised while scraping or handling job postings
type JobError struct {
	Type       ErrorType
	URL        string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *JobError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.URL != "" {
		prefix += " " + e.URL + ":"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s - %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *JobError) Unwrap() error {
	return e.Err
}

// New creates a new JobError
func New(errType ErrorType, url, message string, err error) *JobError {
	return &JobError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new fetch error for a network failure
func NewFetch(url, message string, err error) *JobError {
	return New(ErrorTypeFetch, url, message, err)
}

// NewStatus creates a new fetch error for a non-2xx response
func NewStatus(url string, statusCode int) *JobError {
	e := New(ErrorTypeFetch, url, fmt.Sprintf("unexpected status code: %d", statusCode), nil)
	e.StatusCode = statusCode
	return e
}

// NewParse creates a new parse error
func NewParse(url, message string, err error) *JobError {
	return New(ErrorTypeParse, url, message, err)
}

// NewExtraction wraps a per-item failure
func NewExtraction(url string, err error) *JobError {
	return New(ErrorTypeExtraction, url, "extraction failed", err)
}

// NewStorage creates a new storage error
func NewStorage(message string, err error) *JobError {
	return New(ErrorTypeStorage, "", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *JobError {
	return New(ErrorTypePublisher, "", message, err)
}

// NewCache creates a new cache error
func NewCache(message string, err error) *JobError {
	return New(ErrorTypeCache, "", message, err)
}

// NewMail creates a new mail error
func NewMail(message string, err error) *JobError {
	return New(ErrorTypeMail, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(url, message string) *JobError {
	return New(ErrorTypeValidation, url, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *JobError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether any JobError in err's chain has the given type
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var jobErr *JobError
		if !stderrors.As(err, &jobErr) {
			return false
		}
		if jobErr.Type == errType {
			return true
		}
		err = jobErr.Err
	}
	return false
}

// StatusCode returns the HTTP status carried by a fetch error, or 0
func StatusCode(err error) int {
	var jobErr *JobError
	for err != nil && stderrors.As(err, &jobErr) {
		if jobErr.StatusCode != 0 {
			return jobErr.StatusCode
		}
		err = jobErr.Err
	}
	return 0
}
