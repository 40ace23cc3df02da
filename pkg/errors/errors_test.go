package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobErrorMessage(t *testing.T) {
	err := NewFetch("https://example.com/job/1/a/", "request failed", io.EOF)
	assert.Equal(t, "[fetch] https://example.com/job/1/a/: request failed - EOF", err.Error())

	err = NewConfiguration("board url is empty", nil)
	assert.Equal(t, "[configuration] board url is empty", err.Error())
}

func TestStatusError(t *testing.T) {
	err := NewStatus("https://example.com", 503)
	assert.Equal(t, 503, err.StatusCode)
	assert.Contains(t, err.Error(), "unexpected status code: 503")
	assert.True(t, IsType(err, ErrorTypeFetch))
}

func TestExtractionWrapsCause(t *testing.T) {
	cause := NewParse("https://example.com/job/1/a/", "no structured data block", nil)
	err := NewExtraction("https://example.com/job/1/a/", cause)

	assert.True(t, IsType(err, ErrorTypeExtraction))
	assert.True(t, IsType(err, ErrorTypeParse))
	assert.False(t, IsType(err, ErrorTypeFetch))

	var jobErr *JobError
	assert.True(t, stderrors.As(err, &jobErr))
	assert.Equal(t, ErrorTypeExtraction, jobErr.Type)
}

func TestStatusCodeThroughWrapping(t *testing.T) {
	fetchErr := NewStatus("https://example.com/job/1/a/", 404)
	err := fmt.Errorf("run: %w", NewExtraction("https://example.com/job/1/a/", fetchErr))

	assert.Equal(t, 404, StatusCode(err))
	assert.Equal(t, 0, StatusCode(io.EOF))
	assert.True(t, stderrors.Is(err, fetchErr))
}

func TestIsTypeOnPlainError(t *testing.T) {
	assert.False(t, IsType(io.EOF, ErrorTypeFetch))
	assert.False(t, IsType(nil, ErrorTypeFetch))
}
